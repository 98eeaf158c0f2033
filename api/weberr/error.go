package weberr

import (
	"errors"
	"net/http"
)

type ErrorResponse struct {
	Error string `json:"error"`
	// Field names the offending input when the error is about one.
	Field string `json:"field,omitempty"`
}

type RequestError struct {
	Err error
}

func (r *RequestError) Error() string { return r.Err.Error() }

func (e *RequestError) Unwrap() error { return e.Err }

func NewError(err error, msg string, status int, opts ...Opt) error {
	e := &RequestError{Err: err}
	opts = append(opts, WithResponse(
		&ErrorResponse{Error: msg},
		status,
	))

	return Wrap(e, opts...)
}

type fieldNamer interface{ FieldName() string }

// Unprocessable answers 422 with err's own message, which callers keep safe
// to show: validation failures and domain rule violations.
func Unprocessable(err error, opts ...Opt) error {
	body := &ErrorResponse{Error: err.Error()}
	var fn fieldNamer
	if errors.As(err, &fn) {
		body.Field = fn.FieldName()
	}
	opts = append(opts, WithResponse(body, http.StatusUnprocessableEntity))
	return Wrap(&RequestError{Err: err}, opts...)
}

func Conflict(err error, opts ...Opt) error {
	return NewError(err, err.Error(), http.StatusConflict, opts...)
}

// BadGateway reports a failed call to the marketplace API with msg.
func BadGateway(err error, msg string, opts ...Opt) error {
	return NewError(err, msg, http.StatusBadGateway, opts...)
}

func TooManyRequests(err error, opts ...Opt) error {
	return NewError(err, "too many requests, try again shortly", http.StatusTooManyRequests, opts...)
}

func NotFound(err error, opts ...Opt) error {
	return NewError(
		err,
		"the resource could not be found",
		http.StatusNotFound,
		opts...,
	)
}

func NotAuthorized(err error, opts ...Opt) error {
	return NewError(
		err,
		"not authorized to access resource",
		http.StatusUnauthorized,
		opts...,
	)
}

func InternalError(err error, opts ...Opt) error {
	return NewError(
		err,
		"the server encountered a problem and could not process your request",
		http.StatusInternalServerError,
		opts...,
	)
}

func BadRequest(err error, opts ...Opt) error {
	return NewError(
		err,
		"bad request",
		http.StatusBadRequest,
		opts...,
	)
}
