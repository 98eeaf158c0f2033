package middleware

import (
	"context"
	"net/http"

	"github.com/ArcaneNova/annadata-client-sub001/api/web"
	"github.com/ArcaneNova/annadata-client-sub001/validate"
	"github.com/alexedwards/scs/v2"
)

// DeviceSessionKey holds the device id inside the scs session.
const DeviceSessionKey = "device"

type deviceKeyCtx int

const deviceKey deviceKeyCtx = 1

// Device names the browser behind the request. The id lives in the session
// cookie's data and is minted on the first visit, so it needs the session
// loaded by scs LoadAndSave further up.
func Device(sm *scs.SessionManager) web.Middleware {
	m := func(handler web.Handler) web.Handler {
		h := func(ctx context.Context, w http.ResponseWriter, r *http.Request) error {

			id := sm.GetString(ctx, DeviceSessionKey)
			if err := validate.CheckID(id); err != nil {
				id = validate.GenerateID()
				sm.Put(ctx, DeviceSessionKey, id)
			}
			ctx = context.WithValue(ctx, deviceKey, id)

			return handler(ctx, w, r)
		}
		return h
	}
	return m
}

func ContextDevice(ctx context.Context) string {
	id, _ := ctx.Value(deviceKey).(string)
	return id
}
