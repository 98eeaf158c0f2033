package config

import "time"

type Config struct {
	Web struct {
		Address         string        `conf:"default:0.0.0.0:8080"`
		ReadTimeout     time.Duration `conf:"default:5s"`
		WriteTimeout    time.Duration `conf:"default:10s"`
		IdleTimeout     time.Duration `conf:"default:120s"`
		ShutdownTimeout time.Duration `conf:"default:20s"`
	}
	Cors struct {
		Origin string
	}
	Remote   Remote
	Storage  Storage
	Redis    Redis
	DB       DB
	Session  Session
	Cart     Cart
	Checkout Checkout
	Trace    Trace
}

// Remote is the marketplace REST API every business call is forwarded to.
type Remote struct {
	URL     string        `conf:"default:http://localhost:5000/api"`
	Timeout time.Duration `conf:"default:15s"`
}

type Storage struct {
	// Driver is one of session, redis or postgres.
	Driver string `conf:"default:session"`
}

type Redis struct {
	URL string        `conf:"default:redis://localhost:6379/0"`
	TTL time.Duration `conf:"default:720h"`
}

type DB struct {
	User         string `conf:"default:postgres"`
	Password     string `conf:"default:postgres,mask"`
	Host         string `conf:"default:localhost:5432"`
	Name         string `conf:"default:storefront"`
	MaxIdleConns int    `conf:"default:3"`
	MaxOpenConns int    `conf:"default:10"`
	DisableTLS   bool   `conf:"default:true"`
}

type Session struct {
	Lifetime time.Duration `conf:"default:720h"`
	// RememberKey is the hex encoded 32 byte key sealing remembered passwords.
	RememberKey string `conf:"mask"`
}

type Cart struct {
	SingleSeller bool `conf:"default:true"`
}

type Checkout struct {
	Burst    int           `conf:"default:3"`
	Interval time.Duration `conf:"default:2s"`
	// Expiry is how long an idle device limiter is kept.
	Expiry time.Duration `conf:"default:30m"`
}

type Trace struct {
	Enabled bool `conf:"default:false"`
}
