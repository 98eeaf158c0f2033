package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/ArcaneNova/annadata-client-sub001/api"
	"github.com/ArcaneNova/annadata-client-sub001/api/background"
	"github.com/ArcaneNova/annadata-client-sub001/client"
	"github.com/ArcaneNova/annadata-client-sub001/config"
	"github.com/ArcaneNova/annadata-client-sub001/core/kv"
	"github.com/ArcaneNova/annadata-client-sub001/core/session"
	"github.com/ArcaneNova/annadata-client-sub001/database"
	"github.com/ArcaneNova/annadata-client-sub001/rate"
	"github.com/ArcaneNova/annadata-client-sub001/telemetry"
	"github.com/alexedwards/scs/v2"
	"github.com/ardanlabs/conf/v3"
	"github.com/sirupsen/logrus"
)

const service = "storefront"

func main() {
	log := logrus.New()
	log.SetOutput(os.Stdout)

	if err := Run(log); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func Run(logger *logrus.Logger) error {
	logger.Infof("starting server")
	defer logger.Info("shutdown complete")

	const prefix = "STOREFRONT"
	var cfg config.Config
	help, err := conf.Parse(prefix, &cfg)
	if err != nil {
		if err == conf.ErrHelpWanted {
			fmt.Println(help)
			return nil
		}
		return fmt.Errorf("parsing config: %w", err)
	}

	lw := logger.Writer()
	defer lw.Close()
	errLog := log.New(lw, "", 0)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.Trace.Enabled {
		shutdownTrace, err := telemetry.Init(service, os.Stdout)
		if err != nil {
			return fmt.Errorf("starting tracing: %w", err)
		}
		defer shutdownTrace(context.Background())
	}

	storage, closeStorage, err := openStorage(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeStorage()

	remote, err := client.New(cfg.Remote.URL, cfg.Remote.Timeout)
	if err != nil {
		return fmt.Errorf("building marketplace client: %w", err)
	}

	var sealer *session.Sealer
	if cfg.Session.RememberKey != "" {
		if sealer, err = session.NewSealer(cfg.Session.RememberKey); err != nil {
			return fmt.Errorf("loading remember-me key: %w", err)
		}
	} else {
		logger.Warn("no remember-me key configured, credentials will not be remembered")
	}

	sessionManager := scs.New()
	sessionManager.Lifetime = cfg.Session.Lifetime
	if storage != nil {
		sessionManager.Store = kv.NewSessionStore(storage)
	}

	bg := background.New(logger)

	limiter := rate.NewLimiter(cfg.Checkout.Burst, cfg.Checkout.Expiry, rate.Every(cfg.Checkout.Interval))
	go limiter.Run(ctx)

	var mux http.Handler = api.APIMux(api.APIConfig{
		CorsOrigin:   cfg.Cors.Origin,
		Log:          logger,
		Session:      sessionManager,
		Storage:      storage,
		Remote:       remote,
		Background:   bg,
		Limiter:      limiter,
		Sealer:       sealer,
		SingleSeller: cfg.Cart.SingleSeller,
	})
	if cfg.Trace.Enabled {
		mux = telemetry.Handler(mux, service)
	}

	api := http.Server{
		Handler:      mux,
		Addr:         cfg.Web.Address,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		ErrorLog:     errLog,
	}

	serverErrors := make(chan error, 1)

	go func() {
		logger.Infof("starting api router at %s", api.Addr)
		serverErrors <- api.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Infof("shutting down: signal %s", sig)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		if err := api.Shutdown(ctx); err != nil {
			api.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}

		if err := bg.Shutdown(ctx); err != nil {
			return fmt.Errorf("could not complete all background tasks: %w", err)
		}
	}
	return nil
}

// openStorage picks where device state lives. A nil storage keeps it in the
// session store.
func openStorage(ctx context.Context, cfg config.Config, logger logrus.FieldLogger) (kv.Storage, func(), error) {
	switch cfg.Storage.Driver {
	case "session", "":
		return nil, func() {}, nil

	case "redis":
		r, err := kv.OpenRedis(ctx, cfg.Redis.URL, cfg.Redis.TTL)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to redis: %w", err)
		}
		logger.Info("device state kept in redis")
		return r, func() { r.Close() }, nil

	case "postgres":
		db, err := database.Open(cfg.DB)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open db connection: %w", err)
		}
		if err := database.StatusCheck(ctx, db); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("checking db status: %w", err)
		}
		if err := database.Migrate(db); err != nil {
			db.Close()
			return nil, nil, fmt.Errorf("migrating db: %w", err)
		}
		logger.Info("device state kept in postgres")
		return kv.NewPostgres(db), func() { db.Close() }, nil
	}

	return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}
