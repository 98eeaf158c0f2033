package kv

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ArcaneNova/annadata-client-sub001/config"
	"github.com/ArcaneNova/annadata-client-sub001/database"
	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
)

func newPool(t *testing.T) *dockertest.Pool {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping docker backed test in short mode")
	}

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	if err := pool.Client.Ping(); err != nil {
		t.Skipf("docker unavailable: %v", err)
	}
	pool.MaxWait = time.Minute
	return pool
}

func run(t *testing.T, pool *dockertest.Pool, opts *dockertest.RunOptions) *dockertest.Resource {
	t.Helper()

	res, err := pool.RunWithOptions(opts, func(hc *docker.HostConfig) {
		hc.AutoRemove = true
		hc.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	if err != nil {
		t.Fatalf("starting %s container: %v", opts.Repository, err)
	}
	res.Expire(120)

	t.Cleanup(func() {
		if err := pool.Purge(res); err != nil {
			t.Logf("purging %s container: %v", opts.Repository, err)
		}
	})
	return res
}

func TestPostgres(t *testing.T) {
	pool := newPool(t)

	res := run(t, pool, &dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "14-alpine",
		Env: []string{
			"POSTGRES_USER=postgres",
			"POSTGRES_PASSWORD=postgres",
			"POSTGRES_DB=storefront",
		},
	})

	cfg := config.DB{
		User:         "postgres",
		Password:     "postgres",
		Host:         res.GetHostPort("5432/tcp"),
		Name:         "storefront",
		MaxIdleConns: 2,
		MaxOpenConns: 2,
		DisableTLS:   true,
	}

	db, err := database.Open(cfg)
	if err != nil {
		t.Fatalf("opening db: %v", err)
	}
	defer db.Close()

	err = pool.Retry(func() error {
		return database.StatusCheck(context.Background(), db)
	})
	if err != nil {
		t.Fatalf("waiting for postgres: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrating: %v", err)
	}

	exercise(t, NewPostgres(db))
}

func TestRedis(t *testing.T) {
	pool := newPool(t)

	res := run(t, pool, &dockertest.RunOptions{
		Repository: "redis",
		Tag:        "7-alpine",
	})

	addr := fmt.Sprintf("redis://%s/0", res.GetHostPort("6379/tcp"))

	var store *Redis
	err := pool.Retry(func() error {
		var err error
		store, err = OpenRedis(context.Background(), addr, time.Hour)
		return err
	})
	if err != nil {
		t.Fatalf("waiting for redis: %v", err)
	}
	defer store.Close()

	exercise(t, store)
}
