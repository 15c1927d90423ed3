package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/256dpi/serve"
	"github.com/256dpi/xo"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/256dpi/fire/coal"

	"github.com/256dpi/ember/api"
	"github.com/256dpi/ember/models"
	"github.com/256dpi/ember/posts"
	"github.com/256dpi/ember/storage"
)

func main() {
	// get config
	mongoURI := envString("MONGODB_URI", "mongodb://0.0.0.0/ember")
	addr := "0.0.0.0:" + envString("PORT", "8000")
	secret := envString("EMBER_SECRET", "")
	if secret == "" {
		xo.Panic(xo.F("missing EMBER_SECRET"))
	}

	// connect to database
	store := coal.MustConnect(mongoURI, xo.Crash)
	defer store.Close()

	// ensure indexes
	err := coal.EnsureIndexes(store, models.All()...)
	if err != nil {
		xo.Panic(err)
	}

	// prepare storage
	svc, err := setupStorage()
	if err != nil {
		xo.Panic(err)
	}

	// prepare reporter
	reporter := api.DefaultReporter()

	// construct handler
	handler := serve.Compose(
		xo.RootHandler(),
		api.DefaultRequestLogger(),
		api.DefaultBodyLimiter(),
		serve.Throttle(100),
		api.Handler(api.Config{
			Store:    store,
			Storage:  svc,
			Secret:   []byte(secret),
			Reporter: reporter,
		}),
	)

	// sweep orphaned engagement records in the background
	go sweep(store, reporter)

	// run server
	fmt.Printf("listening on %s...\n", addr)
	err = http.ListenAndServe(addr, handler)
	if err != nil {
		xo.Panic(err)
	}
}

func setupStorage() (storage.Service, error) {
	// use memory storage if minio is not configured
	endpoint := envString("MINIO_ENDPOINT", "")
	if endpoint == "" {
		return storage.NewMemory("mem://blobs"), nil
	}

	// create client
	client, err := minio.New(endpoint, &minio.Options{
		Creds: credentials.NewStaticV4(
			envString("MINIO_ACCESS_KEY", ""),
			envString("MINIO_SECRET_KEY", ""),
			"",
		),
		Secure: envString("MINIO_SECURE", "") == "true",
	})
	if err != nil {
		return nil, xo.W(err)
	}

	return storage.NewMinio(client, envString("MINIO_BUCKET", "ember"), envString("MINIO_BASE_URL", "http://"+endpoint+"/ember")), nil
}

func sweep(store *coal.Store, reporter func(error)) {
	for {
		// wait a while
		time.Sleep(time.Hour)

		// remove comments and reports whose post is gone
		_, err := posts.Cleanup(context.Background(), store)
		if err != nil {
			reporter(err)
		}
	}
}

func envString(name, fallback string) string {
	value := os.Getenv(name)
	if value == "" {
		return fallback
	}
	return value
}
