package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/xeze-org/bl/internal/app"
	"github.com/xeze-org/bl/internal/articles"
	"github.com/xeze-org/bl/internal/auth"
	"github.com/xeze-org/bl/internal/config"
	"github.com/xeze-org/bl/internal/store"
	"github.com/xeze-org/bl/internal/views"
)

// gateway is what the handlers need from the persistence layer.
type gateway interface {
	articles.Store
	auth.UserStore
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("config")
	}
	log, err := cfg.Logger()
	if err != nil {
		logrus.WithError(err).Fatal("logger")
	}
	ctx := context.Background()

	// ── Storage ──────────────────────────────────────────────
	var db gateway
	switch cfg.Storage {
	case config.StorageMemory:
		log.Warn("using in-memory storage; data is lost on exit")
		db = store.NewMemoryStore()
	default:
		pg, err := store.ConnectPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			log.WithError(err).Fatal("postgres")
		}
		defer pg.Close()
		db = pg
	}

	// ── Redis ────────────────────────────────────────────────
	rdb, err := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		log.WithError(err).Fatal("redis connect")
	}
	defer rdb.Close()
	sessions := auth.NewSessionStore(rdb, cfg.SessionSecret, cfg.SessionTTL)

	// ── MongoDB journal (optional) ───────────────────────────
	opts := []articles.Option{}
	if cfg.JournalEnabled() {
		journal, client, err := store.ConnectJournal(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			log.WithError(err).Fatal("mongo")
		}
		defer client.Disconnect(ctx)
		opts = append(opts, articles.WithJournal(journal))
	} else {
		log.Info("lifecycle journal disabled")
	}

	// ── MinIO archive (optional) ─────────────────────────────
	if cfg.ArchiveEnabled() {
		archive, err := store.NewArchiveStore(
			ctx, cfg.MinioEndpoint, cfg.MinioAccessKey,
			cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioUseSSL,
		)
		if err != nil {
			log.WithError(err).Fatal("minio connect")
		}
		opts = append(opts, articles.WithArchive(archive))
	} else {
		log.Info("deletion archive disabled")
	}

	// ── Handlers ─────────────────────────────────────────────
	renderer, err := views.New(log)
	if err != nil {
		log.WithError(err).Fatal("templates")
	}
	router := app.NewRouter(app.Deps{
		Articles:     articles.NewManager(db, log, opts...),
		Accounts:     auth.NewAccounts(db, auth.DefaultHasher),
		Sessions:     sessions,
		Views:        renderer,
		AccessSecret: cfg.AccessSecret,
		CORSOrigins:  cfg.CORSOrigins,
		Log:          log,
	})

	// ── Server ───────────────────────────────────────────────
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		log.WithFields(logrus.Fields{"port": cfg.Port, "storage": cfg.Storage}).Info("bl listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Fatal("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	shutCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutCtx); err != nil {
		log.WithError(err).Error("shutdown")
	}
}
