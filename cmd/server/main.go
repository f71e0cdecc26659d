package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"gorm.io/gorm"

	authz "github.com/Skotchmaster/toptunez/internal/auth"
	"github.com/Skotchmaster/toptunez/internal/config"
	"github.com/Skotchmaster/toptunez/internal/es"
	"github.com/Skotchmaster/toptunez/internal/handlers"
	"github.com/Skotchmaster/toptunez/internal/logging"
	"github.com/Skotchmaster/toptunez/internal/models"
	"github.com/Skotchmaster/toptunez/internal/mykafka"
	"github.com/Skotchmaster/toptunez/internal/repo"
	"github.com/Skotchmaster/toptunez/internal/service"
	"github.com/Skotchmaster/toptunez/internal/service/search"
	gql "github.com/Skotchmaster/toptunez/internal/transport/graphql"
	httpserver "github.com/Skotchmaster/toptunez/internal/transport/http"
	"github.com/Skotchmaster/toptunez/pkg/db"
	"github.com/Skotchmaster/toptunez/pkg/tokens"
)

const shutdownTimeout = 10 * time.Second

func main() {
	seedAdmin := flag.String("seed-admin", "", "create an admin user from email:password and exit")
	flag.Parse()

	cfg := config.Load()
	cfg.MustValidate()

	log := logging.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gdb, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Error("db_init_failed", "error", err)
		os.Exit(1)
	}
	if err := db.Migrate(gdb); err != nil {
		log.Error("db_migrate_failed", "error", err)
		os.Exit(1)
	}

	var events mykafka.Publisher = mykafka.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		events = mykafka.NewProducer(cfg.KafkaBrokers, log)
		log.Info("kafka_enabled", "brokers", strings.Join(cfg.KafkaBrokers, ","))
	}

	r := &repo.GormRepo{DB: gdb}
	tunes := &service.TuneService{Repo: r, Events: events}
	users := &service.UserService{Repo: r, Tokens: tokens.NewIssuer(cfg.JWTSecret, cfg.JWTExpiry), Events: events}

	if cfg.SearchBackend == config.SearchElasticsearch {
		client, err := es.NewClient(ctx, es.Config{URL: cfg.ESURL, User: cfg.ESUser, Password: cfg.ESPassword})
		if err != nil {
			log.Error("es_init_failed", "error", err)
			os.Exit(1)
		}
		tunes.Index = &search.Index{ES: client, Name: cfg.ESIndex}
	}

	if *seedAdmin != "" {
		err := createAdmin(logging.IntoContext(ctx, log), users, *seedAdmin)
		closeAll(log, events, gdb)
		if err != nil {
			log.Error("seed_admin_failed", "error", err)
			os.Exit(1)
		}
		return
	}

	e := httpserver.New(cfg, log, &authz.Gate{Tokens: users.Tokens, MFA: users}, &httpserver.Deps{
		DB:          gdb,
		TuneHandler: &handlers.TuneHandler{Tunes: tunes},
		UserHandler: &handlers.UserHandler{Users: users},
		GraphQL:     gql.NewHandler(&gql.Resolver{Tunes: tunes, Users: users}),
	})

	srv := &http.Server{
		Addr:         ":" + strconv.Itoa(cfg.Port),
		Handler:      e,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	go func() {
		log.Info("listening", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http_server_error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting_down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server_shutdown_error", "error", err)
	}

	closeAll(log, events, gdb)
	log.Info("shutdown_complete")
}

func createAdmin(ctx context.Context, users *service.UserService, spec string) error {
	email, password, ok := strings.Cut(spec, ":")
	if !ok || email == "" || password == "" {
		return fmt.Errorf("expected email:password, got %q", spec)
	}
	local, _, _ := strings.Cut(email, "@")
	_, err := users.SignUpWithRoles(ctx, service.SignUpInput{
		Email:     email,
		FirstName: local,
		LastName:  "Admin",
		Password:  password,
	}, []string{models.RoleAdmin})
	if errors.Is(err, service.ErrConflict) {
		logging.FromContext(ctx).Info("seed_admin_exists", "email", email)
		return nil
	}
	return err
}

// closeAll releases the event writer before the database pool.
func closeAll(log *slog.Logger, events mykafka.Publisher, gdb *gorm.DB) {
	if err := events.Close(); err != nil {
		log.Error("kafka_close_error", "error", err)
	}
	if err := db.Close(gdb); err != nil {
		log.Error("db_close_error", "error", err)
	}
}
