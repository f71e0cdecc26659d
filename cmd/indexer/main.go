package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/segmentio/kafka-go"

	"github.com/Skotchmaster/toptunez/internal/config"
	"github.com/Skotchmaster/toptunez/internal/es"
	"github.com/Skotchmaster/toptunez/internal/logging"
	"github.com/Skotchmaster/toptunez/internal/mykafka"
	"github.com/Skotchmaster/toptunez/internal/repo"
	"github.com/Skotchmaster/toptunez/internal/service/search"
	pkgconfig "github.com/Skotchmaster/toptunez/pkg/config"
	"github.com/Skotchmaster/toptunez/pkg/db"
)

// indexer keeps the Elasticsearch tune index in sync with tune_events.
func main() {
	backfill := flag.Bool("backfill", false, "index every stored tune before consuming events")
	flag.Parse()

	cfg := config.Load()
	pkgconfig.MustNonEmpty(cfg.ESURL, "ES_URL")
	pkgconfig.MustNonEmpty(strings.Join(cfg.KafkaBrokers, ","), "KAFKA_BROKERS")

	log := logging.New(cfg.LogLevel, cfg.LogFormat).With("component", "indexer")
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logging.IntoContext(ctx, log)

	client, err := es.NewClient(ctx, es.Config{URL: cfg.ESURL, User: cfg.ESUser, Password: cfg.ESPassword})
	if err != nil {
		log.Error("es_init_failed", "error", err)
		os.Exit(1)
	}
	index := &search.Index{ES: client, Name: cfg.ESIndex}
	if err := index.EnsureIndex(ctx); err != nil {
		log.Error("ensure_index_failed", "index", cfg.ESIndex, "error", err)
		os.Exit(1)
	}

	if *backfill {
		if err := backfillIndex(ctx, cfg.DatabaseURL, index); err != nil {
			log.Error("backfill_failed", "error", err)
			os.Exit(1)
		}
	}

	consumer := mykafka.NewConsumer(cfg.KafkaBrokers, cfg.IndexerGroupID, mykafka.TopicTunes)
	log.Info("indexer_started", "topic", mykafka.TopicTunes, "group", cfg.IndexerGroupID, "index", cfg.ESIndex)

	err = consumer.Run(ctx, func(ctx context.Context, msg kafka.Message) error {
		return index.HandleTuneEvent(ctx, msg.Value)
	})
	if cerr := consumer.Close(); cerr != nil {
		log.Error("consumer_close_error", "error", cerr)
	}
	if err != nil {
		log.Error("indexer_stopped", "error", err)
		os.Exit(1)
	}
	log.Info("indexer_stopped")
}

func backfillIndex(ctx context.Context, dsn string, index *search.Index) error {
	pkgconfig.MustNonEmpty(dsn, "DATABASE_URL")
	log := logging.FromContext(ctx)

	gdb, err := db.Open(ctx, dsn)
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(gdb); err != nil {
			log.Error("db_close_error", "error", err)
		}
	}()

	n, err := index.Backfill(ctx, &repo.GormRepo{DB: gdb})
	if err != nil {
		return err
	}
	log.Info("backfill_done", "indexed", n, "index", index.Name)
	return nil
}
