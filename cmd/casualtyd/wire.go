package main

import (
	"github.com/couchcryptid/casualty-data-service/internal/adapter/kafka"
	"github.com/couchcryptid/casualty-data-service/internal/adapter/source"
	"github.com/couchcryptid/casualty-data-service/internal/cache"
	"github.com/couchcryptid/casualty-data-service/internal/config"
	"github.com/couchcryptid/casualty-data-service/internal/dataset"
	"github.com/couchcryptid/casualty-data-service/internal/domain"
	"github.com/couchcryptid/casualty-data-service/internal/observability"
)

// components are the fetchers shared by serve and fetch.
type components struct {
	store  *cache.Store
	daily  *dataset.Aggregate
	names  *dataset.Registry
	writer *kafka.Writer // nil unless KAFKA_ENABLED
}

func build(cfg *config.Config, metrics *observability.Metrics) *components {
	client := source.NewClient(cfg.FetchTimeout, cfg.UserAgent, metrics, logger)
	store := cache.NewStore(cfg.DataDir)

	c := &components{store: store}
	var opts []dataset.Option
	if cfg.KafkaEnabled {
		c.writer = kafka.NewWriter(cfg, logger)
		opts = append(opts, dataset.WithNotifier(c.writer))
		logger.Info("snapshot notifications enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		logger.Info("snapshot notifications disabled")
	}

	c.daily = dataset.NewAggregate(client, store, cfg.DailyCSVURL, cfg.DailyJSONURL, metrics, logger, opts...)
	c.names = dataset.NewRegistry(client, store, cfg.NamesCSVURL, domain.DefaultAliases, cfg.NamesTTL, metrics, logger, opts...)
	return c
}

func (c *components) close() {
	if c.writer == nil {
		return
	}
	if err := c.writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}
}
