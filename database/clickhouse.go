package database

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/rs/zerolog/log"

	"tourismhub/api/config"
)

type ClickHouseClient struct {
	Conn clickhouse.Conn
}

const analyticsEventsDDL = `
	CREATE TABLE IF NOT EXISTS analytics_events (
		event_id            String,
		session_id          String,
		user_id             Nullable(String),
		event_name          LowCardinality(String),
		page_path           Nullable(String),
		landing_path        Nullable(String),
		search_query        Nullable(String),
		search_scope        Nullable(String),
		search_result_count Nullable(Int64),
		filters             String,
		metadata            String,
		created_at          DateTime64(3, 'UTC')
	)
	ENGINE = MergeTree
	ORDER BY (event_name, created_at)
`

func NewClickHouseDB(cfg config.ClickHouseConfig) (*ClickHouseClient, error) {
	if cfg.Host == "" || cfg.NativePort == 0 || cfg.Database == "" {
		return nil, fmt.Errorf("CLICKHOUSE_HOST, CLICKHOUSE_NATIVE_PORT, or CLICKHOUSE_DB_NAME environment variables are not set")
	}

	options := &clickhouse.Options{
		Addr: []string{fmt.Sprintf("%s:%d", cfg.Host, cfg.NativePort)},
		Auth: clickhouse.Auth{
			Database: cfg.Database,
			Username: cfg.Username,
			Password: cfg.Password,
		},
		ClientInfo: clickhouse.ClientInfo{
			Products: []struct {
				Name    string
				Version string
			}{{Name: "tourismhub-api", Version: "1.0.0"}},
		},
		Compression: &clickhouse.Compression{
			Method: clickhouse.CompressionLZ4,
		},
		DialTimeout: time.Second * 5,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	conn, err := clickhouse.Open(options)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to ClickHouse via Native TCP: %w", err)
	}

	if err := conn.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping ClickHouse: %w", err)
	}

	if err := conn.Exec(ctx, analyticsEventsDDL); err != nil {
		return nil, fmt.Errorf("failed to create analytics_events table: %w", err)
	}

	log.Info().Str("addr", options.Addr[0]).Msg("Connected to ClickHouse")
	return &ClickHouseClient{Conn: conn}, nil
}

func (c *ClickHouseClient) Close() {
	if c.Conn != nil {
		if err := c.Conn.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing ClickHouse connection")
			return
		}
		log.Info().Msg("ClickHouse connection closed")
	}
}
