package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/rs/zerolog/log"

	"github.com/wolfeidau/sessiongate/internal/store"
	dynamodbstore "github.com/wolfeidau/sessiongate/internal/store/dynamodb"
	memorystore "github.com/wolfeidau/sessiongate/internal/store/memory"
	postgresstore "github.com/wolfeidau/sessiongate/internal/store/postgres"
)

type Globals struct {
	Debug   bool
	Version string
}

func configureHTTPServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: time.Second,
		ReadTimeout:       time.Minute,
		WriteTimeout:      time.Minute,
		IdleTimeout:       5 * time.Minute,
		MaxHeaderBytes:    8 * 1024, // 8KiB
	}
}

// StoreFlags selects and configures the key-value backend. Shared between the
// server and the administrative commands so both talk to the same records.
type StoreFlags struct {
	StoreType string             `help:"store type (memory, dynamodb, or postgres)" default:"memory" env:"SESSIONGATE_STORE_TYPE" enum:"memory,dynamodb,postgres"`
	DynamoDB  DynamoDBStoreFlags `embed:"" prefix:"dynamodb-"`
	Postgres  PostgresStoreFlags `embed:"" prefix:"postgres-"`
}

type DynamoDBStoreFlags struct {
	TableName   string `help:"DynamoDB table name for session records" env:"SESSIONGATE_DYNAMODB_TABLE"`
	EndpointURL string `help:"DynamoDB endpoint URL override (for DynamoDB Local)" default:"" env:"SESSIONGATE_DYNAMODB_ENDPOINT_URL"`
}

func (s *DynamoDBStoreFlags) Validate() error {
	if s.TableName == "" {
		return errors.New("DynamoDB table name is required (--dynamodb-table-name or SESSIONGATE_DYNAMODB_TABLE)")
	}
	return nil
}

type PostgresStoreFlags struct {
	ConnString string `help:"PostgreSQL connection string" env:"POSTGRES_CONNECTION_STRING"`

	MaxConns        int32 `help:"maximum number of connections in pool" default:"10"`
	MinConns        int32 `help:"minimum number of connections in pool" default:"2"`
	MaxConnLifetime int32 `help:"maximum connection lifetime in seconds" default:"3600"`
	MaxConnIdleTime int32 `help:"maximum connection idle time in seconds" default:"1800"`

	AutoMigrate bool `help:"run database migrations on startup" default:"false" env:"SESSIONGATE_POSTGRES_AUTO_MIGRATE"`
}

func (s *PostgresStoreFlags) Validate() error {
	if s.ConnString == "" {
		return errors.New("PostgreSQL connection string is required (--postgres-conn-string or POSTGRES_CONNECTION_STRING)")
	}
	return nil
}

// createKV builds the configured key-value backend.
func (s *StoreFlags) createKV(ctx context.Context) (store.KV, error) {
	switch s.StoreType {
	case "dynamodb":
		if err := s.DynamoDB.Validate(); err != nil {
			return nil, fmt.Errorf("failed to validate dynamodb flags: %w", err)
		}

		awsConfig, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}

		clientOpts := []func(*dynamodb.Options){}
		if s.DynamoDB.EndpointURL != "" {
			clientOpts = append(clientOpts, func(o *dynamodb.Options) {
				o.BaseEndpoint = aws.String(s.DynamoDB.EndpointURL)
			})
		}
		client := dynamodb.NewFromConfig(awsConfig, clientOpts...)

		log.Info().Str("table", s.DynamoDB.TableName).Msg("Using DynamoDB key-value store")
		return dynamodbstore.NewKVStore(client, s.DynamoDB.TableName), nil

	case "postgres":
		if err := s.Postgres.Validate(); err != nil {
			return nil, fmt.Errorf("failed to validate postgres flags: %w", err)
		}

		pool, err := postgresstore.NewPool(ctx, &postgresstore.PoolConfig{
			ConnString:      s.Postgres.ConnString,
			MaxConns:        s.Postgres.MaxConns,
			MinConns:        s.Postgres.MinConns,
			MaxConnLifetime: s.Postgres.MaxConnLifetime,
			MaxConnIdleTime: s.Postgres.MaxConnIdleTime,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create connection pool: %w", err)
		}

		if s.Postgres.AutoMigrate {
			if err := postgresstore.Migrate(ctx, pool); err != nil {
				return nil, err
			}
		}

		log.Info().Msg("Using PostgreSQL key-value store")
		return postgresstore.NewKVStore(pool), nil

	default:
		log.Info().Msg("Using in-memory key-value store")
		return memorystore.NewKVStore(), nil
	}
}
