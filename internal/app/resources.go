package app

import (
	"context"
	"crypto/tls"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"github.com/shandysiswandi/otpgate/internal/pkg/mail"
	"github.com/shandysiswandi/otpgate/internal/pkg/messaging"
	"github.com/shandysiswandi/otpgate/internal/pkg/migration"
	"github.com/shandysiswandi/otpgate/internal/pkg/storage"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
)

const (
	pingTimeout = 5 * time.Second
	pubsubScope = "https://www.googleapis.com/auth/pubsub"
)

func (a *App) initDatabase() error {
	c := a.config
	dsn := c.GetString("database.url")

	if c.GetBool("database.auto_migrate") {
		if err := migration.Up(dsn); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}

	pc, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return err
	}
	pc.MaxConns = int32(c.GetInt("database.pool.max_conns"))
	pc.MinConns = int32(c.GetInt("database.pool.min_conns"))
	pc.MaxConnLifetime = c.GetSecond("database.pool.max_conn_lifetime_seconds")
	pc.MaxConnIdleTime = c.GetSecond("database.pool.max_conn_idle_seconds")
	pc.HealthCheckPeriod = c.GetSecond("database.pool.health_check_period_seconds")

	pool, err := pgxpool.NewWithConfig(a.ctx, pc)
	if err != nil {
		return err
	}
	a.onClose("database", func(context.Context) error {
		pool.Close()
		return nil
	})

	ctx, cancel := context.WithTimeout(a.ctx, pingTimeout)
	defer cancel()
	if err := pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}

	a.dbConn = pool
	return nil
}

func (a *App) initCache() error {
	opt, err := redis.ParseURL(a.config.GetString("redis.url"))
	if err != nil {
		return err
	}

	rdb := redis.NewClient(opt)
	a.onClose("redis", func(context.Context) error { return rdb.Close() })

	ctx, cancel := context.WithTimeout(a.ctx, pingTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping: %w", err)
	}

	a.cacheConn = rdb
	return nil
}

func (a *App) initMail() error {
	c := a.config
	from := c.GetString("mail.from")
	driver := c.GetString("mail.driver")

	client, err := mail.NewFromDriver(a.ctx, driver, mail.FactoryOptions{
		SMTP: mail.SMTPConfig{
			Host:     c.GetString("mail.smtp.host"),
			Port:     c.GetInt("mail.smtp.port"),
			Username: c.GetString("mail.smtp.username"),
			Password: c.GetString("mail.smtp.password"),
			From:     from,
		},
		SES: mail.SESConfig{
			Region:           c.GetString("mail.ses.region"),
			Endpoint:         c.GetString("mail.ses.endpoint"),
			AccessKey:        c.GetString("mail.ses.access_key"),
			SecretKey:        c.GetString("mail.ses.secret_key"),
			From:             from,
			ConfigurationSet: c.GetString("mail.ses.configuration_set"),
		},
	})
	if err != nil {
		return fmt.Errorf("driver %q: %w", driver, err)
	}

	a.mail = client
	a.onClose("mail", func(context.Context) error { return client.Close() })
	return nil
}

func (a *App) initStorage() error {
	c := a.config
	str := func(key string) string { return strings.TrimSpace(c.GetString(key)) }
	driver := str("storage.driver")

	stg, err := storage.NewFromDriver(a.ctx, driver, storage.FactoryOptions{
		S3: storage.S3Options{
			Region:       str("storage.s3.region"),
			Endpoint:     str("storage.s3.endpoint"),
			AccessKey:    str("storage.s3.access_key"),
			SecretKey:    str("storage.s3.secret_key"),
			UsePathStyle: c.GetBool("storage.s3.use_path_style"),
		},
		MinIO: storage.MinIOOptions{
			Region:    str("storage.minio.region"),
			Endpoint:  str("storage.minio.endpoint"),
			AccessKey: str("storage.minio.access_key"),
			SecretKey: str("storage.minio.secret_key"),
			UseSSL:    c.GetBool("storage.minio.use_ssl"),
		},
		GCS: storage.GCSOptions{
			CredentialsJSON: c.GetBinary("storage.gcs.credentials_json"),
			Endpoint:        str("storage.gcs.endpoint"),
			WithoutAuth:     c.GetBool("storage.gcs.without_auth"),
			GoogleAccessID:  str("storage.gcs.google_access_id"),
			PrivateKey:      c.GetBinary("storage.gcs.private_key"),
		},
	})
	if err != nil {
		return fmt.Errorf("driver %q: %w", driver, err)
	}

	a.storage = stg
	a.onClose("storage", func(context.Context) error { return stg.Close() })
	return nil
}

func (a *App) pubsubOptions() ([]option.ClientOption, error) {
	var opts []option.ClientOption
	if ep := strings.TrimSpace(a.config.GetString("messaging.pubsub.endpoint")); ep != "" {
		// emulator
		opts = append(opts, option.WithEndpoint(ep), option.WithoutAuthentication())
	}
	if raw := a.config.GetBinary("messaging.pubsub.credentials_json"); len(raw) > 0 {
		creds, err := google.CredentialsFromJSON(a.ctx, raw, pubsubScope)
		if err != nil {
			return nil, fmt.Errorf("pubsub credentials: %w", err)
		}
		opts = append(opts, option.WithCredentials(creds))
	}
	return opts, nil
}

func (a *App) initMessaging() error {
	c := a.config
	driver := c.GetString("messaging.driver")

	var dialer *kafka.Dialer
	if c.GetBool("messaging.kafka.tls") {
		dialer = &kafka.Dialer{
			Timeout: c.GetSecond("messaging.kafka.dial_timeout_seconds"),
			TLS:     &tls.Config{MinVersion: tls.VersionTLS12},
		}
	}

	pubsubOpts, err := a.pubsubOptions()
	if err != nil {
		return err
	}

	client, err := messaging.NewFromDriver(a.ctx, driver, messaging.FactoryOptions{
		NSQ: messaging.NSQConfig{
			ProducerAddr:         c.GetString("messaging.nsq.producer_addr"),
			ConsumerNSQDAddrs:    c.GetArray("messaging.nsq.consumer_nsqd_addrs"),
			ConsumerLookupdAddrs: c.GetArray("messaging.nsq.consumer_lookupd_addrs"),
		},
		NATS: messaging.NATSConfig{
			URL: c.GetString("messaging.nats.url"),
			Options: []nats.Option{
				nats.Name(c.GetString("messaging.nats.name")),
				nats.MaxReconnects(c.GetInt("messaging.nats.max_reconnects")),
				nats.Timeout(c.GetSecond("messaging.nats.timeout_seconds")),
				nats.ReconnectWait(c.GetSecond("messaging.nats.reconnect_wait_seconds")),
				nats.RetryOnFailedConnect(c.GetBool("messaging.nats.retry_on_failed_connect")),
			},
		},
		Kafka: messaging.KafkaConfig{
			Brokers: c.GetArray("messaging.kafka.brokers"),
			Dialer:  dialer,
		},
		PubSub: messaging.PubSubConfig{
			ProjectID:     strings.TrimSpace(c.GetString("messaging.pubsub.project_id")),
			ClientOptions: pubsubOpts,
		},
	})
	if err != nil {
		return fmt.Errorf("driver %q: %w", driver, err)
	}

	a.messaging = client
	a.onClose("messaging", func(context.Context) error { return client.Close() })
	return nil
}
