// Package jsutil holds the NATS connection setup shared by the change relay
// and the logo object store.
package jsutil

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

// ConnConfig holds NATS connection settings.
type ConnConfig struct {
	URL           string
	Name          string
	MaxReconnects int
	ReconnectWait time.Duration
}

func DefaultConnConfig() ConnConfig {
	return ConnConfig{
		URL:           nats.DefaultURL,
		Name:          "matchboard",
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
	}
}

// Connect dials NATS and opens a JetStream context on the connection.
func Connect(cfg ConnConfig) (*nats.Conn, jetstream.JetStream, error) {
	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, nil, errors.Wrap(err, "connect to NATS")
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, errors.Wrap(err, "create JetStream context")
	}
	return nc, js, nil
}
