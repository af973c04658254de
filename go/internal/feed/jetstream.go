package feed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/cockroachdb/errors"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

// JetStreamConfig describes the stream changes are relayed through.
type JetStreamConfig struct {
	StreamName      string
	SubjectPrefix   string
	MaxAge          time.Duration
	Replicas        int
	DuplicateWindow time.Duration

	// consumer side
	ConsumerName  string
	MaxDeliver    int
	AckWait       time.Duration
	MaxAckPending int
	// consumers are per gateway process; abandoned ones are removed
	InactiveThreshold time.Duration
}

func DefaultJetStreamConfig() JetStreamConfig {
	return JetStreamConfig{
		StreamName:      "MATCH_CHANGES",
		SubjectPrefix:   "match.changes",
		MaxAge:          24 * time.Hour,
		Replicas:        1,
		DuplicateWindow: 2 * time.Hour,
		ConsumerName:    "matchboard-gateway",
		MaxDeliver:      5,
		AckWait:         30 * time.Second,
		MaxAckPending:   256,

		InactiveThreshold: 5 * time.Minute,
	}
}

// Subject returns the subject a change is published on,
// e.g. match.changes.update.<match_id>.
func (c JetStreamConfig) Subject(change Change) string {
	return fmt.Sprintf("%s.%s.%s", c.SubjectPrefix, strings.ToLower(string(change.Type)), change.MatchID)
}

// EnsureStream creates the change stream or brings its limits up to date.
func EnsureStream(ctx context.Context, js jetstream.JetStream, cfg JetStreamConfig) error {
	sc := jetstream.StreamConfig{
		Name:        cfg.StreamName,
		Description: "Committed match changes",
		Subjects:    []string{cfg.SubjectPrefix + ".>"},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      cfg.MaxAge,
		Storage:     jetstream.FileStorage,
		Replicas:    cfg.Replicas,
		Duplicates:  cfg.DuplicateWindow,
	}

	stream, err := js.Stream(ctx, cfg.StreamName)
	if err != nil {
		if _, err = js.CreateStream(ctx, sc); err != nil {
			return errors.Wrap(err, "create stream")
		}
		log.Info().Str("stream", cfg.StreamName).Msg("created JetStream stream")
		return nil
	}

	info, err := stream.Info(ctx)
	if err != nil {
		return errors.Wrap(err, "get stream info")
	}
	if info.Config.MaxAge != sc.MaxAge || info.Config.Replicas != sc.Replicas || info.Config.Duplicates != sc.Duplicates {
		if _, err = js.UpdateStream(ctx, sc); err != nil {
			return errors.Wrap(err, "update stream")
		}
		log.Info().Str("stream", cfg.StreamName).Msg("updated JetStream stream")
	}
	return nil
}

// JetStreamPublisher relays changes onto the JetStream change stream. The
// change id is the message id so a re-published change is deduplicated.
type JetStreamPublisher struct {
	js  jetstream.JetStream
	cfg JetStreamConfig
}

func NewJetStreamPublisher(ctx context.Context, js jetstream.JetStream, cfg JetStreamConfig) (*JetStreamPublisher, error) {
	if err := EnsureStream(ctx, js, cfg); err != nil {
		return nil, errors.Wrap(err, "ensure stream")
	}
	return &JetStreamPublisher{js: js, cfg: cfg}, nil
}

func (p *JetStreamPublisher) Publish(ctx context.Context, c Change) error {
	data, err := sonic.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "marshal change")
	}

	subject := p.cfg.Subject(c)
	ack, err := p.js.PublishMsg(ctx, &nats.Msg{
		Subject: subject,
		Data:    data,
		Header: nats.Header{
			"Event-Type": []string{string(c.Type)},
			"Match-ID":   []string{c.MatchID.String()},
			"Change-ID":  []string{c.ID.String()},
		},
	},
		jetstream.WithMsgID(c.ID.String()),
		jetstream.WithExpectStream(p.cfg.StreamName),
	)
	if err != nil {
		return errors.Wrap(err, "publish to JetStream")
	}

	log.Debug().
		Str("subject", subject).
		Str("change_id", c.ID.String()).
		Uint64("sequence", ack.Sequence).
		Bool("duplicate", ack.Duplicate).
		Msg("published change")
	return nil
}

// JetStreamConsumer reads the change stream and republishes every change
// into the local broker, so each gateway process serves its own viewers.
type JetStreamConsumer struct {
	consumer jetstream.Consumer
	out      Publisher
	cfg      JetStreamConfig
}

func NewJetStreamConsumer(ctx context.Context, js jetstream.JetStream, out Publisher, cfg JetStreamConfig) (*JetStreamConsumer, error) {
	if err := EnsureStream(ctx, js, cfg); err != nil {
		return nil, errors.Wrap(err, "ensure stream")
	}
	stream, err := js.Stream(ctx, cfg.StreamName)
	if err != nil {
		return nil, errors.Wrap(err, "get stream")
	}

	consumer, err := stream.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Name:          cfg.ConsumerName,
		Durable:       cfg.ConsumerName,
		Description:   "Gateway change fan-out",
		FilterSubject: cfg.SubjectPrefix + ".>",
		// replicas fetch a snapshot on subscribe, history is not needed
		DeliverPolicy: jetstream.DeliverNewPolicy,
		AckPolicy:     jetstream.AckExplicitPolicy,
		MaxDeliver:    cfg.MaxDeliver,
		AckWait:       cfg.AckWait,
		MaxAckPending: cfg.MaxAckPending,
		ReplayPolicy:  jetstream.ReplayInstantPolicy,

		InactiveThreshold: cfg.InactiveThreshold,
	})
	if err != nil {
		return nil, errors.Wrap(err, "create consumer")
	}

	log.Info().
		Str("consumer", cfg.ConsumerName).
		Str("stream", cfg.StreamName).
		Msg("JetStream consumer ready")

	return &JetStreamConsumer{consumer: consumer, out: out, cfg: cfg}, nil
}

// Start consumes until ctx is cancelled.
func (c *JetStreamConsumer) Start(ctx context.Context) error {
	messageCh := make(chan jetstream.Msg, c.cfg.MaxAckPending)

	consumeCtx, err := c.consumer.Consume(func(msg jetstream.Msg) {
		select {
		case messageCh <- msg:
		case <-ctx.Done():
			_ = msg.Nak()
		}
	})
	if err != nil {
		return errors.Wrap(err, "start consumer")
	}
	defer consumeCtx.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("change consumer shutting down")
			return nil
		case msg := <-messageCh:
			if err := c.processMessage(ctx, msg); err != nil {
				log.Error().Err(err).Str("subject", msg.Subject()).Msg("failed to process change")
				if nakErr := msg.Nak(); nakErr != nil {
					log.Error().Err(nakErr).Msg("failed to NAK message")
				}
				continue
			}
			if ackErr := msg.Ack(); ackErr != nil {
				log.Error().Err(ackErr).Msg("failed to ACK message")
			}
		}
	}
}

func (c *JetStreamConsumer) processMessage(ctx context.Context, msg jetstream.Msg) error {
	change, err := DecodeChange(msg.Data())
	if err != nil {
		return err
	}
	return c.out.Publish(ctx, change)
}

// DecodeChange parses a relayed change and checks the fields every
// subscriber depends on.
func DecodeChange(data []byte) (Change, error) {
	var change Change
	if err := sonic.Unmarshal(data, &change); err != nil {
		return Change{}, errors.Wrap(err, "unmarshal change")
	}
	if !change.Type.Valid() {
		return Change{}, errors.Newf("unknown event type %q", change.Type)
	}
	if change.Type != EventDelete && change.Record == nil {
		return Change{}, errors.Newf("%s change without record", change.Type)
	}
	return change, nil
}
