package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"metachat/notification-service/internal/trigger"
)

const DocumentCreated = "document.created"

// DocumentEvent is the envelope published on NATS by writers of the
// document store.
type DocumentEvent struct {
	ID       string                 `json:"id"`
	Type     string                 `json:"type"`
	Document string                 `json:"document"`
	Data     map[string]interface{} `json:"data"`
	Time     time.Time              `json:"time"`
}

type Dispatcher interface {
	Dispatch(ctx context.Context, ev trigger.Event) error
}

type NATSConfig struct {
	URL         string
	Name        string
	Subject     string
	Queue       string
	MaxInFlight int
}

// NATSConsumer queue-subscribes to document events and runs each one as an
// independent invocation, bounded by MaxInFlight.
type NATSConsumer struct {
	cfg        NATSConfig
	dispatcher Dispatcher
	logger     *logrus.Logger

	nc     *nats.Conn
	sub    *nats.Subscription
	group  errgroup.Group
	closed chan struct{}
}

func NewNATSConsumer(cfg NATSConfig, dispatcher Dispatcher, logger *logrus.Logger) *NATSConsumer {
	c := &NATSConsumer{
		cfg:        cfg,
		dispatcher: dispatcher,
		logger:     logger,
		closed:     make(chan struct{}),
	}
	if cfg.MaxInFlight > 0 {
		c.group.SetLimit(cfg.MaxInFlight)
	}
	return c
}

func (c *NATSConsumer) Start(ctx context.Context) error {
	nc, err := nats.Connect(c.cfg.URL,
		nats.Name(c.cfg.Name),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				c.logger.WithError(err).Warn("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			c.logger.WithField("url", nc.ConnectedUrl()).Info("NATS reconnected")
		}),
		nats.ClosedHandler(func(*nats.Conn) {
			close(c.closed)
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to connect to nats: %w", err)
	}

	// In-flight invocations outlive shutdown of the caller's context; Stop
	// waits for them.
	base := context.WithoutCancel(ctx)
	cb := func(m *nats.Msg) {
		data := append([]byte(nil), m.Data...)
		c.group.Go(func() error {
			c.HandleMessage(base, data)
			return nil
		})
	}

	var sub *nats.Subscription
	if c.cfg.Queue == "" {
		sub, err = nc.Subscribe(c.cfg.Subject, cb)
	} else {
		sub, err = nc.QueueSubscribe(c.cfg.Subject, c.cfg.Queue, cb)
	}
	if err != nil {
		nc.Close()
		return fmt.Errorf("failed to subscribe to %s: %w", c.cfg.Subject, err)
	}

	c.nc = nc
	c.sub = sub

	c.logger.WithFields(logrus.Fields{
		"subject": c.cfg.Subject,
		"queue":   c.cfg.Queue,
	}).Info("NATS consumer started")

	return nil
}

// HandleMessage decodes one envelope and dispatches it. Failures are logged;
// redelivery, if any, belongs to the publisher.
func (c *NATSConsumer) HandleMessage(ctx context.Context, data []byte) {
	var env DocumentEvent
	if err := json.Unmarshal(data, &env); err != nil {
		c.logger.WithError(err).Error("Failed to unmarshal document event")
		return
	}

	if env.Type != DocumentCreated {
		c.logger.WithFields(logrus.Fields{
			"type":     env.Type,
			"document": env.Document,
		}).Debug("Ignoring document event")
		return
	}

	if env.ID == "" {
		env.ID = uuid.NewString()
	}
	if env.Time.IsZero() {
		env.Time = time.Now()
	}

	err := c.dispatcher.Dispatch(ctx, trigger.Event{
		ID:       env.ID,
		Document: env.Document,
		Data:     env.Data,
		Time:     env.Time,
	})
	if err != nil {
		c.logger.WithError(err).WithField("event_id", env.ID).Error("Document event failed")
	}
}

// Stop drains the connection: messages already delivered to this client are
// still handed to the dispatcher, then in-flight invocations are awaited.
func (c *NATSConsumer) Stop() error {
	if c.nc == nil {
		return nil
	}

	if err := c.nc.Drain(); err != nil {
		c.logger.WithError(err).Warn("Failed to drain NATS connection")
		c.nc.Close()
	}

	// The closed handler fires once every pending callback has returned, so
	// no group.Go can race the Wait below.
	<-c.closed
	c.group.Wait()

	c.logger.Info("NATS consumer stopped")
	return nil
}
