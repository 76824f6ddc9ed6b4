package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

type NatsPublisher struct {
	nc      *nats.Conn
	subject string
	logger  *zap.SugaredLogger
}

func NewNatsPublisher(url, subject string, logger *zap.SugaredLogger) (*NatsPublisher, error) {
	logger.Infof("Attempting to connect to NATS at: %s", url)

	nc, err := nats.Connect(url,
		nats.Name("autosign"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warnf("Disconnected from NATS: %v", err)
			}
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("could not connect to NATS: %w", err)
	}

	logger.Infof("Successfully connected to NATS at: %s", url)
	return &NatsPublisher{nc: nc, subject: subject, logger: logger}, nil
}

// Publish sends the event on <subject>.<action>.
func (np *NatsPublisher) Publish(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}

	subject := np.subject + "." + string(event.Action)
	if err := np.nc.Publish(subject, data); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}

	np.logger.Debugf("Published %s for template %s", subject, event.TemplateID)
	return nil
}

func (np *NatsPublisher) Close() {
	if err := np.nc.Drain(); err != nil {
		np.logger.Errorf("Failed to drain NATS connection: %v", err)
	}
}
