package notifier

import (
	"context"
	"time"

	"github.com/SeakMengs/AutoSign/internal/constant"
)

// Event mirrors an activity log entry for out-of-process consumers.
type Event struct {
	TemplateID  string                  `json:"templateId"`
	RecipientID string                  `json:"recipientId,omitempty"`
	Action      constant.ActivityAction `json:"action"`
	Status      constant.TemplateStatus `json:"status"`
	Message     string                  `json:"message"`
	Timestamp   time.Time               `json:"timestamp"`
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close()
}

// NoopPublisher is used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, event Event) error { return nil }
func (NoopPublisher) Close()                                         {}
