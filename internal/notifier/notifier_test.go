package notifier

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/SeakMengs/AutoSign/internal/constant"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoopPublisher(t *testing.T) {
	var p Publisher = NoopPublisher{}
	assert.NoError(t, p.Publish(context.Background(), Event{TemplateID: "template-1"}))
	p.Close()
}

func TestEventEncoding(t *testing.T) {
	at := time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC)
	data, err := json.Marshal(Event{
		TemplateID: "template-1",
		Action:     constant.ActivitySigned,
		Status:     constant.TemplateStatusSent,
		Message:    "Ada signed the document.",
		Timestamp:  at,
	})
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"templateId": "template-1",
		"action": "signed",
		"status": "Sent",
		"message": "Ada signed the document.",
		"timestamp": "2024-03-01T09:30:00Z"
	}`, string(data))
}
