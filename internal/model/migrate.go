package model

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/SeakMengs/AutoSign/internal/constant"
	"github.com/SeakMengs/AutoSign/internal/util"
)

// Records written before schema versions existed carry attachments as data
// URLs and have no original PDF, activity log or timestamps.
type legacyAttachment struct {
	DataURL string `json:"dataUrl"`
}

type storedTemplate struct {
	SchemaVersion int                `json:"schemaVersion"`
	PDF           []byte             `json:"pdf"`
	Attachments   []legacyAttachment `json:"attachments"`
}

// DecodeTemplate parses a stored record and upgrades it to the current schema.
// The bool reports whether an upgrade happened.
func DecodeTemplate(data []byte) (*Template, bool, error) {
	var stored storedTemplate
	if err := json.Unmarshal(data, &stored); err != nil {
		return nil, false, err
	}

	var t Template
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, false, err
	}

	if stored.SchemaVersion > constant.TEMPLATE_SCHEMA_VERSION {
		return nil, false, fmt.Errorf("schema version %d is newer than supported version %d", stored.SchemaVersion, constant.TEMPLATE_SCHEMA_VERSION)
	}
	if stored.SchemaVersion == constant.TEMPLATE_SCHEMA_VERSION {
		return &t, false, nil
	}

	if stored.SchemaVersion < 1 {
		migrateToV1(&t, stored.PDF)
	}
	if stored.SchemaVersion < 2 {
		if err := migrateToV2(&t, stored.Attachments); err != nil {
			return nil, false, err
		}
	}

	t.SchemaVersion = constant.TEMPLATE_SCHEMA_VERSION
	return &t, true, nil
}

func migrateToV1(t *Template, pdf []byte) {
	if len(t.OriginalPDF) == 0 {
		t.OriginalPDF = pdf
	}
	if t.Status == "" {
		t.Status = constant.TemplateStatusSent
	}
	for i := range t.Recipients {
		if t.Recipients[i].Status == "" {
			t.Recipients[i].Status = constant.RecipientStatusPending
		}
	}
	if t.ActivityLog == nil {
		t.ActivityLog = []ActivityLogEntry{}
	}
}

func migrateToV2(t *Template, legacy []legacyAttachment) error {
	for i := range t.Attachments {
		if len(t.Attachments[i].Content) > 0 || i >= len(legacy) || legacy[i].DataURL == "" {
			continue
		}

		content, mimeType, err := util.DecodeDataURL(legacy[i].DataURL)
		if err != nil {
			return fmt.Errorf("attachment %s: %w", t.Attachments[i].ID, err)
		}
		t.Attachments[i].Content = content
		if t.Attachments[i].MimeType == "" {
			t.Attachments[i].MimeType = mimeType
		}
	}

	if t.CreatedAt.IsZero() {
		t.CreatedAt = CreatedAtFromKey(t.ID)
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = t.CreatedAt
	}
	return nil
}

// CreatedAtFromKey recovers the creation time encoded in template-<millis>.
func CreatedAtFromKey(id string) time.Time {
	millis, err := strconv.ParseInt(strings.TrimPrefix(id, constant.TEMPLATE_KEY_PREFIX), 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.UnixMilli(millis).UTC()
}
