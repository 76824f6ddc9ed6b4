package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	constant "github.com/SeakMengs/AutoSign/internal/constant"
	"github.com/SeakMengs/AutoSign/internal/model"
)

type TemplateRepository struct {
	*baseRepository
}

// NewID returns template-<epoch millis>, bumped until the key is free.
func (tr TemplateRepository) NewID(ctx context.Context, now time.Time) (string, error) {
	millis := now.UnixMilli()
	for {
		id := constant.TEMPLATE_KEY_PREFIX + strconv.FormatInt(millis, 10)
		_, err := tr.store.Get(ctx, id)
		if errors.Is(err, ErrNotFound) {
			return id, nil
		}
		if err != nil {
			return "", err
		}
		millis++
	}
}

func (tr TemplateRepository) GetById(ctx context.Context, templateId string) (*model.Template, error) {
	tr.logger.Debugf("Get template by id: %s", templateId)

	raw, err := tr.store.Get(ctx, templateId)
	if err != nil {
		return nil, err
	}

	t, migrated, err := model.DecodeTemplate([]byte(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrCorruptRecord, templateId, err)
	}
	if migrated {
		tr.logger.Infof("Template %s upgraded to schema version %d", templateId, t.SchemaVersion)
	}
	if t.ID == "" {
		t.ID = templateId
	}

	return t, nil
}

func (tr TemplateRepository) Save(ctx context.Context, t *model.Template) error {
	tr.logger.Debugf("Save template: %s, status: %s", t.ID, t.Status)

	t.SchemaVersion = constant.TEMPLATE_SCHEMA_VERSION

	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to encode template %s: %w", t.ID, err)
	}

	return tr.store.Put(ctx, t.ID, string(data))
}

// List returns every readable template, newest first. Records that fail to
// decode are logged and skipped.
func (tr TemplateRepository) List(ctx context.Context) ([]*model.Template, error) {
	tr.logger.Debugf("List templates")

	entries, err := tr.store.List(ctx, constant.TEMPLATE_KEY_PREFIX)
	if err != nil {
		return nil, err
	}

	templates := make([]*model.Template, 0, len(entries))
	for _, e := range entries {
		t, _, err := model.DecodeTemplate([]byte(e.Value))
		if err != nil {
			tr.logger.Errorf("Skipping template %s: %v", e.Key, fmt.Errorf("%w: %v", ErrCorruptRecord, err))
			continue
		}
		if t.ID == "" {
			t.ID = e.Key
		}
		templates = append(templates, t)
	}

	sort.SliceStable(templates, func(i, j int) bool {
		return keyAfter(templates[i].ID, templates[j].ID)
	})

	return templates, nil
}

func (tr TemplateRepository) Delete(ctx context.Context, templateId string) error {
	tr.logger.Debugf("Delete template by id: %s", templateId)

	if _, err := tr.store.Get(ctx, templateId); err != nil {
		return err
	}

	return tr.store.Delete(ctx, templateId)
}

// DeleteAll removes every template key, corrupt ones included.
func (tr TemplateRepository) DeleteAll(ctx context.Context) (int, error) {
	tr.logger.Debugf("Delete all templates")

	entries, err := tr.store.List(ctx, constant.TEMPLATE_KEY_PREFIX)
	if err != nil {
		return 0, err
	}

	deleted := 0
	for _, e := range entries {
		if err := tr.store.Delete(ctx, e.Key); err != nil {
			return deleted, err
		}
		deleted++
	}

	return deleted, nil
}

// keyAfter orders template-<millis> keys numerically, falling back to a plain
// string comparison for anything else.
func keyAfter(a, b string) bool {
	ma := model.CreatedAtFromKey(a)
	mb := model.CreatedAtFromKey(b)
	if !ma.IsZero() && !mb.IsZero() && !ma.Equal(mb) {
		return ma.After(mb)
	}
	return a > b
}
