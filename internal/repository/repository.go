package repository

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

var (
	ErrNotFound = errors.New("record not found")
	// A stored value that can no longer be decoded into a template.
	ErrCorruptRecord = errors.New("corrupt record")
	// The backing store cannot hold a value this large.
	ErrTooLarge = errors.New("record too large for the store")
)

type Entry struct {
	Key   string
	Value string
}

// Store is a string keyed persistence backend.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Put(ctx context.Context, key, value string) error
	// List returns every entry whose key starts with prefix, in no
	// particular order.
	List(ctx context.Context, prefix string) ([]Entry, error)
	Delete(ctx context.Context, key string) error
}

type baseRepository struct {
	store  Store
	logger *zap.SugaredLogger
}

type Repository struct {
	Store    Store
	Template *TemplateRepository
}

func newBaseRepository(store Store, logger *zap.SugaredLogger) *baseRepository {
	return &baseRepository{store: store, logger: logger}
}

func NewRepository(store Store, logger *zap.SugaredLogger) *Repository {
	br := newBaseRepository(store, logger)

	return &Repository{
		Store:    store,
		Template: &TemplateRepository{baseRepository: br},
	}
}
