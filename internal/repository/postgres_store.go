package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	constant "github.com/SeakMengs/AutoSign/internal/constant"
	"github.com/SeakMengs/AutoSign/internal/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostgresStore keeps entries in the key_values table.
type PostgresStore struct {
	db     *gorm.DB
	logger *zap.SugaredLogger
}

func NewPostgresStore(db *gorm.DB, logger *zap.SugaredLogger) *PostgresStore {
	return &PostgresStore{db: db, logger: logger}
}

func (ps PostgresStore) Get(ctx context.Context, key string) (string, error) {
	ps.logger.Debugf("Get key value by key: %s", key)

	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var kv model.KeyValue
	if err := ps.db.WithContext(ctx).Model(&model.KeyValue{}).Where(&model.KeyValue{Key: key}).First(&kv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}

	return kv.Value, nil
}

func (ps PostgresStore) Put(ctx context.Context, key, value string) error {
	ps.logger.Debugf("Put key value with key: %s", key)

	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	now := time.Now()
	return ps.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&model.KeyValue{
		Key:       key,
		Value:     value,
		CreatedAt: &now,
		UpdatedAt: &now,
	}).Error
}

func (ps PostgresStore) List(ctx context.Context, prefix string) ([]Entry, error) {
	ps.logger.Debugf("List key values by prefix: %s", prefix)

	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	var rows []model.KeyValue
	if err := ps.db.WithContext(ctx).Model(&model.KeyValue{}).Where("key LIKE ? ESCAPE '\\'", escapeLike(prefix)+"%").Find(&rows).Error; err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, Entry{Key: row.Key, Value: row.Value})
	}
	return entries, nil
}

func (ps PostgresStore) Delete(ctx context.Context, key string) error {
	ps.logger.Debugf("Delete key value by key: %s", key)

	ctx, cancel := context.WithTimeout(ctx, constant.QUERY_TIMEOUT_DURATION)
	defer cancel()

	return ps.db.WithContext(ctx).Where(&model.KeyValue{Key: key}).Delete(&model.KeyValue{}).Error
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
