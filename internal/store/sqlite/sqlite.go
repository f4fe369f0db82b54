package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"myshop/backend/internal/store"
)

type documentRow struct {
	Collection string `gorm:"primaryKey;size:64"`
	ID         string `gorm:"primaryKey;size:128"`
	Data       string `gorm:"type:text;not null"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (documentRow) TableName() string { return "documents" }

// Store is a single-file document store for one-till installs. Queries load
// the collection and evaluate filters in process.
type Store struct {
	db *gorm.DB
}

func New(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Migrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&documentRow{})
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) Create(ctx context.Context, collection string, id string, fields map[string]any) (store.Document, error) {
	if strings.TrimSpace(id) == "" {
		return store.Document{}, fmt.Errorf("document id is required")
	}
	payload, err := json.Marshal(store.CloneData(fields))
	if err != nil {
		return store.Document{}, err
	}
	row := documentRow{Collection: collection, ID: id, Data: string(payload)}
	err = s.db.WithContext(ctx).Create(&row).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return store.Document{}, fmt.Errorf("%s/%s: %w", collection, id, store.ErrDuplicateID)
	}
	if err != nil {
		return store.Document{}, err
	}
	return toDocument(row)
}

func (s *Store) Get(ctx context.Context, collection string, id string) (store.Document, error) {
	var row documentRow
	err := s.db.WithContext(ctx).Where("collection = ? AND id = ?", collection, id).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.Document{}, fmt.Errorf("%s/%s: %w", collection, id, store.ErrNotFound)
	}
	if err != nil {
		return store.Document{}, err
	}
	return toDocument(row)
}

func (s *Store) Update(ctx context.Context, collection string, id string, fields map[string]any) (store.Document, error) {
	var updated store.Document
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row documentRow
		if err := tx.Where("collection = ? AND id = ?", collection, id).First(&row).Error; err != nil {
			return err
		}
		current, err := toDocument(row)
		if err != nil {
			return err
		}
		payload, err := json.Marshal(store.Merge(current.Data, fields))
		if err != nil {
			return err
		}
		row.Data = string(payload)
		if err := tx.Save(&row).Error; err != nil {
			return err
		}
		updated, err = toDocument(row)
		return err
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.Document{}, fmt.Errorf("%s/%s: %w", collection, id, store.ErrNotFound)
	}
	return updated, err
}

func (s *Store) Delete(ctx context.Context, collection string, id string) error {
	res := s.db.WithContext(ctx).Where("collection = ? AND id = ?", collection, id).Delete(&documentRow{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s/%s: %w", collection, id, store.ErrNotFound)
	}
	return nil
}

func (s *Store) List(ctx context.Context, collection string, q store.Query) (store.Page, error) {
	var rows []documentRow
	if err := s.db.WithContext(ctx).Where("collection = ?", collection).Order("id").Find(&rows).Error; err != nil {
		return store.Page{}, err
	}
	docs := make([]store.Document, 0, len(rows))
	for _, row := range rows {
		doc, err := toDocument(row)
		if err != nil {
			return store.Page{}, err
		}
		docs = append(docs, doc)
	}
	return store.Apply(docs, q)
}

func toDocument(row documentRow) (store.Document, error) {
	doc := store.Document{ID: row.ID, CreatedAt: row.CreatedAt, UpdatedAt: row.UpdatedAt}
	if err := json.Unmarshal([]byte(row.Data), &doc.Data); err != nil {
		return store.Document{}, fmt.Errorf("decode document %s/%s: %w", row.Collection, row.ID, err)
	}
	if doc.Data == nil {
		doc.Data = map[string]any{}
	}
	return doc, nil
}
