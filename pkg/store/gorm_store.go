package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"paintcode/pkg/domain"
)

type conversationModel struct {
	ID        string `gorm:"primaryKey;size:32"`
	Preview   string
	Stage     string         `gorm:"size:40"`
	Facts     datatypes.JSON `gorm:"type:jsonb"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (conversationModel) TableName() string { return "conversations" }

type messageModel struct {
	ID             string `gorm:"primaryKey;size:32"`
	ConversationID string `gorm:"index;size:32"`
	Role           string `gorm:"size:16"`
	Content        string
	CreatedAt      time.Time
}

func (messageModel) TableName() string { return "messages" }

// GormStore is the Postgres-backed ConversationStore.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the database and migrates the schema.
func NewGormStore(dsn string) (*GormStore, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if err := db.AutoMigrate(&conversationModel{}, &messageModel{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}
	return &GormStore{db: db}, nil
}

func toModel(conv domain.Conversation) (conversationModel, error) {
	facts, err := json.Marshal(conv.Facts)
	if err != nil {
		return conversationModel{}, fmt.Errorf("encode facts: %w", err)
	}
	return conversationModel{
		ID:        conv.ID,
		Preview:   conv.Preview,
		Stage:     conv.Stage,
		Facts:     facts,
		CreatedAt: conv.CreatedAt,
		UpdatedAt: conv.UpdatedAt,
	}, nil
}

func fromModel(m conversationModel) (domain.Conversation, error) {
	conv := domain.Conversation{
		ID:        m.ID,
		Preview:   m.Preview,
		Stage:     m.Stage,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
	if len(m.Facts) > 0 {
		if err := json.Unmarshal(m.Facts, &conv.Facts); err != nil {
			return domain.Conversation{}, fmt.Errorf("decode facts for %s: %w", m.ID, err)
		}
	}
	return conv, nil
}

func (s *GormStore) Create(ctx context.Context, conv domain.Conversation) error {
	m, err := toModel(conv)
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Create(&m).Error
}

func (s *GormStore) Get(ctx context.Context, id string) (domain.Conversation, error) {
	var m conversationModel
	err := s.db.WithContext(ctx).First(&m, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.Conversation{}, ErrNotFound
	}
	if err != nil {
		return domain.Conversation{}, err
	}
	return fromModel(m)
}

func (s *GormStore) Update(ctx context.Context, conv domain.Conversation) error {
	m, err := toModel(conv)
	if err != nil {
		return err
	}
	res := s.db.WithContext(ctx).Model(&conversationModel{ID: m.ID}).
		Select("preview", "stage", "facts", "updated_at").
		Updates(map[string]any{
			"preview":    m.Preview,
			"stage":      m.Stage,
			"facts":      m.Facts,
			"updated_at": m.UpdatedAt,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *GormStore) List(ctx context.Context, limit int) ([]domain.Conversation, error) {
	q := s.db.WithContext(ctx).Order("updated_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var models []conversationModel
	if err := q.Find(&models).Error; err != nil {
		return nil, err
	}
	out := make([]domain.Conversation, 0, len(models))
	for _, m := range models {
		conv, err := fromModel(m)
		if err != nil {
			return nil, err
		}
		out = append(out, conv)
	}
	return out, nil
}

func (s *GormStore) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Delete(&conversationModel{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Delete(&messageModel{}, "conversation_id = ?", id).Error
	})
}

func (s *GormStore) AppendMessage(ctx context.Context, msg domain.Message) error {
	m := messageModel{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		Role:           msg.Role,
		Content:        msg.Content,
		CreatedAt:      msg.CreatedAt,
	}
	return s.db.WithContext(ctx).Create(&m).Error
}

func (s *GormStore) Messages(ctx context.Context, conversationID string) ([]domain.Message, error) {
	var models []messageModel
	err := s.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}
	out := make([]domain.Message, 0, len(models))
	for _, m := range models {
		out = append(out, domain.Message{
			ID:             m.ID,
			ConversationID: m.ConversationID,
			Role:           m.Role,
			Content:        m.Content,
			CreatedAt:      m.CreatedAt,
		})
	}
	return out, nil
}

var _ ConversationStore = (*GormStore)(nil)
var _ ConversationStore = (*MemoryStore)(nil)
