package sqlstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/PabloGalante/jarvis-hud/internal/domain"
)

// Store persists conversations, messages and settings in a relational
// database through gorm. It implements ConversationStore, MessageStore and
// SettingsStore.
type Store struct {
	db *gorm.DB
}

// Open connects to Postgres and migrates the schema.
func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Warn)})
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	return New(db)
}

// New wraps an existing connection and migrates the schema.
func New(db *gorm.DB) (*Store, error) {
	if err := db.AutoMigrate(&conversationRow{}, &messageRow{}, &settingsRow{}); err != nil {
		return nil, fmt.Errorf("migrating schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

type conversationRow struct {
	ID        string `gorm:"primaryKey;size:64"`
	UserID    string `gorm:"size:128;index:idx_conversations_user_updated,priority:1"`
	Title     string
	CreatedAt time.Time
	UpdatedAt time.Time `gorm:"index:idx_conversations_user_updated,priority:2"`
}

func (conversationRow) TableName() string { return "conversations" }

type messageRow struct {
	Seq            uint   `gorm:"primaryKey;autoIncrement"`
	ID             string `gorm:"uniqueIndex;size:64"`
	ConversationID string `gorm:"size:64;index"`
	Role           string `gorm:"size:16"`
	Content        string
	CreatedAt      time.Time
}

func (messageRow) TableName() string { return "messages" }

type settingsRow struct {
	UserID           string `gorm:"primaryKey;size:128"`
	Formality        int
	Wit              int
	Verbosity        int
	TechnicalLevel   int
	AddressStyle     string `gorm:"size:16"`
	AccentStyle      string `gorm:"size:16"`
	EnableHumor      bool
	EnableReferences bool
	CustomGreeting   string
	CustomSignoff    string
	VoiceEnabled     bool
	AutoSpeak        bool
	SpeechRate       float64
	Suit             string `gorm:"size:32"`
	UpdatedAt        time.Time
}

func (settingsRow) TableName() string { return "user_settings" }

func (r conversationRow) toDomain() *domain.Conversation {
	return &domain.Conversation{
		ID:        domain.ConversationID(r.ID),
		UserID:    domain.UserID(r.UserID),
		Title:     r.Title,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// ─────────────────────────────────────────
// ConversationStore implementation
// ─────────────────────────────────────────

func (s *Store) CreateConversation(ctx context.Context, conv *domain.Conversation) error {
	row := conversationRow{
		ID:        string(conv.ID),
		UserID:    string(conv.UserID),
		Title:     conv.Title,
		CreatedAt: conv.CreatedAt,
		UpdatedAt: conv.UpdatedAt,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("sql CreateConversation: %w", err)
	}
	return nil
}

func (s *Store) UpdateConversation(ctx context.Context, conv *domain.Conversation) error {
	res := s.db.WithContext(ctx).Model(&conversationRow{}).
		Where("id = ?", string(conv.ID)).
		Updates(map[string]any{"title": conv.Title, "updated_at": conv.UpdatedAt})
	if res.Error != nil {
		return fmt.Errorf("sql UpdateConversation: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("conversation %s: %w", conv.ID, domain.ErrNotFound)
	}
	return nil
}

func (s *Store) GetConversation(ctx context.Context, id domain.ConversationID) (*domain.Conversation, error) {
	var row conversationRow
	err := s.db.WithContext(ctx).Where("id = ?", string(id)).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("sql GetConversation: %w", err)
	}
	return row.toDomain(), nil
}

func (s *Store) ListConversationsByUser(ctx context.Context, userID domain.UserID, limit int) ([]*domain.Conversation, error) {
	q := s.db.WithContext(ctx).
		Where("user_id = ?", string(userID)).
		Order("updated_at DESC").
		Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var rows []conversationRow
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("sql ListConversationsByUser: %w", err)
	}

	out := make([]*domain.Conversation, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *Store) DeleteConversation(ctx context.Context, id domain.ConversationID) error {
	res := s.db.WithContext(ctx).Where("id = ?", string(id)).Delete(&conversationRow{})
	if res.Error != nil {
		return fmt.Errorf("sql DeleteConversation: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// ─────────────────────────────────────────
// MessageStore implementation
// ─────────────────────────────────────────

func (s *Store) AppendMessage(ctx context.Context, msg *domain.Message) error {
	row := messageRow{
		ID:             string(msg.ID),
		ConversationID: string(msg.ConversationID),
		Role:           string(msg.Role),
		Content:        msg.Content,
		CreatedAt:      msg.CreatedAt,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("sql AppendMessage: %w", err)
	}
	return nil
}

// GetMessagesByConversation returns the last `limit` messages in insertion
// order. Seq breaks ties between messages created in the same instant.
func (s *Store) GetMessagesByConversation(ctx context.Context, id domain.ConversationID, limit int) ([]*domain.Message, error) {
	var rows []messageRow
	q := s.db.WithContext(ctx).Where("conversation_id = ?", string(id))
	if limit > 0 {
		q = q.Order("seq DESC").Limit(limit)
	} else {
		q = q.Order("seq ASC")
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("sql GetMessagesByConversation: %w", err)
	}

	if limit > 0 {
		for i, j := 0, len(rows)-1; i < j; i, j = i+1, j-1 {
			rows[i], rows[j] = rows[j], rows[i]
		}
	}

	out := make([]*domain.Message, 0, len(rows))
	for _, r := range rows {
		out = append(out, &domain.Message{
			ID:             domain.MessageID(r.ID),
			ConversationID: domain.ConversationID(r.ConversationID),
			Role:           domain.Role(r.Role),
			Content:        r.Content,
			CreatedAt:      r.CreatedAt,
		})
	}
	return out, nil
}

func (s *Store) DeleteMessagesByConversation(ctx context.Context, id domain.ConversationID) error {
	err := s.db.WithContext(ctx).Where("conversation_id = ?", string(id)).Delete(&messageRow{}).Error
	if err != nil {
		return fmt.Errorf("sql DeleteMessagesByConversation: %w", err)
	}
	return nil
}

// ─────────────────────────────────────────
// SettingsStore implementation
// ─────────────────────────────────────────

func (s *Store) GetSettings(ctx context.Context, userID domain.UserID) (*domain.UserSettings, error) {
	var row settingsRow
	err := s.db.WithContext(ctx).Where("user_id = ?", string(userID)).First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("settings for %s: %w", userID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("sql GetSettings: %w", err)
	}

	return &domain.UserSettings{
		UserID: userID,
		Personality: domain.PersonalityConfig{
			Formality:        row.Formality,
			Wit:              row.Wit,
			Verbosity:        row.Verbosity,
			TechnicalLevel:   row.TechnicalLevel,
			AddressStyle:     domain.AddressStyle(row.AddressStyle),
			AccentStyle:      domain.AccentStyle(row.AccentStyle),
			EnableHumor:      row.EnableHumor,
			EnableReferences: row.EnableReferences,
			CustomGreeting:   row.CustomGreeting,
			CustomSignoff:    row.CustomSignoff,
		},
		VoiceEnabled: row.VoiceEnabled,
		AutoSpeak:    row.AutoSpeak,
		SpeechRate:   row.SpeechRate,
		Suit:         row.Suit,
		UpdatedAt:    row.UpdatedAt,
	}, nil
}

func (s *Store) SaveSettings(ctx context.Context, st *domain.UserSettings) error {
	p := st.Personality
	row := settingsRow{
		UserID:           string(st.UserID),
		Formality:        p.Formality,
		Wit:              p.Wit,
		Verbosity:        p.Verbosity,
		TechnicalLevel:   p.TechnicalLevel,
		AddressStyle:     string(p.AddressStyle),
		AccentStyle:      string(p.AccentStyle),
		EnableHumor:      p.EnableHumor,
		EnableReferences: p.EnableReferences,
		CustomGreeting:   p.CustomGreeting,
		CustomSignoff:    p.CustomSignoff,
		VoiceEnabled:     st.VoiceEnabled,
		AutoSpeak:        st.AutoSpeak,
		SpeechRate:       st.SpeechRate,
		Suit:             st.Suit,
		UpdatedAt:        st.UpdatedAt,
	}

	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		UpdateAll: true,
	}).Create(&row).Error
	if err != nil {
		return fmt.Errorf("sql SaveSettings: %w", err)
	}
	return nil
}
