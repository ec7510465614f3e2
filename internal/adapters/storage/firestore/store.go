package firestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/PabloGalante/jarvis-hud/internal/domain"
)

type Store struct {
	client *firestore.Client
}

// NewStore creates a Firestore store.
// Uses the project passed (JARVIS_GCP_PROJECT).
func NewStore(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// ─────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────

func (s *Store) conversationsCol() *firestore.CollectionRef {
	return s.client.Collection("conversations")
}

func (s *Store) conversationDoc(id domain.ConversationID) *firestore.DocumentRef {
	return s.conversationsCol().Doc(string(id))
}

func (s *Store) messagesCol(id domain.ConversationID) *firestore.CollectionRef {
	return s.conversationDoc(id).Collection("messages")
}

func (s *Store) settingsDoc(userID domain.UserID) *firestore.DocumentRef {
	return s.client.Collection("user_settings").Doc(string(userID))
}

func notFound(err error) bool {
	return status.Code(err) == codes.NotFound
}

// ─────────────────────────────────────────
// Firestore Types
// ─────────────────────────────────────────

type conversationDoc struct {
	UserID    string    `firestore:"user_id"`
	Title     string    `firestore:"title"`
	CreatedAt time.Time `firestore:"created_at"`
	UpdatedAt time.Time `firestore:"updated_at"`
}

type messageDoc struct {
	ConversationID string    `firestore:"conversation_id"`
	Role           string    `firestore:"role"`
	Content        string    `firestore:"content"`
	CreatedAt      time.Time `firestore:"created_at"`
}

type settingsDoc struct {
	Personality  personalityDoc `firestore:"personality"`
	VoiceEnabled bool           `firestore:"voice_enabled"`
	AutoSpeak    bool           `firestore:"auto_speak"`
	SpeechRate   float64        `firestore:"speech_rate"`
	Suit         string         `firestore:"suit"`
	UpdatedAt    time.Time      `firestore:"updated_at"`
}

type personalityDoc struct {
	Formality        int    `firestore:"formality"`
	Wit              int    `firestore:"wit"`
	Verbosity        int    `firestore:"verbosity"`
	TechnicalLevel   int    `firestore:"technical_level"`
	AddressStyle     string `firestore:"address_style"`
	AccentStyle      string `firestore:"accent_style"`
	EnableHumor      bool   `firestore:"enable_humor"`
	EnableReferences bool   `firestore:"enable_references"`
	CustomGreeting   string `firestore:"custom_greeting"`
	CustomSignoff    string `firestore:"custom_signoff"`
}

func toConversation(id string, doc conversationDoc) *domain.Conversation {
	return &domain.Conversation{
		ID:        domain.ConversationID(id),
		UserID:    domain.UserID(doc.UserID),
		Title:     doc.Title,
		CreatedAt: doc.CreatedAt,
		UpdatedAt: doc.UpdatedAt,
	}
}

// ─────────────────────────────────────────
// ConversationStore implementation
// ─────────────────────────────────────────

func (s *Store) CreateConversation(ctx context.Context, conv *domain.Conversation) error {
	doc := conversationDoc{
		UserID:    string(conv.UserID),
		Title:     conv.Title,
		CreatedAt: conv.CreatedAt,
		UpdatedAt: conv.UpdatedAt,
	}

	_, err := s.conversationDoc(conv.ID).Create(ctx, doc)
	if err != nil {
		return fmt.Errorf("firestore CreateConversation: %w", err)
	}
	return nil
}

func (s *Store) UpdateConversation(ctx context.Context, conv *domain.Conversation) error {
	_, err := s.conversationDoc(conv.ID).Update(ctx, []firestore.Update{
		{Path: "title", Value: conv.Title},
		{Path: "updated_at", Value: conv.UpdatedAt},
	})
	if err != nil {
		if notFound(err) {
			return fmt.Errorf("conversation %s: %w", conv.ID, domain.ErrNotFound)
		}
		return fmt.Errorf("firestore UpdateConversation: %w", err)
	}
	return nil
}

func (s *Store) GetConversation(ctx context.Context, id domain.ConversationID) (*domain.Conversation, error) {
	snap, err := s.conversationDoc(id).Get(ctx)
	if err != nil {
		if notFound(err) {
			return nil, fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("firestore GetConversation: %w", err)
	}

	var doc conversationDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore GetConversation decode: %w", err)
	}

	return toConversation(snap.Ref.ID, doc), nil
}

func (s *Store) ListConversationsByUser(ctx context.Context, userID domain.UserID, limit int) ([]*domain.Conversation, error) {
	q := s.conversationsCol().Where("user_id", "==", string(userID)).OrderBy("updated_at", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	out := []*domain.Conversation{}
	for {
		snap, err := iter.Next()
		if err != nil {
			if errors.Is(err, iterator.Done) {
				break
			}
			return nil, fmt.Errorf("firestore ListConversationsByUser: %w", err)
		}

		var doc conversationDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode conversationDoc: %w", err)
		}

		out = append(out, toConversation(snap.Ref.ID, doc))
	}
	return out, nil
}

func (s *Store) DeleteConversation(ctx context.Context, id domain.ConversationID) error {
	_, err := s.conversationDoc(id).Delete(ctx, firestore.Exists)
	if err != nil {
		if notFound(err) {
			return fmt.Errorf("conversation %s: %w", id, domain.ErrNotFound)
		}
		return fmt.Errorf("firestore DeleteConversation: %w", err)
	}
	return nil
}

// ─────────────────────────────────────────
// MessageStore implementation
// ─────────────────────────────────────────

func (s *Store) AppendMessage(ctx context.Context, msg *domain.Message) error {
	doc := messageDoc{
		ConversationID: string(msg.ConversationID),
		Role:           string(msg.Role),
		Content:        msg.Content,
		CreatedAt:      msg.CreatedAt,
	}

	_, err := s.messagesCol(msg.ConversationID).Doc(string(msg.ID)).Set(ctx, doc)
	if err != nil {
		return fmt.Errorf("firestore AppendMessage: %w", err)
	}
	return nil
}

func (s *Store) GetMessagesByConversation(ctx context.Context, id domain.ConversationID, limit int) ([]*domain.Message, error) {
	q := s.messagesCol(id).OrderBy("created_at", firestore.Asc)
	if limit > 0 {
		q = q.LimitToLast(limit)
	}

	docs, err := q.Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("firestore GetMessagesByConversation: %w", err)
	}

	out := make([]*domain.Message, 0, len(docs))
	for _, snap := range docs {
		var doc messageDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode messageDoc: %w", err)
		}

		out = append(out, &domain.Message{
			ID:             domain.MessageID(snap.Ref.ID),
			ConversationID: id,
			Role:           domain.Role(doc.Role),
			Content:        doc.Content,
			CreatedAt:      doc.CreatedAt,
		})
	}
	return out, nil
}

// DeleteMessagesByConversation removes the messages subcollection.
// Firestore does not cascade deletes to subcollections.
func (s *Store) DeleteMessagesByConversation(ctx context.Context, id domain.ConversationID) error {
	refs, err := s.messagesCol(id).DocumentRefs(ctx).GetAll()
	if err != nil {
		return fmt.Errorf("firestore list messages: %w", err)
	}
	if len(refs) == 0 {
		return nil
	}

	bw := s.client.BulkWriter(ctx)
	jobs := make([]*firestore.BulkWriterJob, 0, len(refs))
	for _, ref := range refs {
		job, err := bw.Delete(ref)
		if err != nil {
			bw.End()
			return fmt.Errorf("firestore enqueue delete: %w", err)
		}
		jobs = append(jobs, job)
	}
	bw.End()

	for _, job := range jobs {
		if _, err := job.Results(); err != nil {
			return fmt.Errorf("firestore DeleteMessagesByConversation: %w", err)
		}
	}
	return nil
}

// ─────────────────────────────────────────
// SettingsStore implementation
// ─────────────────────────────────────────

func (s *Store) GetSettings(ctx context.Context, userID domain.UserID) (*domain.UserSettings, error) {
	snap, err := s.settingsDoc(userID).Get(ctx)
	if err != nil {
		if notFound(err) {
			return nil, fmt.Errorf("settings for %s: %w", userID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("firestore GetSettings: %w", err)
	}

	var doc settingsDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore GetSettings decode: %w", err)
	}

	p := doc.Personality
	return &domain.UserSettings{
		UserID: userID,
		Personality: domain.PersonalityConfig{
			Formality:        p.Formality,
			Wit:              p.Wit,
			Verbosity:        p.Verbosity,
			TechnicalLevel:   p.TechnicalLevel,
			AddressStyle:     domain.AddressStyle(p.AddressStyle),
			AccentStyle:      domain.AccentStyle(p.AccentStyle),
			EnableHumor:      p.EnableHumor,
			EnableReferences: p.EnableReferences,
			CustomGreeting:   p.CustomGreeting,
			CustomSignoff:    p.CustomSignoff,
		},
		VoiceEnabled: doc.VoiceEnabled,
		AutoSpeak:    doc.AutoSpeak,
		SpeechRate:   doc.SpeechRate,
		Suit:         doc.Suit,
		UpdatedAt:    doc.UpdatedAt,
	}, nil
}

func (s *Store) SaveSettings(ctx context.Context, st *domain.UserSettings) error {
	p := st.Personality
	doc := settingsDoc{
		Personality: personalityDoc{
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
		},
		VoiceEnabled: st.VoiceEnabled,
		AutoSpeak:    st.AutoSpeak,
		SpeechRate:   st.SpeechRate,
		Suit:         st.Suit,
		UpdatedAt:    st.UpdatedAt,
	}

	if _, err := s.settingsDoc(st.UserID).Set(ctx, doc); err != nil {
		return fmt.Errorf("firestore SaveSettings: %w", err)
	}
	return nil
}
