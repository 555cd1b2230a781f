package repository

import (
	"database/sql"
	"errors"

	"enact/internal/models"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type ConversationRepository interface {
	CreateConversation(conv *models.Conversation) error
	GetConversationByID(id string, userID int64) (*models.Conversation, error)
	ListConversations(userID int64, limit, offset int) ([]*models.Conversation, error)
	UpdateTitle(id string, userID int64, title string) error
	UpdatePinned(id string, userID int64, pinned bool) error
	TouchConversation(id string) error
	DeleteConversation(id string, userID int64) error
}

type conversationRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewConversationRepository(db *sqlx.DB, logger *zap.Logger) ConversationRepository {
	return &conversationRepository{db: db, logger: logger}
}

const defaultConversationTitle = "New Legal Consultation"

func (r *conversationRepository) CreateConversation(conv *models.Conversation) error {
	if conv.Title == "" {
		conv.Title = defaultConversationTitle
	}
	query := `INSERT INTO conversations (id, user_id, title, is_pinned)
	          VALUES ($1, $2, $3, $4) RETURNING id, user_id, title, is_pinned, created_at, updated_at`
	return r.db.QueryRowx(query, conv.ID, conv.UserID, conv.Title, conv.IsPinned).StructScan(conv)
}

func (r *conversationRepository) GetConversationByID(id string, userID int64) (*models.Conversation, error) {
	var conv models.Conversation
	query := `SELECT id, user_id, title, is_pinned, created_at, updated_at FROM conversations WHERE id = $1 AND user_id = $2`
	err := r.db.Get(&conv, query, id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil // Conversation not found
		}
		return nil, err
	}
	return &conv, nil
}

func (r *conversationRepository) ListConversations(userID int64, limit, offset int) ([]*models.Conversation, error) {
	var convs []*models.Conversation
	query := `
		SELECT
			c.id,
			c.user_id,
			c.title,
			c.is_pinned,
			c.created_at,
			c.updated_at,
			COALESCE(COUNT(m.id), 0) AS message_count
		FROM conversations c
		LEFT JOIN messages m ON c.id = m.conversation_id
		WHERE c.user_id = $1
		GROUP BY c.id
		ORDER BY c.is_pinned DESC, c.updated_at DESC
		LIMIT $2 OFFSET $3
	`
	err := r.db.Select(&convs, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return convs, nil
}

// UpdateTitle renames the conversation. updated_at only moves forward.
func (r *conversationRepository) UpdateTitle(id string, userID int64, title string) error {
	query := `UPDATE conversations SET title = $1, updated_at = GREATEST(updated_at, now()) WHERE id = $2 AND user_id = $3`
	return r.execOwned(query, title, id, userID)
}

func (r *conversationRepository) UpdatePinned(id string, userID int64, pinned bool) error {
	query := `UPDATE conversations SET is_pinned = $1, updated_at = GREATEST(updated_at, now()) WHERE id = $2 AND user_id = $3`
	return r.execOwned(query, pinned, id, userID)
}

// TouchConversation bumps updated_at after a message mutation.
func (r *conversationRepository) TouchConversation(id string) error {
	query := `UPDATE conversations SET updated_at = GREATEST(updated_at, now()) WHERE id = $1`
	_, err := r.db.Exec(query, id)
	return err
}

func (r *conversationRepository) DeleteConversation(id string, userID int64) error {
	query := `DELETE FROM conversations WHERE id = $1 AND user_id = $2`
	result, err := r.db.Exec(query, id, userID)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotOwned
	}
	return nil
}

func (r *conversationRepository) execOwned(query string, args ...interface{}) error {
	result, err := r.db.Exec(query, args...)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrNotOwned
	}
	return nil
}

// ErrNotOwned is returned when a mutation targets a conversation that does not
// exist or belongs to another user.
var ErrNotOwned = errors.New("conversation not found")
