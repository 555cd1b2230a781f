package repository

import (
	"database/sql"
	"errors"

	"enact/internal/models"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

type MessageRepository interface {
	SaveMessage(msg *models.Message) error
	GetMessageByID(id string) (*models.Message, error)
	ListMessages(conversationID string, limit, offset int) ([]*models.Message, error)
	ListRecentMessages(conversationID string, limit int) ([]*models.Message, error)
	UpdateContent(id, conversationID, content string) error
	DeleteMessage(id, conversationID string) error
}

type messageRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

func NewMessageRepository(db *sqlx.DB, logger *zap.Logger) MessageRepository {
	return &messageRepository{db: db, logger: logger}
}

func (r *messageRepository) SaveMessage(msg *models.Message) error {
	query := `INSERT INTO messages (id, conversation_id, role, content, language, edited)
	          VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, conversation_id, role, content, language, edited, created_at`
	return r.db.QueryRowx(query, msg.ID, msg.ConversationID, msg.Role, msg.Content, msg.Language, msg.Edited).StructScan(msg)
}

func (r *messageRepository) GetMessageByID(id string) (*models.Message, error) {
	var msg models.Message
	query := `SELECT id, conversation_id, role, content, language, edited, created_at FROM messages WHERE id = $1`
	err := r.db.Get(&msg, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &msg, nil
}

// ListMessages returns messages in chronological (insertion) order.
func (r *messageRepository) ListMessages(conversationID string, limit, offset int) ([]*models.Message, error) {
	var msgs []*models.Message
	query := `SELECT id, conversation_id, role, content, language, edited, created_at
	          FROM messages WHERE conversation_id = $1 ORDER BY created_at, id LIMIT $2 OFFSET $3`
	err := r.db.Select(&msgs, query, conversationID, limit, offset)
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

// ListRecentMessages returns the newest messages of a conversation, still in
// chronological order. When the conversation exceeds the limit it is the
// oldest messages that fall off.
func (r *messageRepository) ListRecentMessages(conversationID string, limit int) ([]*models.Message, error) {
	var msgs []*models.Message
	query := `SELECT id, conversation_id, role, content, language, edited, created_at FROM (
	              SELECT id, conversation_id, role, content, language, edited, created_at
	              FROM messages WHERE conversation_id = $1
	              ORDER BY created_at DESC, id DESC LIMIT $2
	          ) recent ORDER BY created_at, id`
	err := r.db.Select(&msgs, query, conversationID, limit)
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

// UpdateContent replaces message content and marks the message edited.
func (r *messageRepository) UpdateContent(id, conversationID, content string) error {
	query := `UPDATE messages SET content = $1, edited = TRUE WHERE id = $2 AND conversation_id = $3`
	result, err := r.db.Exec(query, content, id, conversationID)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrMessageNotFound
	}
	return nil
}

func (r *messageRepository) DeleteMessage(id, conversationID string) error {
	query := `DELETE FROM messages WHERE id = $1 AND conversation_id = $2`
	result, err := r.db.Exec(query, id, conversationID)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrMessageNotFound
	}
	return nil
}

var ErrMessageNotFound = errors.New("message not found")
