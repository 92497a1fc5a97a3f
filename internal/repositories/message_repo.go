package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mpchat/server/internal/models"
)

const messageColumns = `id, sender_id, receiver_id, group_id, content, type, status,
    reply_to_id, forwarded_from_id, media_url, file_name, file_size, expires_at, created_at`

type PostgresMessageRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresMessageRepository(pool *pgxpool.Pool) *PostgresMessageRepository {
	return &PostgresMessageRepository{pool: pool}
}

// Create inserts a message with its server-assigned id and timestamp. The
// caller (the relay or the REST handler) owns id generation so that the
// message identity exists before the row does.
func (r *PostgresMessageRepository) Create(ctx context.Context, message *models.Message) error {
	query := `INSERT INTO messages
              (id, sender_id, receiver_id, group_id, content, type, status,
               reply_to_id, forwarded_from_id, media_url, file_name, file_size, expires_at, created_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`

	_, err := r.pool.Exec(ctx, query,
		message.ID, message.SenderID, message.ReceiverID, message.GroupID,
		message.Content, message.Type, message.Status,
		message.ReplyToID, message.ForwardedFromID,
		message.MediaURL, message.FileName, message.FileSize,
		message.ExpiresAt, message.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}
	return nil
}

func (r *PostgresMessageRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages WHERE id = $1`

	msg, err := scanMessage(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get message: %w", err)
	}
	return msg, nil
}

// ListConversation returns the direct-message history between two users,
// oldest first.
func (r *PostgresMessageRepository) ListConversation(ctx context.Context, userID, peerID uuid.UUID) ([]*models.Message, error) {
	query := `SELECT ` + messageColumns + ` FROM messages
              WHERE (sender_id = $1 AND receiver_id = $2)
                 OR (sender_id = $2 AND receiver_id = $1)
              ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query, userID, peerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversation: %w", err)
	}
	defer rows.Close()

	return collectMessages(rows)
}

// ListChats returns the newest message per conversation partner for a user,
// newest conversations first. Used by the chat-list endpoint.
func (r *PostgresMessageRepository) ListChats(ctx context.Context, userID uuid.UUID) ([]*models.Message, error) {
	query := `SELECT DISTINCT ON (peer) ` + messageColumns + ` FROM (
                  SELECT *, CASE WHEN sender_id = $1 THEN receiver_id ELSE sender_id END AS peer
                  FROM messages
                  WHERE group_id IS NULL AND (sender_id = $1 OR receiver_id = $1)
              ) m
              ORDER BY peer, created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}
	defer rows.Close()

	return collectMessages(rows)
}

// UpdateStatus advances a message's delivery status. The status is monotonic:
// the CASE ranking makes a read message immune to a late delivered update.
func (r *PostgresMessageRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.MessageStatus) error {
	query := `UPDATE messages SET status = $1 WHERE id = $2
              AND (CASE status WHEN 'sent' THEN 1 WHEN 'delivered' THEN 2 ELSE 3 END)
                < (CASE $1      WHEN 'sent' THEN 1 WHEN 'delivered' THEN 2 ELSE 3 END)`

	result, err := r.pool.Exec(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update message status: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanMessage(row pgx.Row) (*models.Message, error) {
	var msg models.Message
	err := row.Scan(&msg.ID, &msg.SenderID, &msg.ReceiverID, &msg.GroupID,
		&msg.Content, &msg.Type, &msg.Status,
		&msg.ReplyToID, &msg.ForwardedFromID,
		&msg.MediaURL, &msg.FileName, &msg.FileSize,
		&msg.ExpiresAt, &msg.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func collectMessages(rows pgx.Rows) ([]*models.Message, error) {
	var messages []*models.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}
