package messages

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Store interface {
	Create(ctx context.Context, msg *Message) error
	// ListByGroup returns the oldest limit messages, ascending by CreatedAt.
	ListByGroup(ctx context.Context, groupID string, limit int) ([]*Message, error)
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Store {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, msg *Message) error {
	query := `
	  INSERT INTO messages (id, group_id, sender_id, sender_name, content, created_at)
	  VALUES ($1, $2, $3, $4, $5, $6)
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := r.db.Exec(ctx, query, msg.ID, msg.GroupID, msg.SenderID, msg.SenderName, msg.Content, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

func (r *Repository) ListByGroup(ctx context.Context, groupID string, limit int) ([]*Message, error) {
	query := `
	  SELECT id, group_id, sender_id, sender_name, content, created_at
	  FROM messages
	  WHERE group_id = $1
	  ORDER BY created_at ASC, seq ASC
	  LIMIT $2
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := r.db.Query(ctx, query, groupID, limit)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	out := []*Message{}
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.GroupID, &m.SenderID, &m.SenderName, &m.Content, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &m)
	}
	return out, rows.Err()
}
