package joinrequests

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store interface {
	// Create fails with ErrDuplicatePending when the user already has a
	// pending request for the group.
	Create(ctx context.Context, req *JoinRequest) error
	GetByID(ctx context.Context, requestID string) (*JoinRequest, error)
	HasPending(ctx context.Context, groupID, userID string) (bool, error)
	ListPending(ctx context.Context, groupID string, limit int) ([]*JoinRequest, error)
	// Resolve moves a pending request to the terminal status to. It returns
	// ErrInvalidTransition when to is not terminal or the stored request is
	// no longer pending. Resolved requests never change again.
	Resolve(ctx context.Context, requestID string, to Status) error
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Store {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, req *JoinRequest) error {
	query := `
	  INSERT INTO join_requests (id, user_id, group_id, status, created_at)
	  VALUES ($1, $2, $3, $4, $5)
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := r.db.Exec(ctx, query, req.ID, req.UserID, req.GroupID, req.Status, req.CreatedAt)
	if err != nil {
		// join_requests_one_pending_idx
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicatePending
		}
		return fmt.Errorf("insert join request: %w", err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, requestID string) (*JoinRequest, error) {
	query := `SELECT id, user_id, group_id, status, created_at FROM join_requests WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	return scanRequest(r.db.QueryRow(ctx, query, requestID))
}

func (r *Repository) HasPending(ctx context.Context, groupID, userID string) (bool, error) {
	query := `
	  SELECT EXISTS (
	    SELECT 1 FROM join_requests
	    WHERE group_id = $1 AND user_id = $2 AND status = 'pending'
	  )
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	var exists bool
	err := r.db.QueryRow(ctx, query, groupID, userID).Scan(&exists)
	return exists, err
}

func (r *Repository) ListPending(ctx context.Context, groupID string, limit int) ([]*JoinRequest, error) {
	query := `
	  SELECT id, user_id, group_id, status, created_at
	  FROM join_requests
	  WHERE group_id = $1 AND status = 'pending'
	  ORDER BY created_at ASC
	  LIMIT $2
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := r.db.Query(ctx, query, groupID, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending requests: %w", err)
	}
	defer rows.Close()

	out := []*JoinRequest{}
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, req)
	}
	return out, rows.Err()
}

func (r *Repository) Resolve(ctx context.Context, requestID string, to Status) error {
	if !to.Terminal() {
		return ErrInvalidTransition
	}
	query := `UPDATE join_requests SET status = $1 WHERE id = $2 AND status = $3`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := r.db.Exec(ctx, query, to, requestID, StatusPending)
	if err != nil {
		return fmt.Errorf("update join request status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrInvalidTransition
	}
	return nil
}

func scanRequest(row pgx.Row) (*JoinRequest, error) {
	req := &JoinRequest{}
	err := row.Scan(&req.ID, &req.UserID, &req.GroupID, &req.Status, &req.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return req, nil
}
