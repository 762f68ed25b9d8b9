package ratings

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store interface {
	// Create fails with ErrDuplicate when (from, to, group) was already rated.
	Create(ctx context.Context, rating *Rating) error
	Exists(ctx context.Context, fromUserID, toUserID, groupID string) (bool, error)
	ListReceived(ctx context.Context, toUserID string, limit int) ([]*Rating, error)
	// Stats aggregates every rating the user ever received.
	Stats(ctx context.Context, toUserID string) (total int, average float64, err error)
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Store {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, rating *Rating) error {
	query := `
	  INSERT INTO ratings (id, from_user_id, to_user_id, group_id, stars, review, created_at)
	  VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := r.db.Exec(ctx, query,
		rating.ID, rating.FromUserID, rating.ToUserID, rating.GroupID, rating.Stars, rating.Review, rating.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicate
		}
		return fmt.Errorf("insert rating: %w", err)
	}
	return nil
}

// Exists returns true if a rating by this user for this ratee and trip already exists.
func (r *Repository) Exists(ctx context.Context, fromUserID, toUserID, groupID string) (bool, error) {
	var exists bool
	query := `
	  SELECT EXISTS (
	    SELECT 1 FROM ratings
	    WHERE from_user_id = $1 AND to_user_id = $2 AND group_id = $3
	  )
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err := r.db.QueryRow(ctx, query, fromUserID, toUserID, groupID).Scan(&exists)
	return exists, err
}

func (r *Repository) ListReceived(ctx context.Context, toUserID string, limit int) ([]*Rating, error) {
	query := `
	  SELECT id, from_user_id, to_user_id, group_id, stars, review, created_at
	  FROM ratings
	  WHERE to_user_id = $1
	  ORDER BY created_at DESC
	  LIMIT $2
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := r.db.Query(ctx, query, toUserID, limit)
	if err != nil {
		return nil, fmt.Errorf("list ratings: %w", err)
	}
	defer rows.Close()

	out := []*Rating{}
	for rows.Next() {
		var rt Rating
		err := rows.Scan(&rt.ID, &rt.FromUserID, &rt.ToUserID, &rt.GroupID, &rt.Stars, &rt.Review, &rt.CreatedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, &rt)
	}
	return out, rows.Err()
}

func (r *Repository) Stats(ctx context.Context, toUserID string) (total int, average float64, err error) {
	query := `
	  SELECT
	    COUNT(id) AS total_ratings,
	    COALESCE(AVG(stars), 0)::float8 AS average_rating
	  FROM ratings
	  WHERE to_user_id = $1
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	err = r.db.QueryRow(ctx, query, toUserID).Scan(&total, &average)
	return total, average, err
}
