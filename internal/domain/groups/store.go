package groups

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store interface {
	Create(ctx context.Context, group *TravelGroup) error
	GetByID(ctx context.Context, groupID string) (*TravelGroup, error)
	Search(ctx context.Context, filter SearchFilter, limit int) ([]*TravelGroup, error)
	ListByMember(ctx context.Context, userID string, limit int) ([]*TravelGroup, error)
	// AddMember adds userID to the member set only while the group has room.
	// Adding an existing member is a no-op; a full group yields ErrGroupFull.
	AddMember(ctx context.Context, groupID, userID string) error
	// RemoveMember drops userID from the member set. The admin is never
	// removed; removing a non-member is a no-op.
	RemoveMember(ctx context.Context, groupID, userID string) error
	SetImageURL(ctx context.Context, groupID, imageURL string) error
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) Store {
	return &Repository{db: db}
}

const groupColumns = `id, from_location, to_location, travel_date, budget_min, budget_max, trip_type,
	description, max_members, admin_id, members, image_url, created_at`

func (r *Repository) Create(ctx context.Context, group *TravelGroup) error {
	query := `
	  INSERT INTO travel_groups (id, from_location, to_location, travel_date, budget_min, budget_max,
	    trip_type, description, max_members, admin_id, members, image_url, created_at)
	  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	_, err := r.db.Exec(ctx, query,
		group.ID, group.FromLocation, group.ToLocation, group.TravelDate, group.BudgetMin, group.BudgetMax,
		group.TripType, group.Description, group.MaxMembers, group.AdminID, group.Members, group.ImageURL,
		group.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert group: %w", err)
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, groupID string) (*TravelGroup, error) {
	query := `SELECT ` + groupColumns + ` FROM travel_groups WHERE id = $1`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	return scanGroup(r.db.QueryRow(ctx, query, groupID))
}

func (r *Repository) Search(ctx context.Context, filter SearchFilter, limit int) ([]*TravelGroup, error) {
	query := `
	  SELECT ` + groupColumns + `
	  FROM travel_groups
	  WHERE ($1 = '' OR from_location ILIKE '%' || $1 || '%' ESCAPE '\')
	    AND ($2 = '' OR to_location ILIKE '%' || $2 || '%' ESCAPE '\')
	    AND ($3 = '' OR to_char(travel_date AT TIME ZONE 'UTC', 'YYYY-MM-DD"T"HH24:MI:SS') LIKE '%' || $3 || '%' ESCAPE '\')
	  ORDER BY travel_date ASC
	  LIMIT $4
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := r.db.Query(ctx, query,
		escapeLike(filter.FromLocation), escapeLike(filter.ToLocation), escapeLike(filter.TravelDate), limit)
	if err != nil {
		return nil, fmt.Errorf("search groups: %w", err)
	}
	return collectGroups(rows)
}

func (r *Repository) ListByMember(ctx context.Context, userID string, limit int) ([]*TravelGroup, error) {
	query := `
	  SELECT ` + groupColumns + `
	  FROM travel_groups
	  WHERE $1 = ANY(members)
	  ORDER BY travel_date ASC
	  LIMIT $2
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := r.db.Query(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list member groups: %w", err)
	}
	return collectGroups(rows)
}

func (r *Repository) AddMember(ctx context.Context, groupID, userID string) error {
	// capacity and membership are checked in the same statement that appends
	query := `
	  UPDATE travel_groups
	  SET members = array_append(members, $2)
	  WHERE id = $1
	    AND NOT ($2 = ANY(members))
	    AND cardinality(members) < max_members
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := r.db.Exec(ctx, query, groupID, userID)
	if err != nil {
		return fmt.Errorf("add member: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	group, err := r.GetByID(ctx, groupID)
	if err != nil {
		return err
	}
	if group.HasMember(userID) {
		return nil
	}
	return ErrGroupFull
}

func (r *Repository) RemoveMember(ctx context.Context, groupID, userID string) error {
	query := `
	  UPDATE travel_groups
	  SET members = array_remove(members, $2)
	  WHERE id = $1 AND admin_id <> $2
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := r.db.Exec(ctx, query, groupID, userID)
	if err != nil {
		return fmt.Errorf("remove member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		if _, err := r.GetByID(ctx, groupID); err != nil {
			return err
		}
	}
	return nil
}

func (r *Repository) SetImageURL(ctx context.Context, groupID, imageURL string) error {
	query := `UPDATE travel_groups SET image_url = $1 WHERE id = $2`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := r.db.Exec(ctx, query, imageURL, groupID)
	if err != nil {
		return fmt.Errorf("set group image: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func collectGroups(rows pgx.Rows) ([]*TravelGroup, error) {
	defer rows.Close()

	out := []*TravelGroup{}
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func scanGroup(row pgx.Row) (*TravelGroup, error) {
	g := &TravelGroup{}
	err := row.Scan(
		&g.ID,
		&g.FromLocation,
		&g.ToLocation,
		&g.TravelDate,
		&g.BudgetMin,
		&g.BudgetMax,
		&g.TripType,
		&g.Description,
		&g.MaxMembers,
		&g.AdminID,
		&g.Members,
		&g.ImageURL,
		&g.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return g, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
