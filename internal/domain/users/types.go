package users

import (
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

var (
	ErrNotFound          = errors.New("User not found")
	ErrDuplicateEmail    = errors.New("Email already registered")
	QueryTimeoutDuration = time.Second * 5
)

type User struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	City          string    `json:"city"`
	Age           int       `json:"age"`
	Password      password  `json:"-"` // Hide password
	AverageRating float64   `json:"average_rating"`
	TotalRatings  int       `json:"total_ratings"`
	CreatedAt     time.Time `json:"created_at"`
}

// Password struct to store plain text and hash
type password struct {
	text *string
	hash []byte
}

func (p *password) Set(text string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(text), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	p.text = &text
	p.hash = hash

	return nil
}

func (p *password) Compare(text string) error {
	return bcrypt.CompareHashAndPassword(p.hash, []byte(text))
}

// Hash exposes the stored bcrypt hash to storage drivers outside this package.
func (p *password) Hash() []byte {
	return p.hash
}

// SetHash restores a hash loaded from storage.
func (p *password) SetHash(hash []byte) {
	p.hash = hash
	p.text = nil
}
