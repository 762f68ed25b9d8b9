package groups

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"net/url"
	"slices"
	"strings"
	"time"
)

var (
	ErrNotFound          = errors.New("group not found")
	ErrGroupFull         = errors.New("group is full")
	QueryTimeoutDuration = time.Second * 5
)

// TravelDateLayout is the textual form travel_date substring filters match against.
const TravelDateLayout = "2006-01-02T15:04:05"

// TravelGroup is a trip that users can join. AdminID is the creator and is
// always contained in Members.
type TravelGroup struct {
	ID           string    `json:"id"`
	FromLocation string    `json:"from_location"`
	ToLocation   string    `json:"to_location"`
	TravelDate   time.Time `json:"travel_date"`
	BudgetMin    int       `json:"budget_min"`
	BudgetMax    int       `json:"budget_max"`
	TripType     string    `json:"trip_type"`
	Description  string    `json:"description"`
	MaxMembers   int       `json:"max_members"`
	AdminID      string    `json:"admin_id"`
	Members      []string  `json:"members"`
	ImageURL     *string   `json:"imageUrl,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

func (g *TravelGroup) HasMember(userID string) bool {
	return slices.Contains(g.Members, userID)
}

func (g *TravelGroup) IsFull() bool {
	return len(g.Members) >= g.MaxMembers
}

func (g *TravelGroup) IsAdmin(userID string) bool {
	return g.AdminID == userID
}

// SearchFilter narrows group listings. Empty fields match everything.
// Locations match case-insensitively as substrings; TravelDate is a substring
// of the date rendered with TravelDateLayout in UTC.
type SearchFilter struct {
	FromLocation string
	ToLocation   string
	TravelDate   string
}

// Matches applies the filter in memory with the same rules the database
// drivers use.
func (f SearchFilter) Matches(g *TravelGroup) bool {
	if f.FromLocation != "" && !containsFold(g.FromLocation, f.FromLocation) {
		return false
	}
	if f.ToLocation != "" && !containsFold(g.ToLocation, f.ToLocation) {
		return false
	}
	if f.TravelDate != "" && !strings.Contains(g.TravelDate.UTC().Format(TravelDateLayout), f.TravelDate) {
		return false
	}
	return true
}

func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

var knownCovers = map[string]string{
	"manali":   "https://images.unsplash.com/photo-1587502536263-9298e6e1b38b?auto=format&fit=crop&w=1200&q=80",
	"kashmir":  "https://images.unsplash.com/photo-1628840042765-356cda07504e?auto=format&fit=crop&w=1200&q=80",
	"goa":      "https://images.unsplash.com/photo-1507525428034-b723cf961d3e?auto=format&fit=crop&w=1200&q=80",
	"munnar":   "https://images.unsplash.com/photo-1580745084180-2f7f8b1d42c6?auto=format&fit=crop&w=1200&q=80",
	"ooty":     "https://images.unsplash.com/photo-1580810736546-2ec6b10b2a44?auto=format&fit=crop&w=1200&q=80",
	"coorg":    "https://images.unsplash.com/photo-1593693397690-362cb9666fc2?auto=format&fit=crop&w=1200&q=80",
	"nainital": "https://images.unsplash.com/photo-1610715936287-6c2ad208cdbf?auto=format&fit=crop&w=1200&q=80",
}

// DefaultCoverFor picks a cover image for a destination. Unknown destinations
// get a randomized Unsplash search URL.
func DefaultCoverFor(destination string) string {
	key := strings.ToLower(strings.TrimSpace(destination))
	if u, ok := knownCovers[key]; ok {
		return u
	}
	return fmt.Sprintf("https://source.unsplash.com/1200x600/?%s,travel&sig=%d", url.QueryEscape(key), rand.IntN(100000)+1)
}
