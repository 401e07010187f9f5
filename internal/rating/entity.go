// AngelaMos | 2026
// entity.go

package rating

import (
	"time"
)

const (
	MinScore = 1
	MaxScore = 5
)

// Rating is one user's star rating for a story, keyed by the story's
// slug. One row per (story, user); re-rating overwrites.
type Rating struct {
	ID        string    `db:"id"         json:"id"`
	StorySlug string    `db:"story_slug" json:"story_slug"`
	UserID    string    `db:"user_id"    json:"user_id"`
	Score     int       `db:"score"      json:"score"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// Summary is the aggregate view returned on lookup. UserScore is only
// populated when the caller is authenticated and has rated the story.
type Summary struct {
	StorySlug string  `json:"story_slug"`
	Average   float64 `json:"average"`
	Count     int     `json:"count"`
	UserScore *int    `json:"user_score,omitempty"`
}

type RateRequest struct {
	Score int `json:"score" validate:"required,min=1,max=5"`
}
