// AngelaMos | 2026
// repository.go

package rating

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/storyhaven/storyhaven-api/internal/core"
)

type Repository interface {
	GetSummary(ctx context.Context, storySlug string) (*Summary, error)
	GetUserScore(
		ctx context.Context,
		storySlug, userID string,
	) (int, error)
	Upsert(
		ctx context.Context,
		storySlug, userID string,
		score int,
	) (*Rating, error)
	Delete(ctx context.Context, storySlug, userID string) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) GetSummary(
	ctx context.Context,
	storySlug string,
) (*Summary, error) {
	query := `
		SELECT COALESCE(AVG(score), 0) AS average, COUNT(*) AS count
		FROM ratings
		WHERE story_slug = $1`

	var summary struct {
		Average float64 `db:"average"`
		Count   int     `db:"count"`
	}
	if err := r.db.GetContext(ctx, &summary, query, storySlug); err != nil {
		return nil, fmt.Errorf("get rating summary: %w", err)
	}

	return &Summary{
		StorySlug: storySlug,
		Average:   summary.Average,
		Count:     summary.Count,
	}, nil
}

func (r *repository) GetUserScore(
	ctx context.Context,
	storySlug, userID string,
) (int, error) {
	query := `
		SELECT score
		FROM ratings
		WHERE story_slug = $1 AND user_id = $2`

	var score int
	err := r.db.GetContext(ctx, &score, query, storySlug, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("get user rating: %w", core.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("get user rating: %w", err)
	}

	return score, nil
}

func (r *repository) Upsert(
	ctx context.Context,
	storySlug, userID string,
	score int,
) (*Rating, error) {
	query := `
		INSERT INTO ratings (id, story_slug, user_id, score)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (story_slug, user_id)
		DO UPDATE SET score = EXCLUDED.score, updated_at = NOW()
		RETURNING id, story_slug, user_id, score, created_at, updated_at`

	var rating Rating
	err := r.db.GetContext(ctx, &rating, query,
		uuid.New().String(),
		storySlug,
		userID,
		score,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert rating: %w", err)
	}

	return &rating, nil
}

func (r *repository) Delete(
	ctx context.Context,
	storySlug, userID string,
) error {
	query := `DELETE FROM ratings WHERE story_slug = $1 AND user_id = $2`

	result, err := r.db.ExecContext(ctx, query, storySlug, userID)
	if err != nil {
		return fmt.Errorf("delete rating: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete rating: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("delete rating: %w", core.ErrNotFound)
	}

	return nil
}
