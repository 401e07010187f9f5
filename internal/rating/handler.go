// AngelaMos | 2026
// handler.go

package rating

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/storyhaven/storyhaven-api/internal/core"
	"github.com/storyhaven/storyhaven-api/internal/middleware"
)

type Handler struct {
	repo      Repository
	validator *validator.Validate
}

func NewHandler(repo Repository) *Handler {
	return &Handler{
		repo:      repo,
		validator: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// RegisterRoutes mounts the rating endpoints. The lookup works without
// authentication but includes the caller's own score when a valid
// token rides along.
func (h *Handler) RegisterRoutes(
	r chi.Router,
	authenticator, optionalAuth func(http.Handler) http.Handler,
) {
	r.Route("/ratings/{storySlug}", func(r chi.Router) {
		r.With(optionalAuth).Get("/", h.GetSummary)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)
			r.Put("/", h.Rate)
			r.Delete("/", h.Unrate)
		})
	})
}

func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	storySlug := chi.URLParam(r, "storySlug")
	if storySlug == "" {
		core.BadRequest(w, "story slug required")
		return
	}

	summary, err := h.repo.GetSummary(r.Context(), storySlug)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	if userID := middleware.GetUserID(r.Context()); userID != "" {
		score, err := h.repo.GetUserScore(r.Context(), storySlug, userID)
		if err == nil {
			summary.UserScore = &score
		} else if !errors.Is(err, core.ErrNotFound) {
			core.InternalServerError(w, err)
			return
		}
	}

	core.OK(w, summary)
}

func (h *Handler) Rate(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		core.Unauthorized(w, "")
		return
	}

	storySlug := chi.URLParam(r, "storySlug")
	if storySlug == "" {
		core.BadRequest(w, "story slug required")
		return
	}

	var req RateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		core.BadRequest(w, "invalid request body")
		return
	}

	if err := h.validator.Struct(req); err != nil {
		core.BadRequest(w, core.FormatValidationError(err))
		return
	}

	rating, err := h.repo.Upsert(r.Context(), storySlug, userID, req.Score)
	if err != nil {
		core.InternalServerError(w, err)
		return
	}

	core.OK(w, rating)
}

func (h *Handler) Unrate(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	if userID == "" {
		core.Unauthorized(w, "")
		return
	}

	storySlug := chi.URLParam(r, "storySlug")

	if err := h.repo.Delete(r.Context(), storySlug, userID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			core.NotFound(w, "rating")
			return
		}
		core.InternalServerError(w, err)
		return
	}

	core.NoContent(w)
}
