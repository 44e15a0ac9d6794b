package posts

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/hoshizora-fansub/hoshizora/internal/grants"
	"github.com/hoshizora-fansub/hoshizora/internal/shared"
)

// Handler exposes post management endpoints.
type Handler struct {
	logger   *slog.Logger
	service  *Service
	guard    grants.Guard
	validate *validator.Validate
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, guard grants.Guard) *Handler {
	return &Handler{
		logger:   logger,
		service:  service,
		guard:    guard,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// MountRoutes registers post routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(grants.CapPosts))
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
	})
}

type postResponse struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Slug        string     `json:"slug"`
	Content     string     `json:"content"`
	CoverURL    *string    `json:"cover_url,omitempty"`
	AuthorID    string     `json:"author_id"`
	Status      Status     `json:"status"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func toResponse(p Post) postResponse {
	return postResponse{
		ID:          p.ID,
		Title:       p.Title,
		Slug:        p.Slug,
		Content:     p.Content,
		CoverURL:    p.CoverURL,
		AuthorID:    p.AuthorID,
		Status:      p.Status,
		PublishedAt: p.PublishedAt,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	var status *Status
	if raw := r.URL.Query().Get("status"); raw != "" {
		st := Status(raw)
		if !st.Valid() {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		status = &st
	}
	items, err := h.service.List(r.Context(), grants.FromContext(r.Context()), status)
	if err != nil {
		h.fail(w, "list posts", err)
		return
	}
	out := make([]postResponse, 0, len(items))
	for _, p := range items {
		out = append(out, toResponse(p))
	}
	shared.RespondJSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	p, err := h.service.Get(r.Context(), grants.FromContext(r.Context()), id)
	if err != nil {
		h.fail(w, "get post", err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, toResponse(*p))
}

type createPostRequest struct {
	Title       string     `json:"title"`
	Content     string     `json:"content"`
	CoverURL    *string    `json:"cover_url"`
	Status      Status     `json:"status"`
	PublishedAt *time.Time `json:"published_at"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	input := CreatePostInput{
		Title:       req.Title,
		Content:     req.Content,
		CoverURL:    req.CoverURL,
		AuthorID:    grants.ActorIDFromContext(r.Context()),
		Status:      req.Status,
		PublishedAt: req.PublishedAt,
	}
	if err := h.validate.Struct(input); err != nil {
		http.Error(w, http.StatusText(http.StatusUnprocessableEntity), http.StatusUnprocessableEntity)
		return
	}
	p, err := h.service.Create(r.Context(), grants.FromContext(r.Context()), input)
	if err != nil {
		h.fail(w, "create post", err)
		return
	}
	shared.RespondJSON(w, http.StatusCreated, toResponse(*p))
}

type updatePostRequest struct {
	Title       *string    `json:"title"`
	Content     *string    `json:"content"`
	CoverURL    *string    `json:"cover_url"`
	Status      *Status    `json:"status"`
	PublishedAt *time.Time `json:"published_at"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req updatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	if req.Status != nil && !req.Status.Valid() {
		http.Error(w, http.StatusText(http.StatusUnprocessableEntity), http.StatusUnprocessableEntity)
		return
	}
	p, err := h.service.Update(r.Context(), grants.FromContext(r.Context()), id, UpdatePostInput{
		Title:       req.Title,
		Content:     req.Content,
		CoverURL:    req.CoverURL,
		Status:      req.Status,
		PublishedAt: req.PublishedAt,
	})
	if err != nil {
		h.fail(w, "update post", err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, toResponse(*p))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), grants.FromContext(r.Context()), id); err != nil {
		h.fail(w, "delete post", err)
		return
	}
	shared.RespondJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func (h *Handler) fail(w http.ResponseWriter, op string, err error) {
	h.logger.Error(op, slog.Any("error", err))
	shared.RespondError(w, err)
}
