package projects

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

// Handler exposes project management endpoints.
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

// MountRoutes registers project routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(grants.CapProjects))
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/lixeira", h.listTrash)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.trash)
		r.Post("/{id}/restaurar", h.restore)
	})
}

type projectResponse struct {
	ID        int64      `json:"id"`
	Title     string     `json:"title"`
	Slug      string     `json:"slug"`
	Type      string     `json:"type"`
	Synopsis  string     `json:"synopsis"`
	CoverURL  *string    `json:"cover_url,omitempty"`
	AniListID *int64     `json:"anilist_id,omitempty"`
	Order     int        `json:"order"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	DeletedBy *string    `json:"deleted_by,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type trashedProjectResponse struct {
	projectResponse
	RemainingDays int `json:"remaining_days"`
}

func toResponse(p Project) projectResponse {
	return projectResponse{
		ID:        p.ID,
		Title:     p.Title,
		Slug:      p.Slug,
		Type:      p.Type,
		Synopsis:  p.Synopsis,
		CoverURL:  p.CoverURL,
		AniListID: p.AniListID,
		Order:     p.Order,
		DeletedAt: p.DeletedAt,
		DeletedBy: p.DeletedBy,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context(), grants.FromContext(r.Context()))
	if err != nil {
		h.fail(w, "list projects", err)
		return
	}
	out := make([]projectResponse, 0, len(items))
	for _, p := range items {
		out = append(out, toResponse(p))
	}
	shared.RespondJSON(w, http.StatusOK, out)
}

func (h *Handler) listTrash(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.ListTrash(r.Context(), grants.FromContext(r.Context()))
	if err != nil {
		h.fail(w, "list trash", err)
		return
	}
	out := make([]trashedProjectResponse, 0, len(items))
	for _, p := range items {
		out = append(out, trashedProjectResponse{
			projectResponse: toResponse(p.Project),
			RemainingDays:   p.RemainingDays,
		})
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
		h.fail(w, "get project", err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, toResponse(*p))
}

type createProjectRequest struct {
	Title     string  `json:"title"`
	Type      string  `json:"type"`
	Synopsis  string  `json:"synopsis"`
	CoverURL  *string `json:"cover_url"`
	AniListID *int64  `json:"anilist_id"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	input := CreateProjectInput{
		Title:     req.Title,
		Type:      req.Type,
		Synopsis:  req.Synopsis,
		CoverURL:  req.CoverURL,
		AniListID: req.AniListID,
	}
	if err := h.validate.Struct(input); err != nil {
		http.Error(w, http.StatusText(http.StatusUnprocessableEntity), http.StatusUnprocessableEntity)
		return
	}
	p, err := h.service.Create(r.Context(), grants.FromContext(r.Context()), input)
	if err != nil {
		h.fail(w, "create project", err)
		return
	}
	shared.RespondJSON(w, http.StatusCreated, toResponse(*p))
}

type updateProjectRequest struct {
	Title     *string `json:"title"`
	Type      *string `json:"type"`
	Synopsis  *string `json:"synopsis"`
	CoverURL  *string `json:"cover_url"`
	AniListID *int64  `json:"anilist_id"`
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	var req updateProjectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	p, err := h.service.Update(r.Context(), grants.FromContext(r.Context()), id, UpdateProjectInput{
		Title:     req.Title,
		Type:      req.Type,
		Synopsis:  req.Synopsis,
		CoverURL:  req.CoverURL,
		AniListID: req.AniListID,
	})
	if err != nil {
		h.fail(w, "update project", err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, toResponse(*p))
}

func (h *Handler) trash(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	actorID := grants.ActorIDFromContext(r.Context())
	p, err := h.service.Trash(r.Context(), grants.FromContext(r.Context()), id, actorID)
	if err != nil {
		h.fail(w, "trash project", err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, toResponse(*p))
}

func (h *Handler) restore(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	p, err := h.service.Restore(r.Context(), grants.FromContext(r.Context()), id)
	if err != nil {
		h.fail(w, "restore project", err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, toResponse(*p))
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
