package episodes

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

// Handler exposes episode endpoints nested under a project.
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

// MountRoutes registers episode routes. Mounted at
// /dashboard/projetos/{projectID}/episodios.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(grants.CapProjects))
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Post("/{id}/etapas/{stage}", h.toggleStage)
		r.Delete("/{id}", h.delete)
	})
}

type episodeResponse struct {
	ID              int64     `json:"id"`
	ProjectID       int64     `json:"project_id"`
	Number          float64   `json:"number"`
	Volume          *int      `json:"volume,omitempty"`
	Title           string    `json:"title"`
	CompletedStages []string  `json:"completed_stages"`
	ProgressStage   string    `json:"progress_stage"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func toResponse(v View) episodeResponse {
	stages := v.CompletedStages
	if stages == nil {
		stages = []string{}
	}
	return episodeResponse{
		ID:              v.ID,
		ProjectID:       v.ProjectID,
		Number:          v.Number,
		Volume:          v.Volume,
		Title:           v.Title,
		CompletedStages: stages,
		ProgressStage:   v.ProgressStage,
		CreatedAt:       v.CreatedAt,
		UpdatedAt:       v.UpdatedAt,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.pathInt64(w, r, "projectID")
	if !ok {
		return
	}
	items, err := h.service.ListByProject(r.Context(), grants.FromContext(r.Context()), projectID)
	if err != nil {
		h.fail(w, "list episodes", err)
		return
	}
	out := make([]episodeResponse, 0, len(items))
	for _, v := range items {
		out = append(out, toResponse(v))
	}
	shared.RespondJSON(w, http.StatusOK, out)
}

type createEpisodeRequest struct {
	Number float64 `json:"number"`
	Volume *int    `json:"volume"`
	Title  string  `json:"title"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.pathInt64(w, r, "projectID")
	if !ok {
		return
	}
	var req createEpisodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	input := CreateEpisodeInput{Number: req.Number, Volume: req.Volume, Title: req.Title}
	if err := h.validate.Struct(input); err != nil {
		http.Error(w, http.StatusText(http.StatusUnprocessableEntity), http.StatusUnprocessableEntity)
		return
	}
	v, err := h.service.Create(r.Context(), grants.FromContext(r.Context()), projectID, input)
	if err != nil {
		h.fail(w, "create episode", err)
		return
	}
	shared.RespondJSON(w, http.StatusCreated, toResponse(*v))
}

func (h *Handler) toggleStage(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.pathInt64(w, r, "projectID")
	if !ok {
		return
	}
	id, ok := h.pathInt64(w, r, "id")
	if !ok {
		return
	}
	stage := chi.URLParam(r, "stage")
	v, err := h.service.ToggleStage(r.Context(), grants.FromContext(r.Context()), projectID, id, stage)
	if err != nil {
		h.fail(w, "toggle stage", err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, toResponse(*v))
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	projectID, ok := h.pathInt64(w, r, "projectID")
	if !ok {
		return
	}
	id, ok := h.pathInt64(w, r, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(r.Context(), grants.FromContext(r.Context()), projectID, id); err != nil {
		h.fail(w, "delete episode", err)
		return
	}
	shared.RespondJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) pathInt64(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
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
