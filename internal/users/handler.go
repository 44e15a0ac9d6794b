package users

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

// Handler exposes account management endpoints.
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

// MountRoutes registers user routes. Mounted at /dashboard/usuarios.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.guard.Require(grants.CapUsers))
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{id}", h.get)
		r.Put("/{id}/permissoes", h.updateGrants)
		r.Put("/{id}/ativo", h.setActive)
	})
}

type userResponse struct {
	ID          int64     `json:"id"`
	Email       string    `json:"email"`
	Name        string    `json:"name"`
	Permissions []string  `json:"permissions"`
	Roles       []string  `json:"roles"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toResponse(u User) userResponse {
	permissions := u.Permissions
	if permissions == nil {
		permissions = []string{}
	}
	roles := u.Roles
	if roles == nil {
		roles = []string{}
	}
	return userResponse{
		ID:          u.ID,
		Email:       u.Email,
		Name:        u.Name,
		Permissions: permissions,
		Roles:       roles,
		IsActive:    u.IsActive,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context(), grants.FromContext(r.Context()))
	if err != nil {
		h.fail(w, "list users", err)
		return
	}
	out := make([]userResponse, 0, len(items))
	for _, u := range items {
		out = append(out, toResponse(u))
	}
	shared.RespondJSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathInt64(w, r)
	if !ok {
		return
	}
	u, err := h.service.Get(r.Context(), grants.FromContext(r.Context()), id)
	if err != nil {
		h.fail(w, "get user", err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, toResponse(*u))
}

type createUserRequest struct {
	Email       string   `json:"email"`
	Name        string   `json:"name"`
	Password    string   `json:"password"`
	Permissions []string `json:"permissions"`
	Roles       []string `json:"roles"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	input := CreateUserInput{
		Email:       req.Email,
		Name:        req.Name,
		Password:    req.Password,
		Permissions: req.Permissions,
		Roles:       req.Roles,
	}
	if err := h.validate.Struct(input); err != nil {
		http.Error(w, http.StatusText(http.StatusUnprocessableEntity), http.StatusUnprocessableEntity)
		return
	}
	u, err := h.service.Create(r.Context(), grants.FromContext(r.Context()), input)
	if err != nil {
		h.fail(w, "create user", err)
		return
	}
	shared.RespondJSON(w, http.StatusCreated, toResponse(*u))
}

type updateGrantsRequest struct {
	Permissions []string `json:"permissions"`
	Roles       []string `json:"roles"`
}

func (h *Handler) updateGrants(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathInt64(w, r)
	if !ok {
		return
	}
	var req updateGrantsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	u, err := h.service.UpdateGrants(r.Context(), grants.FromContext(r.Context()), id, UpdateGrantsInput{
		Permissions: req.Permissions,
		Roles:       req.Roles,
	})
	if err != nil {
		h.fail(w, "update grants", err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, toResponse(*u))
}

type setActiveRequest struct {
	Active bool `json:"active"`
}

func (h *Handler) setActive(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathInt64(w, r)
	if !ok {
		return
	}
	var req setActiveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	if err := h.service.SetActive(r.Context(), grants.FromContext(r.Context()), id, req.Active); err != nil {
		h.fail(w, "set user active", err)
		return
	}
	shared.RespondJSON(w, http.StatusNoContent, nil)
}

func (h *Handler) pathInt64(w http.ResponseWriter, r *http.Request) (int64, bool) {
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
