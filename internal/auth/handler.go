package auth

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

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger         *slog.Logger
	service        *Service
	resolver       *grants.Resolver
	policy         *grants.Policy
	sessionManager *shared.SessionManager
	csrfManager    *shared.CSRFManager
	validator      *validator.Validate
}

// NewHandler constructs a Handler instance.
func NewHandler(logger *slog.Logger, service *Service, resolver *grants.Resolver, policy *grants.Policy, sessions *shared.SessionManager, csrf *shared.CSRFManager) *Handler {
	return &Handler{
		logger:         logger,
		service:        service,
		resolver:       resolver,
		policy:         policy,
		sessionManager: sessions,
		csrfManager:    csrf,
		validator:      validator.New(),
	}
}

// MountRoutes registers the unauthenticated auth routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
	r.Post("/logout", h.handleLogout)
}

// MountSessionRoutes registers routes that assume a resolved session. The
// caller mounts them behind the guard.
func (h *Handler) MountSessionRoutes(r chi.Router) {
	r.Get("/me", h.handleMe)
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// sessionResponse is what the dashboard shell needs to boot: who the user
// is, what they may open, and where to land first.
type sessionResponse struct {
	User        sessionUser `json:"user"`
	Permissions []string    `json:"permissions"`
	IsOwner     bool        `json:"is_owner"`
	HomeRoute   string      `json:"home_route"`
	CSRFToken   string      `json:"csrf_token,omitempty"`
}

type sessionUser struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondError(w, shared.ErrInvalidCredentials)
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		shared.RespondError(w, shared.ErrInvalidCredentials)
		return
	}

	sess := shared.SessionFromContext(r.Context())
	if sess == nil {
		h.logger.Error("session missing during login")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	// A fresh ID on login stops session fixation.
	sess.Rotate()
	sess.SetUser(strconv.FormatInt(user.ID, 10))

	expiresAt := time.Now().Add(h.sessionManager.TTL())
	if err := h.service.RegisterSession(r.Context(), sess.ID, user.ID, expiresAt, r.RemoteAddr, r.UserAgent()); err != nil {
		h.logger.Warn("register session", slog.Any("error", err))
	}

	csrfToken, err := h.csrfManager.EnsureToken(r.Context(), sess)
	if err != nil {
		h.logger.Warn("issue csrf token", slog.Any("error", err))
	}

	shared.RespondJSON(w, http.StatusOK, h.sessionResponseFor(user, csrfToken))
}

func (h *Handler) handleLogout(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess != nil {
		if err := h.service.RemoveSession(r.Context(), sess.ID); err != nil {
			h.logger.Warn("remove session", slog.Any("error", err))
		}
		h.sessionManager.Destroy(sess)
	}
	shared.RespondJSON(w, http.StatusNoContent, nil)
}

// handleMe reports the authenticated user's grants. The dashboard calls it
// on boot to rebuild navigation after a refresh.
func (h *Handler) handleMe(w http.ResponseWriter, r *http.Request) {
	sess := shared.SessionFromContext(r.Context())
	if sess == nil || sess.User() == "" {
		shared.RespondError(w, shared.ErrInvalidCredentials)
		return
	}
	userID, err := strconv.ParseInt(sess.User(), 10, 64)
	if err != nil {
		shared.RespondError(w, shared.ErrInvalidCredentials)
		return
	}
	// The route sits behind the guard, so resolved grants ride the context.
	// An empty set is legitimate for accounts with no grants yet; they get
	// the no-access route as home.
	actor := grants.FromContext(r.Context())
	csrfToken, err := h.csrfManager.EnsureToken(r.Context(), sess)
	if err != nil {
		h.logger.Warn("issue csrf token", slog.Any("error", err))
	}
	shared.RespondJSON(w, http.StatusOK, sessionResponse{
		User:        sessionUser{ID: userID},
		Permissions: grantedCapabilities(actor),
		IsOwner:     h.resolver.IsOwner(sess.User()),
		HomeRoute:   h.policy.FirstAllowed(actor),
		CSRFToken:   csrfToken,
	})
}

func (h *Handler) sessionResponseFor(user *User, csrfToken string) sessionResponse {
	resolved := h.resolver.Resolve(&grants.Actor{
		ID:          strconv.FormatInt(user.ID, 10),
		Permissions: user.Permissions,
		Roles:       user.Roles,
	})
	return sessionResponse{
		User:        sessionUser{ID: user.ID, Email: user.Email, Name: user.Name},
		Permissions: grantedCapabilities(resolved),
		IsOwner:     h.resolver.IsOwner(strconv.FormatInt(user.ID, 10)),
		HomeRoute:   h.policy.FirstAllowed(resolved),
		CSRFToken:   csrfToken,
	}
}

// grantedCapabilities flattens resolved grants into the known capability
// tokens. The wildcard expands so the frontend never parses "*".
func grantedCapabilities(g grants.Grants) []string {
	out := []string{}
	for _, capability := range grants.AllCapabilities() {
		if g.Has(capability) {
			out = append(out, capability)
		}
	}
	return out
}
