package users

import (
	"context"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/hoshizora-fansub/hoshizora/internal/grants"
	"github.com/hoshizora-fansub/hoshizora/internal/shared"
)

// RepositoryPort defines data access methods for users.
type RepositoryPort interface {
	List(ctx context.Context) ([]User, error)
	Get(ctx context.Context, id int64) (*User, error)
	Create(ctx context.Context, u User, passwordHash string) (*User, error)
	UpdateGrants(ctx context.Context, id int64, permissions, roles []string) (*User, error)
	SetActive(ctx context.Context, id int64, active bool) error
}

// Service handles account management. It also feeds the grants resolver:
// ActorByID loads the record behind a session on every request, so a
// permission edit applies the moment the affected user's next request
// arrives.
type Service struct {
	repo RepositoryPort
}

// NewService builds Service instance.
func NewService(repo RepositoryPort) *Service {
	return &Service{repo: repo}
}

// ActorByID implements grants.ActorSource. Inactive accounts resolve to
// no actor so their sessions stop authorizing immediately.
func (s *Service) ActorByID(ctx context.Context, id string) (*grants.Actor, error) {
	userID, err := strconv.ParseInt(strings.TrimSpace(id), 10, 64)
	if err != nil {
		return nil, shared.ErrNotFound
	}
	u, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, shared.ErrNotFound
	}
	return &grants.Actor{
		ID:          strconv.FormatInt(u.ID, 10),
		Permissions: u.Permissions,
		Roles:       u.Roles,
	}, nil
}

// List returns all accounts.
func (s *Service) List(ctx context.Context, g grants.Grants) ([]User, error) {
	if !g.Has(grants.CapUsers) {
		return nil, shared.ErrForbidden
	}
	return s.repo.List(ctx)
}

// Get returns one account.
func (s *Service) Get(ctx context.Context, g grants.Grants, id int64) (*User, error) {
	if !g.Has(grants.CapUsers) {
		return nil, shared.ErrForbidden
	}
	return s.repo.Get(ctx, id)
}

// CreateUserInput carries the fields for a new account.
type CreateUserInput struct {
	Email       string `validate:"required,email"`
	Name        string `validate:"required"`
	Password    string `validate:"required,min=8"`
	Permissions []string
	Roles       []string
}

// Create registers an account with a bcrypt password hash.
func (s *Service) Create(ctx context.Context, g grants.Grants, input CreateUserInput) (*User, error) {
	if !g.Has(grants.CapUsers) {
		return nil, shared.ErrForbidden
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	return s.repo.Create(ctx, User{
		Email:       strings.ToLower(strings.TrimSpace(input.Email)),
		Name:        strings.TrimSpace(input.Name),
		Permissions: normalizeTokens(input.Permissions),
		Roles:       normalizeTokens(input.Roles),
		IsActive:    true,
	}, string(hash))
}

// UpdateGrantsInput replaces the grant lists wholesale.
type UpdateGrantsInput struct {
	Permissions []string
	Roles       []string
}

// UpdateGrants rewrites an account's permissions and roles.
func (s *Service) UpdateGrants(ctx context.Context, g grants.Grants, id int64, input UpdateGrantsInput) (*User, error) {
	if !g.Has(grants.CapUsers) {
		return nil, shared.ErrForbidden
	}
	return s.repo.UpdateGrants(ctx, id, normalizeTokens(input.Permissions), normalizeTokens(input.Roles))
}

// SetActive enables or disables an account.
func (s *Service) SetActive(ctx context.Context, g grants.Grants, id int64, active bool) error {
	if !g.Has(grants.CapUsers) {
		return shared.ErrForbidden
	}
	return s.repo.SetActive(ctx, id, active)
}

func normalizeTokens(items []string) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		token := strings.ToLower(strings.TrimSpace(item))
		if token == "" {
			continue
		}
		out = append(out, token)
	}
	return out
}
