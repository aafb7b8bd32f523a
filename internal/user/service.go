// AngelaMos | 2026
// service.go

package user

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/joborders/internal/auth"
	"github.com/carterperez-dev/joborders/internal/authz"
	"github.com/carterperez-dev/joborders/internal/core"
)

// RoleAssigner replaces a user's role set and resolves principals.
type RoleAssigner interface {
	ValidateRoles(ctx context.Context, roles []string) error
	AssignRoles(ctx context.Context, userID string, roles []string) error
	RoleNames(ctx context.Context) ([]string, error)
	Load(ctx context.Context, userID string) (*authz.Principal, error)
	Forget(ctx context.Context, userIDs ...string) error
}

type Service struct {
	repo  Repository
	roles RoleAssigner
}

func NewService(repo Repository, roles RoleAssigner) *Service {
	return &Service{repo: repo, roles: roles}
}

func (s *Service) GetByID(
	ctx context.Context,
	id string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) GetByEmail(
	ctx context.Context,
	email string,
) (*auth.UserInfo, error) {
	user, err := s.repo.GetByEmail(ctx, strings.ToLower(email))
	if err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

// Create registers a user with no roles.
func (s *Service) Create(
	ctx context.Context,
	email, passwordHash, name string,
) (*auth.UserInfo, error) {
	user := &User{
		ID:           uuid.New().String(),
		Email:        strings.ToLower(email),
		PasswordHash: passwordHash,
		Name:         name,
		Roles:        core.JSONList[string]{},
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	return toUserInfo(user), nil
}

func (s *Service) IncrementTokenVersion(
	ctx context.Context,
	userID string,
) error {
	return s.repo.IncrementTokenVersion(ctx, userID)
}

func (s *Service) UpdatePassword(
	ctx context.Context,
	userID, passwordHash string,
) error {
	return s.repo.UpdatePassword(ctx, userID, passwordHash)
}

func (s *Service) GetUser(ctx context.Context, id string) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

// GetUserDetail returns a user together with the permissions granted
// through its roles.
func (s *Service) GetUserDetail(
	ctx context.Context,
	id string,
) (*UserDetailResponse, error) {
	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	principal, err := s.roles.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	perms := principal.Permissions
	if perms == nil {
		perms = []string{}
	}

	return &UserDetailResponse{
		UserResponse: ToUserResponse(user),
		Permissions:  perms,
	}, nil
}

func (s *Service) RoleNames(ctx context.Context) ([]string, error) {
	return s.roles.RoleNames(ctx)
}

// CreateUser is the administrative create. Role names are checked before
// the row is written and synced once it exists.
func (s *Service) CreateUser(
	ctx context.Context,
	req CreateUserRequest,
) (*User, error) {
	if err := s.roles.ValidateRoles(ctx, req.Roles); err != nil {
		return nil, err
	}

	hash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &User{
		ID:           uuid.New().String(),
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		PasswordHash: hash,
		Name:         strings.TrimSpace(req.Name),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		return nil, err
	}

	if err := s.roles.AssignRoles(ctx, user.ID, req.Roles); err != nil {
		return nil, err
	}

	return s.repo.GetByID(ctx, user.ID)
}

func (s *Service) UpdateUser(
	ctx context.Context,
	id string,
	req AdminUpdateUserRequest,
) (*User, error) {
	if err := s.roles.ValidateRoles(ctx, req.Roles); err != nil {
		return nil, err
	}

	user, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	user.Name = strings.TrimSpace(req.Name)
	user.Email = strings.ToLower(strings.TrimSpace(req.Email))

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	if err := s.roles.AssignRoles(ctx, user.ID, req.Roles); err != nil {
		return nil, err
	}

	return s.repo.GetByID(ctx, user.ID)
}

// DeleteUser soft deletes target. An admin may not remove another admin.
func (s *Service) DeleteUser(
	ctx context.Context,
	requester authz.Subject,
	targetID string,
) error {
	if requester == nil || requester.SubjectID() == "" {
		return fmt.Errorf("delete user: %w", core.ErrUnauthorized)
	}

	if requester.SubjectID() != targetID {
		target, err := s.roles.Load(ctx, targetID)
		if err != nil {
			return err
		}

		if target.HasRole(authz.RoleAdmin) {
			return fmt.Errorf("cannot delete admin users: %w", core.ErrForbidden)
		}
	}

	if err := s.repo.SoftDelete(ctx, targetID); err != nil {
		return err
	}

	return s.roles.Forget(ctx, targetID)
}

func (s *Service) ListUsers(
	ctx context.Context,
	params ListUsersParams,
) ([]User, int, error) {
	return s.repo.List(ctx, params)
}

// ListBrief returns every live user for assignment pickers.
func (s *Service) ListBrief(ctx context.Context) ([]Brief, error) {
	return s.repo.ListBrief(ctx)
}

// AllExist reports whether every id names a live user.
func (s *Service) AllExist(ctx context.Context, ids []string) (bool, error) {
	if len(ids) == 0 {
		return true, nil
	}

	seen := make(map[string]struct{}, len(ids))
	unique := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	n, err := s.repo.CountExisting(ctx, unique)
	if err != nil {
		return false, err
	}
	return n == len(unique), nil
}

func (s *Service) CountUsers(ctx context.Context) (int, error) {
	return s.repo.Count(ctx)
}

func (s *Service) GetMe(ctx context.Context, userID string) (*User, error) {
	if userID == "" {
		return nil, fmt.Errorf("get me: %w", core.ErrUnauthorized)
	}

	return s.repo.GetByID(ctx, userID)
}

func (s *Service) UpdateMe(
	ctx context.Context,
	userID string,
	req UpdateUserRequest,
) (*User, error) {
	if userID == "" {
		return nil, fmt.Errorf("update me: %w", core.ErrUnauthorized)
	}

	user, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = strings.TrimSpace(*req.Name)
	}

	if err := s.repo.Update(ctx, user); err != nil {
		return nil, err
	}

	if err := s.roles.Forget(ctx, userID); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *Service) DeleteMe(ctx context.Context, userID string) error {
	if userID == "" {
		return fmt.Errorf("delete me: %w", core.ErrUnauthorized)
	}

	if err := s.repo.SoftDelete(ctx, userID); err != nil {
		return err
	}

	return s.roles.Forget(ctx, userID)
}

func toUserInfo(u *User) *auth.UserInfo {
	return &auth.UserInfo{
		ID:           u.ID,
		Email:        u.Email,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		Roles:        []string(u.Roles),
		TokenVersion: u.TokenVersion,
		CreatedAt:    u.CreatedAt,
	}
}

var _ auth.UserProvider = (*Service)(nil)
