// AngelaMos | 2026
// service.go

package rbac

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/carterperez-dev/joborders/internal/authz"
	"github.com/carterperez-dev/joborders/internal/core"
)

var (
	ErrUnknownRole       = fmt.Errorf("unknown role: %w", core.ErrInvalidInput)
	ErrUnknownPermission = fmt.Errorf("unknown permission: %w", core.ErrInvalidInput)
)

type Service struct {
	repo     Repository
	registry *Registry
}

func NewService(repo Repository, registry *Registry) *Service {
	return &Service{repo: repo, registry: registry}
}

func (s *Service) ListRoles(
	ctx context.Context,
	params ListParams,
) ([]Role, int, error) {
	return s.repo.ListRoles(ctx, params)
}

func (s *Service) GetRole(ctx context.Context, id string) (*Role, error) {
	return s.repo.GetRole(ctx, id)
}

func (s *Service) CreateRole(
	ctx context.Context,
	req RoleRequest,
) (*Role, error) {
	perms := dedupe(req.Permissions)
	if err := s.requirePermissions(ctx, perms); err != nil {
		return nil, err
	}

	role := &Role{
		ID:          uuid.New().String(),
		Name:        strings.TrimSpace(req.Name),
		Permissions: perms,
	}

	if err := s.repo.CreateRole(ctx, role); err != nil {
		return nil, err
	}

	return role, nil
}

func (s *Service) UpdateRole(
	ctx context.Context,
	id string,
	req RoleRequest,
) (*Role, error) {
	role, err := s.repo.GetRole(ctx, id)
	if err != nil {
		return nil, err
	}

	perms := dedupe(req.Permissions)
	if err := s.requirePermissions(ctx, perms); err != nil {
		return nil, err
	}

	role.Name = strings.TrimSpace(req.Name)
	role.Permissions = perms

	if err := s.repo.UpdateRole(ctx, role); err != nil {
		return nil, err
	}

	s.flush(ctx)
	return role, nil
}

func (s *Service) DeleteRole(ctx context.Context, id string) error {
	if err := s.repo.DeleteRole(ctx, id); err != nil {
		return err
	}

	s.flush(ctx)
	return nil
}

func (s *Service) PermissionNames(ctx context.Context) ([]string, error) {
	return s.repo.AllPermissionNames(ctx)
}

func (s *Service) ListPermissions(
	ctx context.Context,
	params ListParams,
) ([]Permission, int, error) {
	return s.repo.ListPermissions(ctx, params)
}

func (s *Service) GetPermission(
	ctx context.Context,
	id string,
) (*Permission, error) {
	return s.repo.GetPermission(ctx, id)
}

func (s *Service) CreatePermission(
	ctx context.Context,
	req PermissionRequest,
) (*Permission, error) {
	perm := &Permission{
		ID:   uuid.New().String(),
		Name: strings.TrimSpace(req.Name),
	}

	if err := s.repo.CreatePermission(ctx, perm); err != nil {
		return nil, err
	}

	return perm, nil
}

func (s *Service) UpdatePermission(
	ctx context.Context,
	id string,
	req PermissionRequest,
) (*Permission, error) {
	perm, err := s.repo.GetPermission(ctx, id)
	if err != nil {
		return nil, err
	}

	perm.Name = strings.TrimSpace(req.Name)

	if err := s.repo.UpdatePermission(ctx, perm); err != nil {
		return nil, err
	}

	s.flush(ctx)
	return perm, nil
}

func (s *Service) DeletePermission(ctx context.Context, id string) error {
	if err := s.repo.DeletePermission(ctx, id); err != nil {
		return err
	}

	s.flush(ctx)
	return nil
}

// Seed creates the built-in permissions and roles and grants each role
// its default permission set. It is safe to run repeatedly.
func (s *Service) Seed(ctx context.Context) error {
	all := append(authz.JobOrderPermissions(), authz.AdminPermissions()...)
	for _, perm := range all {
		if err := s.repo.EnsurePermission(ctx, string(perm)); err != nil {
			return err
		}
	}

	roles := []authz.Role{
		authz.RoleAdmin,
		authz.RoleEngineer,
		authz.RoleManager,
		authz.RoleSupervisor,
		authz.RoleModerator,
	}
	defaults := authz.DefaultRolePermissions()

	for _, role := range roles {
		perms := authz.PermissionNames(defaults[role])
		if err := s.repo.EnsureRole(ctx, string(role), perms); err != nil {
			return err
		}
	}

	s.flush(ctx)
	return nil
}

func (s *Service) CountRoles(ctx context.Context) (int, error) {
	return s.repo.CountRoles(ctx)
}

func (s *Service) CountPermissions(ctx context.Context) (int, error) {
	return s.repo.CountPermissions(ctx)
}

func (s *Service) requirePermissions(ctx context.Context, perms []string) error {
	if len(perms) == 0 {
		return nil
	}

	n, err := s.repo.CountPermissionsNamed(ctx, perms)
	if err != nil {
		return err
	}
	if n != len(perms) {
		return ErrUnknownPermission
	}
	return nil
}

func (s *Service) flush(ctx context.Context) {
	if s.registry == nil {
		return
	}
	if err := s.registry.ForgetAll(ctx); err != nil {
		s.registry.logger.Warn("principal cache flush failed", "error", err)
	}
}
