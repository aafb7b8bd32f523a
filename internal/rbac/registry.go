// AngelaMos | 2026
// registry.go

package rbac

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/joborders/internal/authz"
)

const principalKeyPrefix = "rbac:principal:"

// Registry answers "who is this user and what may they do" from the
// database, caching each answer in redis until a role or permission
// change invalidates it.
type Registry struct {
	repo   Repository
	redis  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewRegistry(
	repo Repository,
	redisClient *redis.Client,
	ttl time.Duration,
	logger *slog.Logger,
) *Registry {
	return &Registry{
		repo:   repo,
		redis:  redisClient,
		ttl:    ttl,
		logger: logger,
	}
}

func (g *Registry) Load(
	ctx context.Context,
	userID string,
) (*authz.Principal, error) {
	if p, ok := g.cached(ctx, userID); ok {
		return p, nil
	}

	p, err := g.repo.LoadPrincipal(ctx, userID)
	if err != nil {
		return nil, err
	}

	g.store(ctx, p)
	return p, nil
}

func (g *Registry) cached(
	ctx context.Context,
	userID string,
) (*authz.Principal, bool) {
	if g.redis == nil || g.ttl <= 0 {
		return nil, false
	}

	raw, err := g.redis.Get(ctx, principalKeyPrefix+userID).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			g.logger.Warn("principal cache read failed",
				"user_id", userID,
				"error", err,
			)
		}
		return nil, false
	}

	var p authz.Principal
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, false
	}

	return &p, true
}

func (g *Registry) store(ctx context.Context, p *authz.Principal) {
	if g.redis == nil || g.ttl <= 0 {
		return
	}

	raw, err := json.Marshal(p)
	if err != nil {
		return
	}

	if err := g.redis.Set(ctx, principalKeyPrefix+p.ID, raw, g.ttl).Err(); err != nil {
		g.logger.Warn("principal cache write failed",
			"user_id", p.ID,
			"error", err,
		)
	}
}

// Forget drops the cached principals of the given users.
func (g *Registry) Forget(ctx context.Context, userIDs ...string) error {
	if g.redis == nil || len(userIDs) == 0 {
		return nil
	}

	keys := make([]string, 0, len(userIDs))
	for _, id := range userIDs {
		keys = append(keys, principalKeyPrefix+id)
	}

	if err := g.redis.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("forget principals: %w", err)
	}
	return nil
}

// ForgetAll drops every cached principal. Role and permission edits can
// affect any number of users, so they flush the whole cache.
func (g *Registry) ForgetAll(ctx context.Context) error {
	if g.redis == nil {
		return nil
	}

	iter := g.redis.Scan(ctx, 0, principalKeyPrefix+"*", 200).Iterator()

	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 200 {
			if err := g.redis.Del(ctx, batch...).Err(); err != nil {
				return fmt.Errorf("flush principals: %w", err)
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("scan principals: %w", err)
	}

	if len(batch) > 0 {
		if err := g.redis.Del(ctx, batch...).Err(); err != nil {
			return fmt.Errorf("flush principals: %w", err)
		}
	}

	return nil
}

// AssignRoles replaces a user's role set. Unknown role names are rejected.
func (g *Registry) AssignRoles(
	ctx context.Context,
	userID string,
	roles []string,
) error {
	roles = dedupe(roles)

	if err := g.ValidateRoles(ctx, roles); err != nil {
		return err
	}

	if err := g.repo.SyncUserRoles(ctx, userID, roles); err != nil {
		return fmt.Errorf("assign roles: %w", err)
	}

	return g.Forget(ctx, userID)
}

func (g *Registry) RoleNames(ctx context.Context) ([]string, error) {
	return g.repo.AllRoleNames(ctx)
}

// ValidateRoles fails with ErrUnknownRole unless every name is a defined role.
func (g *Registry) ValidateRoles(ctx context.Context, roles []string) error {
	roles = dedupe(roles)
	if len(roles) == 0 {
		return nil
	}

	n, err := g.repo.CountRolesNamed(ctx, roles)
	if err != nil {
		return err
	}
	if n != len(roles) {
		return fmt.Errorf("validate roles: %w", ErrUnknownRole)
	}
	return nil
}

func dedupe(names []string) []string {
	seen := make(map[string]struct{}, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
