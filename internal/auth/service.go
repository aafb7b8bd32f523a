// AngelaMos | 2026
// service.go

package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/carterperez-dev/joborders/internal/core"
	"github.com/carterperez-dev/joborders/internal/middleware"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenReuse         = errors.New("token reuse detected")
	ErrEmailExists        = errors.New("email already exists")
)

// expiredSessionRetention keeps spent refresh tokens around long enough for
// reuse detection to see them.
const expiredSessionRetention = 24 * time.Hour

type UserInfo struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	Roles        []string
	TokenVersion int
	CreatedAt    time.Time
}

type UserProvider interface {
	GetByEmail(ctx context.Context, email string) (*UserInfo, error)
	GetByID(ctx context.Context, id string) (*UserInfo, error)
	Create(
		ctx context.Context,
		email, passwordHash, name string,
	) (*UserInfo, error)
	IncrementTokenVersion(ctx context.Context, userID string) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
}

// Client describes where a session was opened from.
type Client struct {
	UserAgent string
	IPAddress string
}

type Service struct {
	repo      Repository
	jwt       *JWTManager
	users     UserProvider
	blacklist blacklist
	now       func() time.Time
}

func NewService(
	repo Repository,
	jwt *JWTManager,
	users UserProvider,
	redisClient *redis.Client,
) *Service {
	return &Service{
		repo:      repo,
		jwt:       jwt,
		users:     users,
		blacklist: blacklist{redis: redisClient},
		now:       time.Now,
	}
}

// VerifyAccessToken parses the token and rejects it if it was logged out or
// predates the user's current token version.
func (s *Service) VerifyAccessToken(
	ctx context.Context,
	token string,
) (*middleware.AccessTokenClaims, error) {
	claims, _, err := s.jwt.ParseAccessToken(token)
	if err != nil {
		return nil, err
	}

	revoked, err := s.blacklist.contains(ctx, claims.TokenID)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenRevoked)
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if errors.Is(err, core.ErrNotFound) {
		return nil, fmt.Errorf("verify token: %w", core.ErrTokenRevoked)
	}
	if err != nil {
		return nil, fmt.Errorf("verify token: %w", err)
	}
	if claims.TokenVersion < user.TokenVersion {
		return nil, fmt.Errorf("verify token: stale version: %w", core.ErrTokenRevoked)
	}

	return claims, nil
}

func (s *Service) Login(
	ctx context.Context,
	req LoginRequest,
	client Client,
) (*AuthResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			//nolint:errcheck // equalizes timing for unknown emails
			_, _, _ = core.VerifyPasswordTimingSafe(req.Password, nil)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	valid, rehash, err := core.VerifyPasswordTimingSafe(req.Password, &user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return nil, ErrInvalidCredentials
	}

	if rehash != "" {
		//nolint:errcheck // best-effort parameter upgrade
		_ = s.users.UpdatePassword(ctx, user.ID, rehash)
	}

	return s.openSession(ctx, user, "", client)
}

func (s *Service) Register(
	ctx context.Context,
	req RegisterRequest,
	client Client,
) (*AuthResponse, error) {
	hash, err := core.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(ctx, req.Email, hash, req.Name)
	if err != nil {
		if errors.Is(err, core.ErrDuplicateKey) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	return s.openSession(ctx, user, "", client)
}

// Refresh rotates the session behind refreshToken. Presenting a token that
// was already rotated ends the whole login family.
func (s *Service) Refresh(
	ctx context.Context,
	refreshToken string,
	client Client,
) (*AuthResponse, error) {
	session, err := s.repo.ByHash(ctx, core.HashToken(refreshToken))
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("refresh: %w", core.ErrTokenInvalid)
		}
		return nil, fmt.Errorf("refresh: %w", err)
	}

	switch session.State(s.now()) {
	case SessionRotated:
		return nil, s.reuseDetected(ctx, session.FamilyID)
	case SessionRevoked:
		return nil, fmt.Errorf("refresh: %w", core.ErrTokenRevoked)
	case SessionExpired:
		return nil, fmt.Errorf("refresh: %w", core.ErrTokenExpired)
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, fmt.Errorf("refresh: %w", core.ErrTokenRevoked)
		}
		return nil, fmt.Errorf("refresh: %w", err)
	}

	resp, successorID, err := s.issue(ctx, user, session.FamilyID, client)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Rotate(ctx, session.ID, successorID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return nil, s.reuseDetected(ctx, session.FamilyID)
		}
		return nil, fmt.Errorf("refresh: %w", err)
	}

	return resp, nil
}

func (s *Service) reuseDetected(ctx context.Context, familyID string) error {
	//nolint:errcheck // the caller is rejected whether or not this lands
	_, _ = s.repo.RevokeFamily(ctx, familyID)
	return ErrTokenReuse
}

// Logout blacklists the calling access token for the rest of its lifetime
// and ends its session. When refreshToken is given, that session is ended
// instead, provided it belongs to the caller.
func (s *Service) Logout(
	ctx context.Context,
	claims *middleware.AccessTokenClaims,
	accessToken, refreshToken string,
) error {
	if claims == nil {
		return fmt.Errorf("logout: %w", core.ErrUnauthorized)
	}

	if _, expiresAt, err := s.jwt.ParseAccessToken(accessToken); err == nil {
		if err := s.blacklist.add(ctx, claims.TokenID, expiresAt.Sub(s.now())); err != nil {
			return err
		}
	}

	if refreshToken == "" {
		if claims.SessionID == "" {
			return nil
		}
		if _, err := s.repo.RevokeFamily(ctx, claims.SessionID); err != nil {
			return fmt.Errorf("logout: %w", err)
		}
		return nil
	}

	session, err := s.repo.ByHash(ctx, core.HashToken(refreshToken))
	if errors.Is(err, core.ErrNotFound) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}

	if session.UserID != claims.UserID {
		return fmt.Errorf("logout: %w", core.ErrForbidden)
	}

	if _, err := s.repo.RevokeFamily(ctx, session.FamilyID); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// LogoutAll ends every session and invalidates every outstanding access
// token of the user.
func (s *Service) LogoutAll(ctx context.Context, userID string) error {
	if _, err := s.repo.RevokeUser(ctx, userID); err != nil {
		return fmt.Errorf("logout all: %w", err)
	}

	if err := s.users.IncrementTokenVersion(ctx, userID); err != nil {
		return fmt.Errorf("logout all: %w", err)
	}

	return nil
}

// RevokeAccessToken blacklists a single access token until expiresAt.
func (s *Service) RevokeAccessToken(
	ctx context.Context,
	jti string,
	expiresAt time.Time,
) error {
	return s.blacklist.add(ctx, jti, expiresAt.Sub(s.now()))
}

// Sessions lists the user's live sessions. currentFamily marks the one the
// caller is using.
func (s *Service) Sessions(
	ctx context.Context,
	userID, currentFamily string,
) ([]SessionInfo, error) {
	sessions, err := s.repo.ListActive(ctx, userID)
	if err != nil {
		return nil, err
	}

	out := make([]SessionInfo, 0, len(sessions))
	for i := range sessions {
		out = append(out, sessions[i].info(currentFamily))
	}
	return out, nil
}

func (s *Service) RevokeSession(
	ctx context.Context,
	userID, sessionID string,
) error {
	session, err := s.repo.ByID(ctx, sessionID)
	if err != nil {
		return err
	}

	if session.UserID != userID {
		return fmt.Errorf("revoke session: %w", core.ErrForbidden)
	}

	if _, err := s.repo.RevokeFamily(ctx, session.FamilyID); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

// ChangePassword replaces the password and signs the user out everywhere.
func (s *Service) ChangePassword(
	ctx context.Context,
	userID string,
	req ChangePasswordRequest,
) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	valid, _, err := core.VerifyPasswordWithRehash(req.CurrentPassword, user.PasswordHash)
	if err != nil {
		return fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return ErrInvalidCredentials
	}

	hash, err := core.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("change password: %w", err)
	}

	return s.LogoutAll(ctx, userID)
}

func (s *Service) CurrentUser(ctx context.Context, userID string) (*UserResponse, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	resp := toUserResponse(user)
	return &resp, nil
}

// PurgeExpiredTokens removes refresh tokens past their expiry. It runs on
// the cron schedule.
func (s *Service) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	return s.repo.Purge(ctx, s.now().Add(-expiredSessionRetention))
}

func (s *Service) openSession(
	ctx context.Context,
	user *UserInfo,
	familyID string,
	client Client,
) (*AuthResponse, error) {
	resp, _, err := s.issue(ctx, user, familyID, client)
	return resp, err
}

// issue stores a new session row and signs an access token bound to it.
// An empty familyID starts a new login family.
func (s *Service) issue(
	ctx context.Context,
	user *UserInfo,
	familyID string,
	client Client,
) (*AuthResponse, string, error) {
	if familyID == "" {
		familyID = uuid.New().String()
	}

	refreshToken, err := core.GenerateRefreshToken()
	if err != nil {
		return nil, "", fmt.Errorf("generate refresh token: %w", err)
	}

	session := &Session{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		TokenHash: core.HashToken(refreshToken),
		FamilyID:  familyID,
		ExpiresAt: s.now().Add(s.jwt.config.RefreshTokenExpire),
		UserAgent: client.UserAgent,
		IPAddress: client.IPAddress,
	}
	if err := s.repo.Insert(ctx, session); err != nil {
		return nil, "", err
	}

	access, err := s.jwt.CreateAccessToken(AccessClaims{
		UserID:       user.ID,
		SessionID:    familyID,
		TokenVersion: user.TokenVersion,
	})
	if err != nil {
		return nil, "", fmt.Errorf("create access token: %w", err)
	}

	return &AuthResponse{
		User: toUserResponse(user),
		Tokens: TokenResponse{
			AccessToken:      access.Token,
			RefreshToken:     refreshToken,
			TokenType:        "Bearer",
			ExpiresIn:        int(s.jwt.AccessTokenTTL() / time.Second),
			ExpiresAt:        access.ExpiresAt,
			RefreshExpiresAt: session.ExpiresAt,
		},
	}, session.ID, nil
}
