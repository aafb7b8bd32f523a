// AngelaMos | 2026
// jwt.go

package auth

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/lestrrat-go/jwx/v3/jwa"
	"github.com/lestrrat-go/jwx/v3/jwk"
	"github.com/lestrrat-go/jwx/v3/jwt"

	"github.com/carterperez-dev/joborders/internal/config"
	"github.com/carterperez-dev/joborders/internal/core"
	"github.com/carterperez-dev/joborders/internal/middleware"
)

const (
	claimType         = "type"
	claimTokenVersion = "token_version"
	claimSessionID    = "sid"
	accessTokenType   = "access"
	keyIDLength       = 16
)

// JWTManager signs and verifies ES256 access tokens and publishes the
// verification key as a JWKS.
type JWTManager struct {
	privateKey jwk.Key
	publicKey  jwk.Key
	publicJWKS jwk.Set
	config     config.JWTConfig
	now        func() time.Time
}

func NewJWTManager(cfg config.JWTConfig) (*JWTManager, error) {
	privateKeyPEM, err := os.ReadFile(cfg.PrivateKeyPath)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}

	privateKey, err := jwk.ParseKey(privateKeyPEM, jwk.WithPEM(true))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}

	keyID, err := thumbprintID(privateKey)
	if err != nil {
		return nil, err
	}
	if err := tagKey(privateKey, keyID); err != nil {
		return nil, err
	}

	publicKey, err := privateKey.PublicKey()
	if err != nil {
		return nil, fmt.Errorf("derive public key: %w", err)
	}
	if err := publicKey.Set(jwk.KeyUsageKey, "sig"); err != nil {
		return nil, fmt.Errorf("set key usage: %w", err)
	}

	publicJWKS := jwk.NewSet()
	if err := publicJWKS.AddKey(publicKey); err != nil {
		return nil, fmt.Errorf("add key to set: %w", err)
	}

	return &JWTManager{
		privateKey: privateKey,
		publicKey:  publicKey,
		publicJWKS: publicJWKS,
		config:     cfg,
		now:        time.Now,
	}, nil
}

// thumbprintID derives a key id that stays stable across restarts for the
// same key file.
func thumbprintID(key jwk.Key) (string, error) {
	sum, err := key.Thumbprint(crypto.SHA256)
	if err != nil {
		return "", fmt.Errorf("key thumbprint: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(sum)[:keyIDLength], nil
}

func tagKey(key jwk.Key, keyID string) error {
	if err := key.Set(jwk.AlgorithmKey, jwa.ES256()); err != nil {
		return fmt.Errorf("set algorithm: %w", err)
	}
	if err := key.Set(jwk.KeyIDKey, keyID); err != nil {
		return fmt.Errorf("set key id: %w", err)
	}
	return nil
}

// GenerateKeyPair writes a fresh P-256 key pair as PEM files.
func GenerateKeyPair(privateKeyPath, publicKeyPath string) error {
	raw, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return fmt.Errorf("generate key: %w", err)
	}

	private, err := jwk.Import(raw)
	if err != nil {
		return fmt.Errorf("import private key: %w", err)
	}

	public, err := private.PublicKey()
	if err != nil {
		return fmt.Errorf("derive public key: %w", err)
	}

	if err := writePEM(private, privateKeyPath, 0o600); err != nil {
		return err
	}
	return writePEM(public, publicKeyPath, 0o644)
}

func writePEM(key jwk.Key, path string, mode os.FileMode) error {
	data, err := jwk.Pem(key)
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, mode); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

// AccessClaims is what an access token asserts: who the caller is, the
// login session it belongs to and its token generation. Authorization data
// is never embedded.
type AccessClaims struct {
	UserID       string
	SessionID    string
	TokenVersion int
}

// IssuedToken is a signed access token with the identifiers needed to
// revoke it later.
type IssuedToken struct {
	Token     string
	ID        string
	ExpiresAt time.Time
}

func (m *JWTManager) AccessTokenTTL() time.Duration {
	return m.config.AccessTokenExpire
}

func (m *JWTManager) CreateAccessToken(claims AccessClaims) (*IssuedToken, error) {
	now := m.now()
	jti := uuid.New().String()
	expiresAt := now.Add(m.config.AccessTokenExpire)

	token, err := jwt.NewBuilder().
		JwtID(jti).
		Issuer(m.config.Issuer).
		Audience([]string{m.config.Audience}).
		Subject(claims.UserID).
		IssuedAt(now).
		NotBefore(now).
		Expiration(expiresAt).
		Claim(claimType, accessTokenType).
		Claim(claimTokenVersion, claims.TokenVersion).
		Claim(claimSessionID, claims.SessionID).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build token: %w", err)
	}

	signed, err := jwt.Sign(token, jwt.WithKey(jwa.ES256(), m.privateKey))
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &IssuedToken{Token: string(signed), ID: jti, ExpiresAt: expiresAt}, nil
}

// ParseAccessToken checks signature, lifetime, issuer, audience and shape.
// Revocation is checked by Service.VerifyAccessToken.
func (m *JWTManager) ParseAccessToken(
	tokenString string,
) (*middleware.AccessTokenClaims, time.Time, error) {
	token, err := jwt.Parse(
		[]byte(tokenString),
		jwt.WithKey(jwa.ES256(), m.publicKey),
		jwt.WithValidate(false),
	)
	if err != nil {
		return nil, time.Time{}, invalidToken("signature")
	}

	expiresAt, ok := token.Expiration()
	if !ok {
		return nil, time.Time{}, invalidToken("missing exp")
	}
	if !m.now().Before(expiresAt) {
		return nil, time.Time{}, fmt.Errorf("verify token: %w", core.ErrTokenExpired)
	}

	err = jwt.Validate(token,
		jwt.WithClock(jwt.ClockFunc(m.now)),
		jwt.WithIssuer(m.config.Issuer),
		jwt.WithAudience(m.config.Audience),
	)
	if err != nil {
		return nil, time.Time{}, invalidToken("claims")
	}

	var tokenType string
	if err := token.Get(claimType, &tokenType); err != nil || tokenType != accessTokenType {
		return nil, time.Time{}, invalidToken("type")
	}

	subject, ok := token.Subject()
	if !ok || subject == "" {
		return nil, time.Time{}, invalidToken("missing sub")
	}

	jti, ok := token.JwtID()
	if !ok || jti == "" {
		return nil, time.Time{}, invalidToken("missing jti")
	}

	var version float64
	if err := token.Get(claimTokenVersion, &version); err != nil {
		return nil, time.Time{}, invalidToken("missing token_version")
	}

	var sessionID string
	//nolint:errcheck // sid is optional
	_ = token.Get(claimSessionID, &sessionID)

	return &middleware.AccessTokenClaims{
		UserID:       subject,
		TokenID:      jti,
		SessionID:    sessionID,
		TokenVersion: int(version),
	}, expiresAt, nil
}

func invalidToken(reason string) error {
	return fmt.Errorf("verify token: %s: %w", reason, core.ErrTokenInvalid)
}

func (m *JWTManager) GetJWKSHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Cache-Control", "public, max-age=3600")

		if err := json.NewEncoder(w).Encode(m.publicJWKS); err != nil {
			http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		}
	}
}
