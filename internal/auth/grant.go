package auth

import (
	"context"
	"crypto/ed25519"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/mbrekke/throwdown/internal/platform/config"
	apperrors "github.com/mbrekke/throwdown/internal/platform/errors"
)

// grantEnv holds raw env values before post-parse validation.
type grantEnv struct {
	Issuer    string `env:"GRANT_ISSUER"`
	Audience  string `env:"GRANT_AUDIENCE"`
	PublicKey string `env:"GRANT_PUBLIC_KEY"`
}

// GrantVerifierConfig defines how actor grants are verified.
type GrantVerifierConfig struct {
	Issuer   string
	Audience string
	Key      ed25519.PublicKey
	Now      func() time.Time
}

// grantClaims is the internal claims type used for JWT parsing.
type grantClaims struct {
	jwt.RegisteredClaims
	PlayerID string `json:"player_id"`
}

// GrantVerifier checks EdDSA-signed actor grants minted by the host
// runtime.
type GrantVerifier struct {
	cfg GrantVerifierConfig
}

// NewGrantVerifier creates a verifier from config.
func NewGrantVerifier(cfg GrantVerifierConfig) (*GrantVerifier, error) {
	if strings.TrimSpace(cfg.Issuer) == "" {
		return nil, fmt.Errorf("grant issuer is required")
	}
	if strings.TrimSpace(cfg.Audience) == "" {
		return nil, fmt.Errorf("grant audience is required")
	}
	if len(cfg.Key) != ed25519.PublicKeySize {
		return nil, fmt.Errorf("grant public key must be %d bytes", ed25519.PublicKeySize)
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &GrantVerifier{cfg: cfg}, nil
}

// LoadGrantVerifierConfigFromEnv reads grant verification configuration.
func LoadGrantVerifierConfigFromEnv(now func() time.Time) (GrantVerifierConfig, error) {
	var raw grantEnv
	if err := config.ParseEnv(&raw); err != nil {
		return GrantVerifierConfig{}, fmt.Errorf("parse grant env: %w", err)
	}
	issuer := strings.TrimSpace(raw.Issuer)
	audience := strings.TrimSpace(raw.Audience)
	publicKey := strings.TrimSpace(raw.PublicKey)
	if issuer == "" {
		return GrantVerifierConfig{}, fmt.Errorf("THROWDOWN_GRANT_ISSUER is required")
	}
	if audience == "" {
		return GrantVerifierConfig{}, fmt.Errorf("THROWDOWN_GRANT_AUDIENCE is required")
	}
	if publicKey == "" {
		return GrantVerifierConfig{}, fmt.Errorf("THROWDOWN_GRANT_PUBLIC_KEY is required")
	}
	keyBytes, err := decodeBase64(publicKey)
	if err != nil {
		return GrantVerifierConfig{}, fmt.Errorf("decode grant public key: %w", err)
	}
	if len(keyBytes) != ed25519.PublicKeySize {
		return GrantVerifierConfig{}, fmt.Errorf("grant public key must be %d bytes", ed25519.PublicKeySize)
	}
	if now == nil {
		now = time.Now
	}
	return GrantVerifierConfig{
		Issuer:   issuer,
		Audience: audience,
		Key:      ed25519.PublicKey(keyBytes),
		Now:      now,
	}, nil
}

// Authorize verifies the grant token and checks it asserts actorID.
func (v *GrantVerifier) Authorize(_ context.Context, grant, actorID string) error {
	grant = strings.TrimSpace(grant)
	if grant == "" {
		return apperrors.New(apperrors.CodeUnauthorized, "actor grant is required")
	}
	if v == nil {
		return errors.New("grant verifier is not configured")
	}

	var parsed grantClaims
	_, err := jwt.ParseWithClaims(grant, &parsed, func(token *jwt.Token) (any, error) {
		return v.cfg.Key, nil
	},
		jwt.WithValidMethods([]string{"EdDSA"}),
		jwt.WithoutClaimsValidation(),
	)
	if err != nil {
		return mapJWTError(err)
	}

	if parsed.Issuer == "" || parsed.Issuer != v.cfg.Issuer {
		return apperrors.WithMetadata(apperrors.CodeUnauthorized,
			"actor grant issuer mismatch",
			map[string]string{"field": "issuer"})
	}
	if !audienceContains(parsed.Audience, v.cfg.Audience) {
		return apperrors.WithMetadata(apperrors.CodeUnauthorized,
			"actor grant audience mismatch",
			map[string]string{"field": "audience"})
	}
	if parsed.ExpiresAt == nil {
		return apperrors.New(apperrors.CodeUnauthorized, "actor grant exp is required")
	}

	now := v.cfg.Now().UTC()
	if !parsed.ExpiresAt.Time.UTC().After(now) {
		return apperrors.New(apperrors.CodeUnauthorized, "actor grant is expired")
	}
	if parsed.NotBefore != nil && now.Before(parsed.NotBefore.Time.UTC()) {
		return apperrors.New(apperrors.CodeUnauthorized, "actor grant not active yet")
	}

	if strings.TrimSpace(parsed.PlayerID) == "" || parsed.PlayerID != actorID {
		return apperrors.WithMetadata(apperrors.CodeUnauthorized,
			"actor grant player mismatch",
			map[string]string{"field": "player_id"})
	}
	return nil
}

// mapJWTError translates jwt library errors to application errors.
func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenSignatureInvalid) || errors.Is(err, jwt.ErrEd25519Verification) {
		return apperrors.New(apperrors.CodeUnauthorized, "actor grant signature is invalid")
	}
	if errors.Is(err, jwt.ErrTokenUnverifiable) {
		return apperrors.New(apperrors.CodeUnauthorized, "actor grant alg is invalid")
	}
	return apperrors.New(apperrors.CodeUnauthorized, "actor grant is invalid")
}

// audienceContains reports whether the audience list contains the value.
func audienceContains(aud jwt.ClaimStrings, value string) bool {
	for _, item := range aud {
		if item == value {
			return true
		}
	}
	return false
}

func decodeBase64(value string) ([]byte, error) {
	if value == "" {
		return nil, errors.New("empty base64 value")
	}
	decoded, err := base64.RawStdEncoding.DecodeString(value)
	if err == nil {
		return decoded, nil
	}
	return base64.StdEncoding.DecodeString(value)
}

var _ Authorizer = (*GrantVerifier)(nil)
