package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"os"
	"time"

	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/Temutjin2k/authhub/internal/domain/types"
	"github.com/Temutjin2k/authhub/pkg/hasher"
	"github.com/Temutjin2k/authhub/pkg/logger"
	wrap "github.com/Temutjin2k/authhub/pkg/logger/wrapper"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const leeway = 30 * time.Second

type TokenConfig struct {
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	// Secret signs HS256 tokens when no RSA key is configured.
	Secret string
	// PrivateKey switches signing to RS256 and enables JWKS.
	PrivateKey *rsa.PrivateKey
	KeyID      string
}

type TokenService struct {
	cfg         TokenConfig
	method      jwt.SigningMethod
	refreshRepo RefreshTokenRepo
	now         func() time.Time
	log         logger.Logger
}

func NewTokenService(cfg TokenConfig, refreshRepo RefreshTokenRepo, log logger.Logger) (*TokenService, error) {
	s := &TokenService{
		cfg:         cfg,
		refreshRepo: refreshRepo,
		now:         func() time.Time { return time.Now().UTC() },
		log:         log,
	}

	switch {
	case cfg.PrivateKey != nil:
		s.method = jwt.SigningMethodRS256
	case cfg.Secret != "":
		s.method = jwt.SigningMethodHS256
	default:
		return nil, ErrNoSigningKey
	}

	return s, nil
}

// LoadRSAPrivateKey reads a PEM encoded RSA private key (PKCS#1 or PKCS#8).
// An empty path means no key is configured.
func LoadRSAPrivateKey(path string) (*rsa.PrivateKey, error) {
	if path == "" {
		return nil, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read private key: %w", err)
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM(raw)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return key, nil
}

func (s *TokenService) AccessTTL() time.Duration { return s.cfg.AccessTTL }

// GenerateTokens creates a new pair of access and refresh tokens for the
// subject. The refresh token's hash is stored so it can be rotated and revoked.
func (s *TokenService) GenerateTokens(ctx context.Context, subject *models.TokenSubject) (*models.TokenPair, error) {
	ctx = wrap.WithAction(ctx, "generate_tokens")
	if subject == nil || subject.User == nil {
		return nil, wrap.Error(ctx, errors.New("token subject is nil"))
	}

	issuedAt := s.now()
	accessID := uuid.New()
	refreshID := uuid.New()
	accessExp := issuedAt.Add(s.cfg.AccessTTL)
	refreshExp := issuedAt.Add(s.cfg.RefreshTTL)

	accessToken, err := s.sign(s.accessClaims(subject, accessID, issuedAt, accessExp))
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	refreshToken, err := s.sign(s.refreshClaims(subject.User.ID, refreshID, issuedAt, refreshExp))
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	record := &models.RefreshTokenRecord{
		ID:        refreshID,
		UserID:    subject.User.ID,
		TokenHash: hasher.Hash(refreshToken),
		ExpiresAt: refreshExp,
		CreatedAt: issuedAt,
	}
	if err := s.refreshRepo.Save(ctx, record); err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("failed to persist refresh token: %w", err))
	}

	return &models.TokenPair{
		AccessToken:      accessToken,
		RefreshToken:     refreshToken,
		TokenType:        "Bearer",
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Consume marks a validated refresh token as used. It must run inside the
// transaction that issues the replacement pair. Revoked, expired or
// mismatching records are rejected and revoked.
func (s *TokenService) Consume(ctx context.Context, claims *models.Claims, rawToken string) error {
	if claims.Type != types.RefreshToken {
		return ErrInvalidToken
	}

	record, err := s.refreshRepo.Get(ctx, claims.TokenID)
	if err != nil {
		return fmt.Errorf("failed to load refresh token record: %w", err)
	}
	if record == nil || record.Revoked || record.UserID != claims.Subject {
		return ErrInvalidToken
	}

	if s.now().After(record.ExpiresAt) {
		if err := s.refreshRepo.MarkUsed(ctx, record.ID); err != nil {
			return fmt.Errorf("failed to revoke expired refresh token: %w", err)
		}
		return ErrExpToken
	}

	if !hasher.Verify(rawToken, record.TokenHash) {
		if err := s.refreshRepo.MarkUsed(ctx, record.ID); err != nil {
			return fmt.Errorf("failed to revoke mismatched refresh token: %w", err)
		}
		return ErrInvalidToken
	}

	if err := s.refreshRepo.MarkUsed(ctx, record.ID); err != nil {
		return fmt.Errorf("failed to mark refresh token as used: %w", err)
	}
	return nil
}

func (s *TokenService) RevokeUser(ctx context.Context, userID uuid.UUID) (int64, error) {
	return s.refreshRepo.RevokeAllForUser(ctx, userID)
}

// Validate checks signature, algorithm, issuer and expiry of token and
// returns its claims.
func (s *TokenService) Validate(ctx context.Context, token string) (*models.Claims, error) {
	ctx = wrap.WithAction(ctx, "validate_token")

	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithLeeway(leeway),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)

	parsed, err := parser.Parse(token, s.keyFunc)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, wrap.Error(ctx, ErrExpToken)
		}
		return nil, wrap.Error(ctx, ErrInvalidToken)
	}

	mc, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, wrap.Error(ctx, ErrInvalidToken)
	}

	claims, err := claimsFromMap(mc)
	if err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("%w: %v", ErrInvalidToken, err))
	}
	return claims, nil
}

// JWKS returns the public signing keys. HS256 deployments have none.
func (s *TokenService) JWKS() models.JWKS {
	if s.cfg.PrivateKey == nil {
		return models.JWKS{Keys: []models.JWK{}}
	}
	pub := s.cfg.PrivateKey.PublicKey
	return models.JWKS{Keys: []models.JWK{{
		KeyType:   "RSA",
		Use:       "sig",
		Algorithm: jwt.SigningMethodRS256.Alg(),
		KeyID:     s.cfg.KeyID,
		Modulus:   base64.RawURLEncoding.EncodeToString(pub.N.Bytes()),
		Exponent:  base64.RawURLEncoding.EncodeToString(big.NewInt(int64(pub.E)).Bytes()),
	}}}
}

func (s *TokenService) keyFunc(t *jwt.Token) (any, error) {
	if s.cfg.PrivateKey != nil {
		return &s.cfg.PrivateKey.PublicKey, nil
	}
	return []byte(s.cfg.Secret), nil
}

func (s *TokenService) sign(claims jwt.MapClaims) (string, error) {
	token := jwt.NewWithClaims(s.method, claims)
	var key any = []byte(s.cfg.Secret)
	if s.cfg.PrivateKey != nil {
		key = s.cfg.PrivateKey
		if s.cfg.KeyID != "" {
			token.Header["kid"] = s.cfg.KeyID
		}
	}
	return token.SignedString(key)
}

func (s *TokenService) accessClaims(sub *models.TokenSubject, id uuid.UUID, iat, exp time.Time) jwt.MapClaims {
	roles := nonNil(sub.Roles)
	permissions := nonNil(sub.Permissions)

	mc := jwt.MapClaims{
		"iss":             s.cfg.Issuer,
		"sub":             sub.User.ID.String(),
		"jti":             id.String(),
		"iat":             iat.Unix(),
		"exp":             exp.Unix(),
		"token_type":      string(types.AccessToken),
		"tid":             sub.User.TenantID.String(),
		"oid":             sub.User.OrganizationID.String(),
		"email":           sub.User.Email,
		"roles":           roles,
		"permissions":     permissions,
		"permission_hash": hasher.HashSet(permissions),
		"mfa_verified":    false,
	}
	if sub.Tenant != nil {
		mc["tenant_name"] = sub.Tenant.Name
	}
	if sub.Organization != nil {
		mc["org_name"] = sub.Organization.Name
	}
	return mc
}

func (s *TokenService) refreshClaims(userID, id uuid.UUID, iat, exp time.Time) jwt.MapClaims {
	return jwt.MapClaims{
		"iss":        s.cfg.Issuer,
		"sub":        userID.String(),
		"jti":        id.String(),
		"iat":        iat.Unix(),
		"exp":        exp.Unix(),
		"token_type": string(types.RefreshToken),
	}
}

func claimsFromMap(mc jwt.MapClaims) (*models.Claims, error) {
	typ, _ := mc["token_type"].(string)
	if typ != string(types.AccessToken) && typ != string(types.RefreshToken) {
		return nil, errors.New("unknown token_type")
	}

	sub, err := mc.GetSubject()
	if err != nil || sub == "" {
		return nil, errors.New("missing sub")
	}
	subject, err := uuid.Parse(sub)
	if err != nil {
		return nil, errors.New("invalid sub")
	}

	jti, _ := mc["jti"].(string)
	tokenID, err := uuid.Parse(jti)
	if err != nil {
		return nil, errors.New("invalid jti")
	}

	exp, err := mc.GetExpirationTime()
	if err != nil || exp == nil {
		return nil, errors.New("invalid exp")
	}

	c := &models.Claims{
		TokenID:   tokenID,
		Subject:   subject,
		Type:      types.TokenType(typ),
		ExpiresAt: exp.Time.UTC(),
	}
	if iat, err := mc.GetIssuedAt(); err == nil && iat != nil {
		c.IssuedAt = iat.Time.UTC()
	}

	if c.Type == types.RefreshToken {
		return c, nil
	}

	c.TenantID, _ = uuid.Parse(stringClaim(mc, "tid"))
	c.OrganizationID, _ = uuid.Parse(stringClaim(mc, "oid"))
	c.TenantName = stringClaim(mc, "tenant_name")
	c.OrganizationName = stringClaim(mc, "org_name")
	c.Email = stringClaim(mc, "email")
	c.Roles = stringsClaim(mc, "roles")
	c.Permissions = stringsClaim(mc, "permissions")
	c.PermissionHash = stringClaim(mc, "permission_hash")
	return c, nil
}

func stringClaim(mc jwt.MapClaims, key string) string {
	v, _ := mc[key].(string)
	return v
}

func stringsClaim(mc jwt.MapClaims, key string) []string {
	raw, _ := mc[key].([]any)
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}
