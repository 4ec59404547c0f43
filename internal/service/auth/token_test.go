package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/Temutjin2k/authhub/internal/domain/types"
	"github.com/Temutjin2k/authhub/pkg/hasher"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSubject() *models.TokenSubject {
	tenant := models.NewTenant("Acme", time.Now())
	org := models.NewOrganization(tenant.ID, "HQ", time.Now())
	return &models.TokenSubject{
		User: &models.User{
			ID:             uuid.New(),
			TenantID:       tenant.ID,
			OrganizationID: org.ID,
			Email:          "jane@acme.io",
			Status:         types.StatusActive,
		},
		Tenant:       tenant,
		Organization: org,
		Roles:        []string{types.RoleTenantAdmin},
		Permissions:  []string{"user:read", "tenant:read"},
	}
}

func hsConfig() TokenConfig {
	return TokenConfig{
		Issuer:     "authhub-test",
		AccessTTL:  15 * time.Minute,
		RefreshTTL: 24 * time.Hour,
		Secret:     "test-secret-value",
	}
}

func TestNewTokenService_RequiresKey(t *testing.T) {
	_, err := NewTokenService(TokenConfig{Issuer: "x"}, newMemRefreshRepo(), testLogger())
	require.ErrorIs(t, err, ErrNoSigningKey)
}

func TestTokenService_HS256RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newMemRefreshRepo()
	svc, err := NewTokenService(hsConfig(), repo, testLogger())
	require.NoError(t, err)

	sub := testSubject()
	pair, err := svc.GenerateTokens(ctx, sub)
	require.NoError(t, err)
	assert.Equal(t, "Bearer", pair.TokenType)
	assert.True(t, pair.RefreshExpiresAt.After(pair.AccessExpiresAt))

	claims, err := svc.Validate(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, types.AccessToken, claims.Type)
	assert.Equal(t, sub.User.ID, claims.Subject)
	assert.Equal(t, sub.User.TenantID, claims.TenantID)
	assert.Equal(t, sub.User.OrganizationID, claims.OrganizationID)
	assert.Equal(t, "Acme", claims.TenantName)
	assert.Equal(t, "HQ", claims.OrganizationName)
	assert.Equal(t, sub.Permissions, claims.Permissions)
	assert.Equal(t, hasher.HashSet(sub.Permissions), claims.PermissionHash)

	refresh, err := svc.Validate(ctx, pair.RefreshToken)
	require.NoError(t, err)
	assert.Equal(t, types.RefreshToken, refresh.Type)
	assert.Empty(t, refresh.Permissions)

	rec, err := repo.Get(ctx, refresh.TokenID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, hasher.Hash(pair.RefreshToken), rec.TokenHash)
	assert.Equal(t, sub.User.ID, rec.UserID)
}

func TestTokenService_RS256AndJWKS(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	cfg := hsConfig()
	cfg.Secret = ""
	cfg.PrivateKey = key
	cfg.KeyID = "key-1"

	svc, err := NewTokenService(cfg, newMemRefreshRepo(), testLogger())
	require.NoError(t, err)

	pair, err := svc.GenerateTokens(context.Background(), testSubject())
	require.NoError(t, err)

	parsed, _, err := jwt.NewParser().ParseUnverified(pair.AccessToken, jwt.MapClaims{})
	require.NoError(t, err)
	assert.Equal(t, "RS256", parsed.Method.Alg())
	assert.Equal(t, "key-1", parsed.Header["kid"])

	_, err = svc.Validate(context.Background(), pair.AccessToken)
	require.NoError(t, err)

	jwks := svc.JWKS()
	require.Len(t, jwks.Keys, 1)
	assert.Equal(t, "RSA", jwks.Keys[0].KeyType)
	assert.Equal(t, "key-1", jwks.Keys[0].KeyID)
	assert.Equal(t, "AQAB", jwks.Keys[0].Exponent)
	assert.NotEmpty(t, jwks.Keys[0].Modulus)
}

func TestTokenService_JWKSEmptyForHS256(t *testing.T) {
	svc, err := NewTokenService(hsConfig(), newMemRefreshRepo(), testLogger())
	require.NoError(t, err)
	assert.NotNil(t, svc.JWKS().Keys)
	assert.Empty(t, svc.JWKS().Keys)
}

func TestTokenService_RejectsForeignTokens(t *testing.T) {
	ctx := context.Background()
	svc, err := NewTokenService(hsConfig(), newMemRefreshRepo(), testLogger())
	require.NoError(t, err)

	otherCfg := hsConfig()
	otherCfg.Secret = "another-secret"
	other, err := NewTokenService(otherCfg, newMemRefreshRepo(), testLogger())
	require.NoError(t, err)

	pair, err := other.GenerateTokens(ctx, testSubject())
	require.NoError(t, err)

	_, err = svc.Validate(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	issuerCfg := hsConfig()
	issuerCfg.Issuer = "someone-else"
	foreignIssuer, err := NewTokenService(issuerCfg, newMemRefreshRepo(), testLogger())
	require.NoError(t, err)
	pair, err = foreignIssuer.GenerateTokens(ctx, testSubject())
	require.NoError(t, err)

	_, err = svc.Validate(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = svc.Validate(ctx, "not-a-jwt")
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_RejectsWrongAlgorithm(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	cfg := hsConfig()
	cfg.PrivateKey = key
	rsSvc, err := NewTokenService(cfg, newMemRefreshRepo(), testLogger())
	require.NoError(t, err)

	hsSvc, err := NewTokenService(hsConfig(), newMemRefreshRepo(), testLogger())
	require.NoError(t, err)

	pair, err := hsSvc.GenerateTokens(context.Background(), testSubject())
	require.NoError(t, err)

	_, err = rsSvc.Validate(context.Background(), pair.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestTokenService_Expired(t *testing.T) {
	ctx := context.Background()
	svc, err := NewTokenService(hsConfig(), newMemRefreshRepo(), testLogger())
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	pair, err := svc.GenerateTokens(ctx, testSubject())
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now() }
	_, err = svc.Validate(ctx, pair.AccessToken)
	assert.ErrorIs(t, err, ErrExpToken)
}

func TestTokenService_LeewayAcceptsSlightlyExpired(t *testing.T) {
	ctx := context.Background()
	cfg := hsConfig()
	cfg.AccessTTL = time.Minute
	svc, err := NewTokenService(cfg, newMemRefreshRepo(), testLogger())
	require.NoError(t, err)

	start := time.Now()
	svc.now = func() time.Time { return start }
	pair, err := svc.GenerateTokens(ctx, testSubject())
	require.NoError(t, err)

	svc.now = func() time.Time { return start.Add(time.Minute + 10*time.Second) }
	_, err = svc.Validate(ctx, pair.AccessToken)
	assert.NoError(t, err)
}

func TestTokenService_ConsumeRotation(t *testing.T) {
	ctx := context.Background()
	repo := newMemRefreshRepo()
	svc, err := NewTokenService(hsConfig(), repo, testLogger())
	require.NoError(t, err)

	pair, err := svc.GenerateTokens(ctx, testSubject())
	require.NoError(t, err)
	claims, err := svc.Validate(ctx, pair.RefreshToken)
	require.NoError(t, err)

	require.NoError(t, svc.Consume(ctx, claims, pair.RefreshToken))

	// A refresh token can be used once.
	assert.ErrorIs(t, svc.Consume(ctx, claims, pair.RefreshToken), ErrInvalidToken)
}

func TestTokenService_ConsumeHashMismatchRevokes(t *testing.T) {
	ctx := context.Background()
	repo := newMemRefreshRepo()
	svc, err := NewTokenService(hsConfig(), repo, testLogger())
	require.NoError(t, err)

	pair, err := svc.GenerateTokens(ctx, testSubject())
	require.NoError(t, err)
	claims, err := svc.Validate(ctx, pair.RefreshToken)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Consume(ctx, claims, "tampered"), ErrInvalidToken)

	rec, err := repo.Get(ctx, claims.TokenID)
	require.NoError(t, err)
	assert.True(t, rec.Revoked)
}

func TestTokenService_ConsumeRejectsAccessToken(t *testing.T) {
	ctx := context.Background()
	svc, err := NewTokenService(hsConfig(), newMemRefreshRepo(), testLogger())
	require.NoError(t, err)

	pair, err := svc.GenerateTokens(ctx, testSubject())
	require.NoError(t, err)
	claims, err := svc.Validate(ctx, pair.AccessToken)
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Consume(ctx, claims, pair.AccessToken), ErrInvalidToken)
}

func TestTokenService_RevokeUser(t *testing.T) {
	ctx := context.Background()
	repo := newMemRefreshRepo()
	svc, err := NewTokenService(hsConfig(), repo, testLogger())
	require.NoError(t, err)

	sub := testSubject()
	for range 3 {
		_, err := svc.GenerateTokens(ctx, sub)
		require.NoError(t, err)
	}

	n, err := svc.RevokeUser(ctx, sub.User.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)
}

func TestLoadRSAPrivateKey(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	dir := t.TempDir()
	pkcs1 := filepath.Join(dir, "pkcs1.pem")
	require.NoError(t, os.WriteFile(pkcs1, pem.EncodeToMemory(&pem.Block{
		Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key),
	}), 0o600))

	der, err := x509.MarshalPKCS8PrivateKey(key)
	require.NoError(t, err)
	pkcs8 := filepath.Join(dir, "pkcs8.pem")
	require.NoError(t, os.WriteFile(pkcs8, pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), 0o600))

	for _, path := range []string{pkcs1, pkcs8} {
		got, err := LoadRSAPrivateKey(path)
		require.NoError(t, err)
		assert.True(t, key.Equal(got))
	}

	got, err := LoadRSAPrivateKey("")
	assert.NoError(t, err)
	assert.Nil(t, got)

	garbage := filepath.Join(dir, "garbage.pem")
	require.NoError(t, os.WriteFile(garbage, []byte("not a key"), 0o600))
	_, err = LoadRSAPrivateKey(garbage)
	assert.Error(t, err)

	_, err = LoadRSAPrivateKey(filepath.Join(dir, "missing.pem"))
	assert.Error(t, err)
}
