package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/Temutjin2k/authhub/internal/domain/types"
	"github.com/Temutjin2k/authhub/pkg/logger"
	wrap "github.com/Temutjin2k/authhub/pkg/logger/wrapper"
	"github.com/Temutjin2k/authhub/pkg/metrics"
	"github.com/Temutjin2k/authhub/pkg/trm"
	"github.com/google/uuid"
)

type AuthService struct {
	repos     Repositories
	tokens    TokenProvider
	blacklist Blacklist
	hasher    PasswordHasher
	publisher EventPublisher
	trm       trm.TxManager
	log       logger.Logger

	// dummyHash is compared against when the user does not exist so that
	// unknown emails take as long as wrong passwords.
	dummyHash string
}

func NewAuthService(
	repos Repositories,
	tokens TokenProvider,
	blacklist Blacklist,
	hasher PasswordHasher,
	publisher EventPublisher,
	trm trm.TxManager,
	log logger.Logger,
) *AuthService {
	dummy, err := hasher.Hash("authhub-timing-equalizer")
	if err != nil {
		log.Warn(context.Background(), "failed to prepare dummy password hash", "error", err)
	}

	return &AuthService{
		repos:     repos,
		tokens:    tokens,
		blacklist: blacklist,
		hasher:    hasher,
		publisher: publisher,
		trm:       trm,
		log:       log,
		dummyHash: dummy,
	}
}

// Login checks the credentials and issues a token pair carrying the user's
// roles and permissions.
func (s *AuthService) Login(ctx context.Context, email, password string, meta models.LoginMeta) (_ *models.LoginResult, err error) {
	ctx = wrap.WithAction(ctx, types.ActionLogin)
	defer func() { metrics.RecordLogin(err) }()

	user, err := s.repos.Users.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, types.ErrNotFound) {
		return nil, wrap.Error(ctx, err)
	}

	if user == nil {
		if s.dummyHash != "" {
			_, _ = s.hasher.Verify(password, s.dummyHash)
		}
		return nil, wrap.Error(ctx, ErrInvalidCredentials)
	}
	ctx = wrap.WithLogCtx(ctx, wrap.LogCtx{UserID: user.ID.String(), TenantID: user.TenantID.String()})

	ok, err := s.hasher.Verify(password, user.PasswordHash)
	if err != nil || !ok {
		s.log.Warn(ctx, "login failed: wrong password", "ip", meta.IP)
		return nil, wrap.Error(ctx, ErrInvalidCredentials)
	}

	if !user.IsActive() {
		return nil, wrap.Error(ctx, fmt.Errorf("%w: status %s", ErrUserNotActive, user.Status))
	}

	subject, err := s.subject(ctx, user)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	pair, err := s.tokens.GenerateTokens(ctx, subject)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	metrics.TokensIssuedTotal.WithLabelValues("login").Inc()
	s.log.Info(ctx, "user logged in", "ip", meta.IP, "user_agent", meta.UserAgent)

	return &models.LoginResult{UserID: user.ID, TokenPair: pair}, nil
}

// Refresh rotates a refresh token: the presented token is marked used and a
// new pair is issued in the same transaction.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error) {
	ctx = wrap.WithAction(ctx, types.ActionRefresh)

	claims, err := s.tokens.Validate(ctx, refreshToken)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	if claims.Type != types.RefreshToken {
		return nil, wrap.Error(ctx, ErrInvalidToken)
	}
	ctx = wrap.WithUserID(ctx, claims.Subject.String())

	revoked, err := s.blacklist.Exists(ctx, claims.TokenID.String())
	if err != nil {
		return nil, wrap.Error(ctx, fmt.Errorf("failed to check blacklist: %w", err))
	}
	if revoked {
		return nil, wrap.Error(ctx, ErrTokenRevoked)
	}

	var (
		pair *models.TokenPair
		// consumeErr is returned after commit so that revocations done while
		// rejecting the token are persisted.
		consumeErr error
	)
	err = s.trm.Do(ctx, func(ctx context.Context) error {
		if err := s.tokens.Consume(ctx, claims, refreshToken); err != nil {
			if errors.Is(err, ErrInvalidToken) || errors.Is(err, ErrExpToken) {
				consumeErr = err
				return nil
			}
			return err
		}

		user, err := s.repos.Users.GetByID(ctx, claims.Subject)
		if err != nil {
			if errors.Is(err, types.ErrNotFound) {
				consumeErr = ErrInvalidToken
				return nil
			}
			return err
		}
		if !user.IsActive() {
			consumeErr = ErrUserNotActive
			return nil
		}

		subject, err := s.subject(ctx, user)
		if err != nil {
			return err
		}

		pair, err = s.tokens.GenerateTokens(ctx, subject)
		return err
	})
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	if consumeErr != nil {
		return nil, wrap.Error(ctx, consumeErr)
	}

	metrics.TokensIssuedTotal.WithLabelValues("refresh").Inc()
	return pair, nil
}

// Logout revokes every refresh token of userID and blacklists the access
// token the caller presented.
func (s *AuthService) Logout(ctx context.Context, principal *models.Principal, userID uuid.UUID) error {
	ctx = wrap.WithAction(ctx, types.ActionLogout)

	if userID == uuid.Nil {
		return wrap.Error(ctx, ErrUserIDRequired)
	}
	if !principal.IsAuthenticated() {
		return wrap.Error(ctx, types.ErrUnauthorized)
	}
	if principal.UserID != userID && !principal.IsSuperAdmin() {
		return wrap.Error(ctx, types.ErrAccessDenied)
	}

	revoked, err := s.tokens.RevokeUser(ctx, userID)
	if err != nil {
		return wrap.Error(ctx, fmt.Errorf("failed to revoke refresh tokens: %w", err))
	}

	if principal.TokenID != "" {
		entry := models.BlacklistEntry{
			TokenID:       principal.TokenID,
			ExpiresAt:     principal.TokenExpiresAt,
			Reason:        types.RevokeLogout,
			BlacklistedAt: time.Now().UTC(),
		}
		if err := s.blacklist.Add(ctx, entry); err != nil {
			return wrap.Error(ctx, fmt.Errorf("failed to blacklist access token: %w", err))
		}
	}

	s.publisher.Publish(ctx, models.NewEvent(models.EventTokenRevoked, map[string]any{
		"user_id":  userID.String(),
		"reason":   string(types.RevokeLogout),
		"revoked":  revoked,
		"token_id": principal.TokenID,
	}))
	s.log.Info(ctx, "user logged out", "target_user_id", userID.String(), "refresh_tokens_revoked", revoked)
	return nil
}

// Authenticate turns a bearer access token into a principal.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*models.Principal, error) {
	claims, err := s.tokens.Validate(ctx, token)
	if err != nil {
		return nil, err
	}
	if claims.Type != types.AccessToken {
		return nil, ErrInvalidToken
	}

	revoked, err := s.blacklist.Exists(ctx, claims.TokenID.String())
	if err != nil {
		return nil, fmt.Errorf("failed to check blacklist: %w", err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	return models.PrincipalFromClaims(claims), nil
}

// Me returns the caller with its current roles and permissions.
func (s *AuthService) Me(ctx context.Context, principal *models.Principal) (*models.UserAccess, error) {
	if !principal.IsAuthenticated() || principal.UserID == uuid.Nil {
		return nil, types.ErrUnauthorized
	}

	user, err := s.repos.Users.GetByID(ctx, principal.UserID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	roles, err := s.repos.Access.UserRoleNames(ctx, user.ID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}
	permissions, err := s.repos.Access.UserPermissionKeys(ctx, user.ID)
	if err != nil {
		return nil, wrap.Error(ctx, err)
	}

	return &models.UserAccess{User: user, Roles: roles, Permissions: permissions}, nil
}

func (s *AuthService) JWKS() models.JWKS {
	return s.tokens.JWKS()
}

// subject loads what goes into the access token and checks that the user's
// tenant and organization are active.
func (s *AuthService) subject(ctx context.Context, user *models.User) (*models.TokenSubject, error) {
	tenant, err := s.repos.Tenants.GetByID(ctx, user.TenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tenant: %w", err)
	}
	if !tenant.IsActive() {
		return nil, ErrTenantNotActive
	}

	org, err := s.repos.Organizations.GetByID(ctx, user.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to load organization: %w", err)
	}
	if !org.IsActive() {
		return nil, ErrTenantNotActive
	}

	roles, err := s.repos.Access.UserRoleNames(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load roles: %w", err)
	}
	permissions, err := s.repos.Access.UserPermissionKeys(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load permissions: %w", err)
	}

	return &models.TokenSubject{
		User:         user,
		Tenant:       tenant,
		Organization: org,
		Roles:        roles,
		Permissions:  permissions,
	}, nil
}
