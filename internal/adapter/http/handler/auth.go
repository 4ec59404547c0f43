package handler

import (
	"context"
	"net/http"

	"github.com/Temutjin2k/authhub/internal/adapter/http/handler/dto"
	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/Temutjin2k/authhub/pkg/logger"
	wrap "github.com/Temutjin2k/authhub/pkg/logger/wrapper"
	"github.com/Temutjin2k/authhub/pkg/validator"
	"github.com/google/uuid"
)

type AuthService interface {
	Login(ctx context.Context, email, password string, meta models.LoginMeta) (*models.LoginResult, error)
	Refresh(ctx context.Context, refreshToken string) (*models.TokenPair, error)
	Logout(ctx context.Context, principal *models.Principal, userID uuid.UUID) error
	Me(ctx context.Context, principal *models.Principal) (*models.UserAccess, error)
	JWKS() models.JWKS
}

type Auth struct {
	auth AuthService
	l    logger.Logger
}

func NewAuth(service AuthService, l logger.Logger) *Auth {
	return &Auth{
		auth: service,
		l:    l,
	}
}

// Login godoc
// @Summary      Log in
// @Description  Exchanges email and password for an access and refresh token pair
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      dto.LoginRequest  true  "credentials"
// @Success      200   {object}  map[string]any
// @Failure      401   {object}  map[string]any
// @Router       /api/v1/auth/login [post]
func (h *Auth) Login(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "login_user")

	req := &dto.LoginRequest{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	dto.ValidateLogin(v, req)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	info := models.RequestInfoFromContext(ctx)
	res, err := h.auth.Login(ctx, req.Email, req.Password, models.LoginMeta{IP: info.IP, UserAgent: info.UserAgent})
	if err != nil {
		serviceErrorResponse(ctx, w, h.l, "failed to login user", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{
		"user_id":            res.UserID,
		"access_token":       res.AccessToken,
		"refresh_token":      res.RefreshToken,
		"token_type":         res.TokenType,
		"access_expires_at":  res.AccessExpiresAt,
		"refresh_expires_at": res.RefreshExpiresAt,
	})
}

// Refresh godoc
// @Summary      Rotate a refresh token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      dto.RefreshTokenRequest  true  "refresh token"
// @Success      200   {object}  map[string]any
// @Failure      401   {object}  map[string]any
// @Router       /api/v1/auth/refresh [post]
func (h *Auth) Refresh(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "refresh_token")

	req := &dto.RefreshTokenRequest{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	dto.ValidateRefreshToken(v, req)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	tokens, err := h.auth.Refresh(ctx, req.RefreshToken)
	if err != nil {
		serviceErrorResponse(ctx, w, h.l, "failed to refresh token pair", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{
		"access_token":       tokens.AccessToken,
		"refresh_token":      tokens.RefreshToken,
		"token_type":         tokens.TokenType,
		"access_expires_at":  tokens.AccessExpiresAt,
		"refresh_expires_at": tokens.RefreshExpiresAt,
	})
}

// Logout godoc
// @Summary      Log out
// @Description  Revokes the user's refresh tokens and blacklists the presented access token
// @Tags         auth
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      dto.LogoutRequest  true  "user to log out"
// @Success      200   {object}  map[string]any
// @Failure      403   {object}  map[string]any
// @Router       /api/v1/auth/logout [post]
func (h *Auth) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "logout_user")

	req := &dto.LogoutRequest{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	if err := h.auth.Logout(ctx, models.PrincipalFromContext(ctx), req.UserID); err != nil {
		serviceErrorResponse(ctx, w, h.l, "failed to logout user", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{"message": "logged out"})
}

func (h *Auth) Me(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "get_profile")

	access, err := h.auth.Me(ctx, models.PrincipalFromContext(ctx))
	if err != nil {
		serviceErrorResponse(ctx, w, h.l, "failed to get profile", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{
		"user":        access.User,
		"roles":       access.Roles,
		"permissions": access.Permissions,
	})
}

// JWKS writes the key set unwrapped so standard JWT libraries can consume it.
func (h *Auth) JWKS(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "get_jwks")

	jwks := h.auth.JWKS()
	keys := make([]any, 0, len(jwks.Keys))
	for _, k := range jwks.Keys {
		keys = append(keys, k)
	}
	respond(ctx, w, h.l, http.StatusOK, envelope{"keys": keys})
}
