package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/Temutjin2k/authhub/internal/adapter/http/handler/dto"
	"github.com/Temutjin2k/authhub/internal/domain/models"
	"github.com/Temutjin2k/authhub/internal/domain/types"
	"github.com/Temutjin2k/authhub/pkg/logger"
	wrap "github.com/Temutjin2k/authhub/pkg/logger/wrapper"
	"github.com/Temutjin2k/authhub/pkg/validator"
	"github.com/google/uuid"
)

type UserService interface {
	Create(ctx context.Context, req *models.UserCreateRequest) (*models.User, error)
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	List(ctx context.Context, filter models.UserFilter) (models.Page[*models.User], error)
	UpdateProfile(ctx context.Context, id uuid.UUID, name, phone string) (*models.User, error)
	ChangeStatus(ctx context.Context, id uuid.UUID, status types.Status) (*models.User, error)
	Delete(ctx context.Context, id uuid.UUID) (*models.User, error)
	ChangePassword(ctx context.Context, id uuid.UUID, current, next string) error
}

type User struct {
	users UserService
	l     logger.Logger
}

func NewUser(service UserService, l logger.Logger) *User {
	return &User{users: service, l: l}
}

// Create godoc
// @Summary      Create a user
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      dto.CreateUserRequest  true  "user"
// @Success      201   {object}  map[string]any
// @Failure      409   {object}  map[string]any
// @Failure      422   {object}  map[string]any
// @Router       /api/v1/auth/users [post]
func (h *User) Create(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "create_user")

	req := &dto.CreateUserRequest{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	dto.ValidateCreateUser(v, req)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	user, err := h.users.Create(ctx, req.ToModel())
	if err != nil {
		serviceErrorResponse(ctx, w, h.l, "failed to create user", err)
		return
	}

	respond(ctx, w, h.l, http.StatusCreated, envelope{"user": user})
}

func (h *User) List(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "list_users")

	tenantID, err := queryUUID(r, "tenant_id")
	if err != nil {
		badRequestResponse(w, err.Error())
		return
	}
	orgID, err := queryUUID(r, "organization_id")
	if err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	q := r.URL.Query()
	filter := models.UserFilter{
		TenantID:       tenantID,
		OrganizationID: orgID,
		Email:          q.Get("email"),
		Status:         types.Status(strings.ToUpper(q.Get("status"))),
		Filters:        readFilters(r, models.UserSortSafelist),
	}
	if !validFilters(w, filter.Filters) {
		return
	}

	page, err := h.users.List(ctx, filter)
	if err != nil {
		serviceErrorResponse(ctx, w, h.l, "failed to list users", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{"users": page.Items, "metadata": page.Metadata})
}

func (h *User) Get(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "get_user")

	id, ok := readID(w, r)
	if !ok {
		return
	}

	user, err := h.users.Get(ctx, id)
	if err != nil {
		serviceErrorResponse(ctx, w, h.l, "failed to get user", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{"user": user})
}

func (h *User) Update(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "update_user")

	id, ok := readID(w, r)
	if !ok {
		return
	}

	req := &dto.UpdateUserRequest{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	dto.ValidateUpdateUser(v, req)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	user, err := h.users.UpdateProfile(ctx, id, strings.TrimSpace(req.Name), strings.TrimSpace(req.Phone))
	if err != nil {
		serviceErrorResponse(ctx, w, h.l, "failed to update user", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{"user": user})
}

func (h *User) ChangeStatus(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "change_user_status")

	id, ok := readID(w, r)
	if !ok {
		return
	}

	req := &dto.StatusRequest{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}
	req.Status = strings.ToUpper(req.Status)

	v := validator.New()
	dto.ValidateUserStatus(v, req)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	user, err := h.users.ChangeStatus(ctx, id, types.Status(req.Status))
	if err != nil {
		serviceErrorResponse(ctx, w, h.l, "failed to change user status", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{"user": user})
}

func (h *User) ChangePassword(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "change_user_password")

	id, ok := readID(w, r)
	if !ok {
		return
	}

	req := &dto.ChangePasswordRequest{}
	if err := readJSON(w, r, req); err != nil {
		badRequestResponse(w, err.Error())
		return
	}

	v := validator.New()
	dto.ValidateChangePassword(v, req)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return
	}

	if err := h.users.ChangePassword(ctx, id, req.CurrentPassword, req.NewPassword); err != nil {
		serviceErrorResponse(ctx, w, h.l, "failed to change user password", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{"message": "password changed"})
}

func (h *User) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := wrap.WithAction(r.Context(), "delete_user")

	id, ok := readID(w, r)
	if !ok {
		return
	}

	user, err := h.users.Delete(ctx, id)
	if err != nil {
		serviceErrorResponse(ctx, w, h.l, "failed to delete user", err)
		return
	}

	respond(ctx, w, h.l, http.StatusOK, envelope{"user": user})
}
