package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"maps"
	"net/http"
	"strconv"
	"strings"

	"github.com/Temutjin2k/authhub/internal/domain/models"
	t "github.com/Temutjin2k/authhub/internal/domain/types"
	"github.com/Temutjin2k/authhub/internal/service/auth"
	"github.com/Temutjin2k/authhub/internal/service/endpoint"
	"github.com/Temutjin2k/authhub/internal/service/onboarding"
	"github.com/Temutjin2k/authhub/internal/service/organization"
	"github.com/Temutjin2k/authhub/internal/service/role"
	"github.com/Temutjin2k/authhub/internal/service/subscription"
	"github.com/Temutjin2k/authhub/internal/service/user"
	"github.com/Temutjin2k/authhub/pkg/passhash"
	"github.com/Temutjin2k/authhub/pkg/validator"
	"github.com/google/uuid"
)

type envelope map[string]any

func writeJSON(w http.ResponseWriter, status int, data envelope, headers http.Header) error {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return errors.New("failed to encode json")
	}

	js = append(js, '\n')

	maps.Copy(w.Header(), headers)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(js)

	return nil
}

func readJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	// Use http.MaxBytesReader() to limit the size of the request body to 1MB.
	maxBytes := 1_048_576
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxBytes))

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	// Decode the request body to the destination.
	if err := dec.Decode(dst); err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError

		// Add a new maxBytesError variable.
		var maxBytesError *http.MaxBytesError
		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("body contains incorrect JSON type for field %q", unmarshalTypeError.Field)
			}
			return fmt.Errorf("body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("body must not be empty")

		// If the JSON contains a field which cannot be mapped to the target destination
		// then Decode() will now return an error message in the format "json: unknown
		// field "<name>"". We check for this, extract the field name from the error,
		// and interpolate it into our custom error message. Note that there's an open
		// issue at https://github.com/golang/go/issues/29035 regarding turning this
		// into a distinct error type in the future.
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("body contains unknown key %s", fieldName)

		// Use the errors.As() function to check whether the error has the type
		// *http.MaxBytesError. If it does, then it means the request body exceeded our
		// size limit of 1MB and we return a clear error message.
		case errors.As(err, &maxBytesError):
			return fmt.Errorf("body must not be larger than %d bytes", maxBytesError.Limit)
		case errors.As(err, &invalidUnmarshalError):
			return fmt.Errorf("invalid unmarshal error: %w", err)
		default:
			return err
		}
	}

	// Call Decode() again, using a pointer to an empty anonymous struct as the
	// destination. If the request body only contained a single JSON value this will
	// return an io.EOF error. So if we get anything else, we know that there is
	// additional data in the request body and we return our own custom error message.
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("body must only contain a single JSON value")
	}

	return nil
}

// GetCode maps service errors to HTTP status codes.
func GetCode(err error) int {
	switch {
	case IsOneOf(err,
		auth.ErrUserIDRequired,
		onboarding.ErrIdempotencyKeyRequired,
		onboarding.ErrNameRequired,
		role.ErrEmptyIDs,
		endpoint.ErrEmptyServiceName,
		user.ErrCurrentPasswordEmpty,
		models.ErrInvalidDateRange,
		passhash.ErrPasswordTooLong,
	):
		return http.StatusBadRequest
	case IsOneOf(err,
		auth.ErrInvalidCredentials,
		auth.ErrInvalidToken,
		auth.ErrExpToken,
		auth.ErrTokenRevoked,
		t.ErrUnauthorized,
		t.ErrInvalidServiceToken,
	):
		return http.StatusUnauthorized
	case IsOneOf(err,
		t.ErrAccessDenied,
		auth.ErrUserNotActive,
		auth.ErrTenantNotActive,
		user.ErrWrongPassword,
		role.ErrForeignRole,
		t.ErrSystemDefinition,
	):
		return http.StatusForbidden
	case IsOneOf(err, t.ErrNotFound, endpoint.ErrNoMatch):
		return http.StatusNotFound
	case IsOneOf(err,
		t.ErrConflict,
		t.ErrInvalidTransition,
		models.ErrAlreadyDeleted,
		models.ErrNotDeleted,
	):
		return http.StatusConflict
	case IsOneOf(err,
		models.ErrNotActive,
		models.ErrInvalidPermissionKey,
		models.ErrInvalidURLPattern,
		models.ErrInvalidHTTPMethod,
		organization.ErrTenantNotActive,
		subscription.ErrTenantNotActive,
		subscription.ErrServiceNotActive,
		user.ErrOrganizationMismatch,
		user.ErrParentNotActive,
		role.ErrUnknownPermissions,
		role.ErrUnknownRoles,
	):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func IsOneOf(err error, targets ...error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// pathID parses the {name} path value as a UUID.
func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s", name)
	}
	return id, nil
}

func queryInt(r *http.Request, key string, fallback int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return fallback
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return n
}

// queryUUID returns nil for a missing value and an error for a malformed one.
func queryUUID(r *http.Request, key string) (*uuid.UUID, error) {
	s := r.URL.Query().Get(key)
	if s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("invalid %s", key)
	}
	return &id, nil
}

// readFilters reads page, page_size and sort from the query string.
func readFilters(r *http.Request, safelist []string) models.Filters {
	return models.NewFilters(
		queryInt(r, "page", models.DefaultPage),
		queryInt(r, "page_size", models.DefaultPageSize),
		r.URL.Query().Get("sort"),
		safelist,
	)
}

// readID parses the {id} path value and answers 400 when it is malformed.
func readID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := pathID(r, "id")
	if err != nil {
		badRequestResponse(w, err.Error())
		return uuid.Nil, false
	}
	return id, true
}

func validFilters(w http.ResponseWriter, f models.Filters) bool {
	v := validator.New()
	f.Validate(v)
	if !v.Valid() {
		failedValidationResponse(w, v.Errors)
		return false
	}
	return true
}
