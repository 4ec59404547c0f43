package models

import (
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

var allowedMethods = map[string]struct{}{
	http.MethodGet:     {},
	http.MethodPost:    {},
	http.MethodPut:     {},
	http.MethodPatch:   {},
	http.MethodDelete:  {},
	http.MethodHead:    {},
	http.MethodOptions: {},
}

// PermissionEndpoint binds an HTTP route of a service to the permission it requires.
type PermissionEndpoint struct {
	ID            uuid.UUID `json:"id"`
	PermissionID  uuid.UUID `json:"permission_id"`
	PermissionKey string    `json:"permission_key,omitempty"`
	ServiceName   string    `json:"service_name"`
	URLPattern    string    `json:"url_pattern"`
	HTTPMethod    string    `json:"http_method"`
	Description   string    `json:"description"`
	IsPublic      bool      `json:"is_public"`
	Deleted       bool      `json:"deleted"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func NewPermissionEndpoint(permissionID uuid.UUID, serviceName, pattern, method, description string, isPublic bool, now time.Time) (*PermissionEndpoint, error) {
	method, err := NormalizeMethod(method)
	if err != nil {
		return nil, err
	}
	if !strings.HasPrefix(pattern, "/") {
		return nil, ErrInvalidURLPattern
	}
	return &PermissionEndpoint{
		ID:           uuid.New(),
		PermissionID: permissionID,
		ServiceName:  serviceName,
		URLPattern:   pattern,
		HTTPMethod:   method,
		Description:  description,
		IsPublic:     isPublic,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Update replaces the mutable fields. Empty pattern or method keep the current value.
func (e *PermissionEndpoint) Update(pattern, method, description string, isPublic bool, now time.Time) error {
	if e.Deleted {
		return ErrAlreadyDeleted
	}
	if pattern != "" {
		if !strings.HasPrefix(pattern, "/") {
			return ErrInvalidURLPattern
		}
		e.URLPattern = pattern
	}
	if method != "" {
		m, err := NormalizeMethod(method)
		if err != nil {
			return err
		}
		e.HTTPMethod = m
	}
	e.Description = description
	e.IsPublic = isPublic
	e.UpdatedAt = now
	return nil
}

func (e *PermissionEndpoint) Delete(now time.Time) error {
	if e.Deleted {
		return ErrAlreadyDeleted
	}
	e.Deleted = true
	e.UpdatedAt = now
	return nil
}

// Key identifies the endpoint within all services.
func (e *PermissionEndpoint) Key() string {
	return EndpointKey(e.ServiceName, e.URLPattern, e.HTTPMethod)
}

// Matches reports whether a request with method and path hits this endpoint.
func (e *PermissionEndpoint) Matches(method, path string) bool {
	if !strings.EqualFold(e.HTTPMethod, method) {
		return false
	}
	return PatternMatches(e.URLPattern, path)
}

func EndpointKey(serviceName, pattern, method string) string {
	return serviceName + "|" + pattern + "|" + strings.ToUpper(method)
}

func NormalizeMethod(method string) (string, error) {
	m := strings.ToUpper(strings.TrimSpace(method))
	if _, ok := allowedMethods[m]; !ok {
		return "", ErrInvalidHTTPMethod
	}
	return m, nil
}

var patternCache sync.Map // pattern -> *regexp.Regexp

// PatternMatches matches path against a URL pattern where {name} stands for
// one path segment, * for any characters within a segment and ** for any
// characters across segments.
func PatternMatches(pattern, path string) bool {
	if cached, ok := patternCache.Load(pattern); ok {
		return cached.(*regexp.Regexp).MatchString(path)
	}
	rx := regexp.MustCompile(PatternToRegexp(pattern))
	patternCache.Store(pattern, rx)
	return rx.MatchString(path)
}

// PatternToRegexp converts a URL pattern to an anchored regular expression.
func PatternToRegexp(pattern string) string {
	var b strings.Builder
	b.WriteByte('^')

	for i := 0; i < len(pattern); {
		switch {
		case pattern[i] == '{':
			end := strings.IndexByte(pattern[i:], '}')
			if end == -1 {
				b.WriteString(regexp.QuoteMeta(pattern[i:]))
				i = len(pattern)
				continue
			}
			b.WriteString(`[^/]+`)
			i += end + 1
		case strings.HasPrefix(pattern[i:], "**"):
			b.WriteString(`.*`)
			i += 2
		case pattern[i] == '*':
			b.WriteString(`[^/]*`)
			i++
		default:
			b.WriteString(regexp.QuoteMeta(pattern[i : i+1]))
			i++
		}
	}

	b.WriteByte('$')
	return b.String()
}

type EndpointFilter struct {
	ServiceName  string
	PermissionID *uuid.UUID
	Method       string
	IsPublic     *bool
	Filters
}

var EndpointSortSafelist = []string{"url_pattern", "created_at", "-url_pattern", "-created_at"}

// EndpointSpec is the snapshot gateways download to enforce permissions.
type EndpointSpec struct {
	Version   string                `json:"version"`
	UpdatedAt time.Time             `json:"updated_at"`
	Endpoints []*PermissionEndpoint `json:"endpoints"`
}

// SyncRequest is the endpoint inventory a service reports at startup.
// ServiceCode is optional and enables role mapping for new permissions.
type SyncRequest struct {
	ServiceName string     `json:"service_name"`
	ServiceCode string     `json:"service_code,omitempty"`
	Endpoints   []SyncItem `json:"endpoints"`
}

// SyncItem is one endpoint reported by a service during sync.
type SyncItem struct {
	PermissionKey string `json:"permission_key"`
	Path          string `json:"path"`
	Method        string `json:"method"`
	Description   string `json:"description"`
	IsPublic      bool   `json:"is_public"`
}

type SyncResult struct {
	ServiceName        string `json:"service_name"`
	Total              int    `json:"total"`
	PermissionsCreated int    `json:"permissions_created"`
	EndpointsCreated   int    `json:"endpoints_created"`
	EndpointsSkipped   int    `json:"endpoints_skipped"`
	MappingsCreated    int    `json:"mappings_created"`
}
