package types

type ServiceMode string

// API serves the public and internal HTTP APIs.
// Worker consumes audit events and cleans up the token blacklist.
const (
	APIMode    ServiceMode = "api"
	WorkerMode ServiceMode = "worker"
)

func (m ServiceMode) Valid() bool {
	return m == APIMode || m == WorkerMode
}

// Status is the lifecycle state shared by tenants, organizations and users.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusInactive  Status = "INACTIVE"
	StatusSuspended Status = "SUSPENDED"
	StatusDeleted   Status = "DELETED"
)

func (s Status) String() string { return string(s) }

type UserType string

const (
	UserTypePublic   UserType = "PUBLIC"
	UserTypeInternal UserType = "INTERNAL"
)

// DefinitionType marks roles and permissions owned by the platform (SYSTEM)
// versus those created by tenants or services (CUSTOM).
type DefinitionType string

const (
	TypeSystem DefinitionType = "SYSTEM"
	TypeCustom DefinitionType = "CUSTOM"
)

type RoleScope string

const (
	ScopeGlobal RoleScope = "GLOBAL"
	ScopeTenant RoleScope = "TENANT"
)

// Built-in role names.
const (
	RoleSuperAdmin  = "SUPER_ADMIN"
	RoleTenantAdmin = "TENANT_ADMIN"
	RoleOrgAdmin    = "ORG_ADMIN"
	RoleUser        = "USER"
)

type ServiceStatus string

const (
	ServiceActive   ServiceStatus = "ACTIVE"
	ServiceInactive ServiceStatus = "INACTIVE"
)

type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

type RevokeReason string

const (
	RevokeLogout         RevokeReason = "LOGOUT"
	RevokePasswordChange RevokeReason = "PASSWORD_CHANGE"
	RevokeAdmin          RevokeReason = "ADMIN_REVOKE"
	RevokeSecurityBreach RevokeReason = "SECURITY_BREACH"
)

type RateLimitType string

const (
	RateLimitIP       RateLimitType = "IP_BASED"
	RateLimitUser     RateLimitType = "USER_BASED"
	RateLimitEndpoint RateLimitType = "ENDPOINT_BASED"
)

func (t RateLimitType) Valid() bool {
	return t == RateLimitIP || t == RateLimitUser || t == RateLimitEndpoint
}
