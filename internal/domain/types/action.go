package types

// Log actions for infrastructure events.
const (
	ActionRabbitMQConnected       = "rabbitmq_connected"
	ActionRabbitConnectionClosed  = "rabbitmq_connection_closed"
	ActionRabbitConnectionClosing = "rabbitmq_connection_closing"
	ActionRabbitReconnected       = "rabbitmq_reconnection_success"

	ActionDatabaseTransactionFailed = "database_transaction_failed"
	ActionMigrationsApplied         = "database_migrations_applied"
	ActionBlacklistCleanup          = "blacklist_cleanup"
	ActionAuditConsume              = "audit_consume"
	ActionEventPublish              = "event_publish"

	ActionLogin   = "login"
	ActionRefresh = "token_refresh"
	ActionLogout  = "logout"
)

// Header names understood by the HTTP layer.
const (
	HeaderRequestID      = "X-Request-ID"
	HeaderTraceID        = "X-Trace-Id"
	HeaderServiceToken   = "X-Service-Token"
	HeaderIdempotencyKey = "X-Idempotency-Key"
	HeaderUserID         = "X-User-Id"
	HeaderTenantID       = "X-Tenant-Id"
	HeaderOrganizationID = "X-Organization-Id"
	HeaderUserRoles      = "X-User-Roles"
	HeaderPermissions    = "X-Permissions"
)
