package docs

// @title           AuthHub API
// @version         1.0
// @description     Multi-tenant authentication and authorization service. Issues JWT access and refresh tokens, manages tenants, organizations, users, roles and permissions, and serves the endpoint permission spec to gateways.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @securityDefinitions.apikey ServiceToken
// @in header
// @name X-Service-Token
// @description Shared token of an internal service.
