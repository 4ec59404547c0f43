package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/Temutjin2k/authhub/config"
	"github.com/Temutjin2k/authhub/internal/adapter/postgres/migrations"
	"github.com/Temutjin2k/authhub/internal/domain/types"
	"github.com/Temutjin2k/authhub/pkg/passhash"
	"github.com/Temutjin2k/authhub/pkg/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const (
	systemTenant       = "AuthHub"
	systemOrganization = "Platform"
)

var (
	configPath = flag.String("config-path", "config.yaml", "Path to the config yaml file")
)

var (
	systemResources = []string{"tenant", "organization", "user", "role", "permission"}
	crudActions     = []string{"create", "read", "update", "delete"}
)

// rolePermissions lists the keys granted to each system role. nil means every
// system permission.
var rolePermissions = map[string][]string{
	types.RoleSuperAdmin: nil,
	types.RoleTenantAdmin: {
		"tenant:read", "tenant:update",
		"organization:create", "organization:read", "organization:update", "organization:delete",
		"user:create", "user:read", "user:update", "user:delete",
		"role:create", "role:read", "role:update", "role:delete", "role:assign",
		"permission:read",
	},
	types.RoleOrgAdmin: {
		"organization:read", "organization:update",
		"user:create", "user:read", "user:update", "user:delete",
		"role:read", "role:assign",
		"permission:read",
	},
	types.RoleUser: {"tenant:read", "organization:read", "user:read"},
}

func main() {
	flag.Parse()

	ctx := context.Background()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if cfg.Seed.AdminPassword == "" {
		log.Fatal("SEED_ADMIN_PASSWORD must be set")
	}

	client, err := postgres.New(ctx, cfg.Database)
	if err != nil {
		log.Fatal(err)
	}
	defer client.Close()

	applied, err := postgres.ApplyMigrations(ctx, client.Pool, migrations.FS, ".")
	if err != nil {
		log.Fatalf("apply migrations: %v", err)
	}
	log.Printf("seed: %d migrations applied", len(applied))

	hash, err := passhash.New(cfg.Auth.BcryptCost).Hash(cfg.Seed.AdminPassword)
	if err != nil {
		log.Fatalf("hash admin password: %v", err)
	}

	// short timeout for seed operations
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	err = pgx.BeginFunc(ctx, client.Pool, func(tx pgx.Tx) error {
		return seed(ctx, tx, cfg.Seed.AdminEmail, hash)
	})
	if err != nil {
		log.Fatalf("seed: %v", err)
	}

	log.Printf("seed: system data ensured, super admin %s", cfg.Seed.AdminEmail)
}

func seed(ctx context.Context, tx pgx.Tx, adminEmail, adminHash string) error {
	tenantID, err := ensureTenant(ctx, tx)
	if err != nil {
		return err
	}
	orgID, err := ensureOrganization(ctx, tx, tenantID)
	if err != nil {
		return err
	}

	keys, err := ensurePermissions(ctx, tx)
	if err != nil {
		return err
	}

	roleIDs := make(map[string]uuid.UUID, len(rolePermissions))
	for name, granted := range rolePermissions {
		id, err := ensureRole(ctx, tx, name)
		if err != nil {
			return err
		}
		if granted == nil {
			granted = keys
		}
		if err := grant(ctx, tx, id, granted); err != nil {
			return err
		}
		roleIDs[name] = id
	}

	userID, err := ensureUser(ctx, tx, tenantID, orgID, adminEmail, adminHash)
	if err != nil {
		return err
	}

	const assign = `
INSERT INTO user_roles (user_id, role_id)
VALUES ($1, $2)
ON CONFLICT DO NOTHING;
`
	if _, err := tx.Exec(ctx, assign, userID, roleIDs[types.RoleSuperAdmin]); err != nil {
		return fmt.Errorf("assign super admin: %w", err)
	}
	return nil
}

func ensureTenant(ctx context.Context, tx pgx.Tx) (uuid.UUID, error) {
	const q = `
INSERT INTO tenants (id, name, status)
VALUES ($1, $2, 'ACTIVE')
ON CONFLICT (name) DO NOTHING;
`
	if _, err := tx.Exec(ctx, q, uuid.New(), systemTenant); err != nil {
		return uuid.Nil, fmt.Errorf("insert tenant: %w", err)
	}

	var id uuid.UUID
	if err := tx.QueryRow(ctx, `SELECT id FROM tenants WHERE name = $1`, systemTenant).Scan(&id); err != nil {
		return uuid.Nil, fmt.Errorf("select tenant: %w", err)
	}
	return id, nil
}

func ensureOrganization(ctx context.Context, tx pgx.Tx, tenantID uuid.UUID) (uuid.UUID, error) {
	const q = `
INSERT INTO organizations (id, tenant_id, name, status)
VALUES ($1, $2, $3, 'ACTIVE')
ON CONFLICT (tenant_id, name) DO NOTHING;
`
	if _, err := tx.Exec(ctx, q, uuid.New(), tenantID, systemOrganization); err != nil {
		return uuid.Nil, fmt.Errorf("insert organization: %w", err)
	}

	var id uuid.UUID
	err := tx.QueryRow(ctx,
		`SELECT id FROM organizations WHERE tenant_id = $1 AND name = $2`,
		tenantID, systemOrganization,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("select organization: %w", err)
	}
	return id, nil
}

// ensurePermissions creates the SYSTEM permissions and returns their keys.
func ensurePermissions(ctx context.Context, tx pgx.Tx) ([]string, error) {
	const q = `
INSERT INTO permissions (id, key, resource, action, description, type)
VALUES ($1, $2, $3, $4, $5, 'SYSTEM')
ON CONFLICT (key) DO NOTHING;
`
	var keys []string
	add := func(resource, action string) error {
		key := resource + ":" + action
		desc := fmt.Sprintf("%s %s", strings.ToUpper(action[:1])+action[1:], resource)
		if _, err := tx.Exec(ctx, q, uuid.New(), key, resource, action, desc); err != nil {
			return fmt.Errorf("insert permission %s: %w", key, err)
		}
		keys = append(keys, key)
		return nil
	}

	for _, resource := range systemResources {
		for _, action := range crudActions {
			if err := add(resource, action); err != nil {
				return nil, err
			}
		}
	}
	if err := add("role", "assign"); err != nil {
		return nil, err
	}
	return keys, nil
}

func ensureRole(ctx context.Context, tx pgx.Tx, name string) (uuid.UUID, error) {
	const q = `
INSERT INTO roles (id, name, display_name, description, type)
SELECT $1, $2, $3, $4, 'SYSTEM'
WHERE NOT EXISTS (
    SELECT 1 FROM roles
    WHERE tenant_id IS NULL AND service_id IS NULL AND name = $2 AND NOT deleted
);
`
	display := strings.ReplaceAll(name, "_", " ")
	if _, err := tx.Exec(ctx, q, uuid.New(), name, display, "Built-in "+display+" role"); err != nil {
		return uuid.Nil, fmt.Errorf("insert role %s: %w", name, err)
	}

	var id uuid.UUID
	err := tx.QueryRow(ctx, `
SELECT id FROM roles
WHERE tenant_id IS NULL AND service_id IS NULL AND name = $1 AND NOT deleted`, name,
	).Scan(&id)
	if err != nil {
		return uuid.Nil, fmt.Errorf("select role %s: %w", name, err)
	}
	return id, nil
}

func grant(ctx context.Context, tx pgx.Tx, roleID uuid.UUID, keys []string) error {
	const q = `
INSERT INTO role_permissions (role_id, permission_id)
SELECT $1, p.id FROM permissions p
WHERE p.key = ANY($2) AND NOT p.deleted
ON CONFLICT DO NOTHING;
`
	if _, err := tx.Exec(ctx, q, roleID, keys); err != nil {
		return fmt.Errorf("grant permissions: %w", err)
	}
	return nil
}

func ensureUser(ctx context.Context, tx pgx.Tx, tenantID, orgID uuid.UUID, email, hash string) (uuid.UUID, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	const q = `
INSERT INTO users (id, tenant_id, organization_id, email, password_hash, type, status, name)
SELECT $1, $2, $3, $4, $5, 'INTERNAL', 'ACTIVE', 'Super Admin'
WHERE NOT EXISTS (SELECT 1 FROM users WHERE lower(email) = $4);
`
	if _, err := tx.Exec(ctx, q, uuid.New(), tenantID, orgID, email, hash); err != nil {
		return uuid.Nil, fmt.Errorf("insert admin user: %w", err)
	}

	var id uuid.UUID
	if err := tx.QueryRow(ctx, `SELECT id FROM users WHERE lower(email) = $1`, email).Scan(&id); err != nil {
		return uuid.Nil, fmt.Errorf("select admin user: %w", err)
	}
	return id, nil
}
