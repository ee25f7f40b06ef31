// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"fmt"

	adminstore "github.com/civicatlas/notifyhub/internal/app/store/admins"
	invitationstore "github.com/civicatlas/notifyhub/internal/app/store/invitations"
	"github.com/civicatlas/notifyhub/internal/app/system/timeouts"
	"github.com/civicatlas/notifyhub/internal/app/system/workers"
	"github.com/civicatlas/notifyhub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// inviteCleanup is the background sweeper for expired invitations. It is
// created in Startup and stopped in Shutdown.
var inviteCleanup *workers.InviteCleanup

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built. It
// applies timeout overrides, mints the first console operator when the
// admins collection is empty, and starts the invitation cleanup worker.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if n := timeouts.ConfigureFromEnv(); n > 0 {
		cur := timeouts.Current()
		logger.Info("timeouts configured from environment",
			zap.Int("overrides", n),
			zap.Duration("short", cur.Short),
			zap.Duration("medium", cur.Medium),
			zap.Duration("long", cur.Long),
			zap.Duration("upstream", cur.Upstream),
		)
	}

	if appCfg.SuperAdminEmail != "" && appCfg.SuperAdminPassword != "" {
		if err := ensureSuperAdmin(ctx, deps, appCfg.SuperAdminEmail, appCfg.SuperAdminPassword, logger); err != nil {
			return err
		}
	}

	invitations := invitationstore.New(deps.MongoDatabase, appCfg.InviteExpiry)
	inviteCleanup = workers.NewInviteCleanup(invitations, logger, appCfg.InviteCleanupInterval)
	inviteCleanup.Start()

	return nil
}

// ensureSuperAdmin mints the first console operator. A non-empty admins
// collection means the console is already bootstrapped and the configured
// credentials are ignored, so a stale env var can never overwrite or
// duplicate a live operator.
func ensureSuperAdmin(ctx context.Context, deps DBDeps, email, password string, logger *zap.Logger) error {
	store := adminstore.New(deps.MongoDatabase)

	n, err := store.Count(ctx)
	if err != nil {
		return fmt.Errorf("count admins: %w", err)
	}
	if n > 0 {
		return nil
	}

	hash, err := adminstore.HashPassword(password)
	if err != nil {
		return fmt.Errorf("hash superadmin password: %w", err)
	}

	created, err := store.Create(ctx, models.Admin{
		FullName:     "Super Admin",
		Email:        email,
		PasswordHash: hash,
		Role:         models.RoleSuperAdmin,
		Status:       models.StatusActive,
	})
	if err != nil {
		return fmt.Errorf("create superadmin: %w", err)
	}

	logger.Info("superadmin created", zap.String("email", created.Email))
	return nil
}
