// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"time"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"

	"github.com/dalemusser/rosterhub/internal/app/store/otps"
	"github.com/dalemusser/rosterhub/internal/app/system/timeouts"
	"github.com/dalemusser/rosterhub/internal/app/system/workers"
)

// sweepInterval paces the expired-code cleanup worker.
const sweepInterval = time.Hour

var codeCleanup *workers.CodeCleanup

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if n := timeouts.ConfigureFromEnv(); n > 0 {
		logger.Info("timeouts configured from environment",
			zap.Int("overrides", n),
			zap.Any("current", timeouts.Current()))
	}

	codes := otps.New(deps.MongoDatabase, appCfg.OTPExpiry)
	codeCleanup = workers.NewCodeCleanup(codes, logger, sweepInterval)
	codeCleanup.Start()

	return nil
}
