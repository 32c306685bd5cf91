// internal/app/bootstrap/routes.go
package bootstrap

import (
	"context"
	"net/http"

	"github.com/dalemusser/waffle/config"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dalemusser/rosterhub/internal/app/cache"
	"github.com/dalemusser/rosterhub/internal/app/engine"
	directoryfeature "github.com/dalemusser/rosterhub/internal/app/features/directory"
	healthfeature "github.com/dalemusser/rosterhub/internal/app/features/health"
	otpfeature "github.com/dalemusser/rosterhub/internal/app/features/otp"
	"github.com/dalemusser/rosterhub/internal/app/identity"
	"github.com/dalemusser/rosterhub/internal/app/otpclient"
	"github.com/dalemusser/rosterhub/internal/app/sheets"
	"github.com/dalemusser/rosterhub/internal/app/store/counters"
	"github.com/dalemusser/rosterhub/internal/app/store/employees"
	"github.com/dalemusser/rosterhub/internal/app/store/officers"
	"github.com/dalemusser/rosterhub/internal/app/store/otps"
	"github.com/dalemusser/rosterhub/internal/app/store/pending"
	"github.com/dalemusser/rosterhub/internal/app/system/mailer"
	"github.com/dalemusser/rosterhub/internal/app/system/txn"
)

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed.
//
// RosterHub mounts three surfaces:
//   - /health for load balancers and orchestrators
//   - /service for the OTP verification service (code issue/verify, PIN update)
//   - /api for the directory engine (login, search, CRUD, registrations)
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	db := deps.MongoDatabase

	employeeStore := employees.New(db)
	officerStore := officers.New(db)
	counterStore := counters.New(db)
	codeStore := otps.New(db, appCfg.OTPExpiry)
	pendingStore := pending.New(db)

	var mail mailer.Sender
	if appCfg.MailLogOnly {
		mail = &mailer.LogOnly{Log: logger}
	} else {
		mail = mailer.NewSMTP(mailer.SMTPConfig{
			Host:     appCfg.MailSMTPHost,
			Port:     appCfg.MailSMTPPort,
			User:     appCfg.MailSMTPUser,
			Pass:     appCfg.MailSMTPPass,
			From:     appCfg.MailFrom,
			FromName: appCfg.MailFromName,
		}, logger)
	}

	local, err := cache.New()
	if err != nil {
		logger.Error("cache init failed", zap.Error(err))
		return nil, err
	}

	// Blank identity_base_url disables the identity provider; the engine
	// then runs on static local sessions.
	var sessions identity.Provider = identity.Local{}
	if appCfg.IdentityBaseURL != "" {
		sessions = identity.New(appCfg.IdentityBaseURL, appCfg.IdentityAPIKey, logger)
	}

	engDeps := engine.Deps{
		Cache:    local,
		Remote:   employeeStore,
		Officers: officerStore,
		Regs:     pendingStore,
		Alloc:    counterStore,
		OTP:      otpclient.New(appCfg.OTPServiceURL, logger),
		Sessions: sessions,
		RunTxn: func(ctx context.Context, fn func(ctx context.Context) error) error {
			return txn.WithTransaction(ctx, deps.MongoClient, logger, fn)
		},
		Logger: logger,
	}
	if appCfg.SheetsBaseURL != "" {
		engDeps.Legacy = sheets.New(appCfg.SheetsBaseURL, appCfg.SheetsToken, logger)
	}
	eng := engine.New(engDeps)

	r := chi.NewRouter()

	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	otpHandler := otpfeature.NewHandler(employeeStore, codeStore, mail, appCfg.SiteName, logger)
	r.Mount("/service", otpfeature.Routes(otpHandler))

	directoryHandler := directoryfeature.NewHandler(eng, logger)
	r.Mount("/api", directoryfeature.Routes(directoryHandler))

	return r, nil
}
