// internal/app/bootstrap/config.go
package bootstrap

import (
	"fmt"
	"time"

	"github.com/dalemusser/waffle/config"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.uber.org/zap"
)

// appConfigKeys defines the configuration keys for RosterHub.
// These are loaded via WAFFLE's config system with support for:
//   - Config files: mongo_uri, site_name, etc.
//   - Environment variables: ROSTERHUB_MONGO_URI, ROSTERHUB_SITE_NAME, etc.
//   - Command-line flags: --mongo_uri, --site_name, etc.
var appConfigKeys = []config.AppKey{
	{Name: "mongo_uri", Default: "mongodb://localhost:27017", Desc: "MongoDB connection URI"},
	{Name: "mongo_database", Default: "rosterhub", Desc: "MongoDB database name"},
	{Name: "mongo_max_pool_size", Default: 100, Desc: "MongoDB max connection pool size"},
	{Name: "mongo_min_pool_size", Default: 10, Desc: "MongoDB min connection pool size"},

	// Email/SMTP configuration
	{Name: "mail_smtp_host", Default: "localhost", Desc: "SMTP server host"},
	{Name: "mail_smtp_port", Default: 1025, Desc: "SMTP server port"},
	{Name: "mail_smtp_user", Default: "", Desc: "SMTP username"},
	{Name: "mail_smtp_pass", Default: "", Desc: "SMTP password"},
	{Name: "mail_from", Default: "noreply@rosterhub.dev", Desc: "From email address"},
	{Name: "mail_from_name", Default: "RosterHub", Desc: "From display name"},
	{Name: "mail_log_only", Default: false, Desc: "Log outgoing mail instead of sending it"},

	{Name: "site_name", Default: "RosterHub", Desc: "Site name used in outgoing mail"},

	// One-time code settings
	{Name: "otp_expiry", Default: "10m", Desc: "One-time code expiry (e.g., 10m, 1h)"},
	{Name: "otp_service_url", Default: "http://localhost:8080/service", Desc: "Base URL of the OTP verification service"},

	// Identity provider (anonymous sessions)
	{Name: "identity_base_url", Default: "", Desc: "Identity provider base URL (blank disables sessions)"},
	{Name: "identity_api_key", Default: "", Desc: "Identity provider API key"},

	// Legacy spreadsheet bridge
	{Name: "sheets_base_url", Default: "", Desc: "Legacy sheet bridge base URL (blank disables the bridge)"},
	{Name: "sheets_token", Default: "", Desc: "Legacy sheet bridge bearer token"},
}

// LoadConfig loads WAFFLE core config and app-specific config.
//
// It is called early in startup so that both WAFFLE and the app have
// access to configuration before any backends or handlers are built.
// WAFFLE's config.LoadWithAppConfig merges .env files, config files,
// environment variables (WAFFLE_* for core, ROSTERHUB_* for app), and
// command-line flags, with precedence flags > env > files > defaults.
func LoadConfig(logger *zap.Logger) (*config.CoreConfig, AppConfig, error) {
	coreCfg, appValues, err := config.LoadWithAppConfig(logger, "ROSTERHUB", appConfigKeys)
	if err != nil {
		return nil, AppConfig{}, err
	}

	appCfg := AppConfig{
		MongoURI:         appValues.String("mongo_uri"),
		MongoDatabase:    appValues.String("mongo_database"),
		MongoMaxPoolSize: uint64(appValues.Int("mongo_max_pool_size")),
		MongoMinPoolSize: uint64(appValues.Int("mongo_min_pool_size")),

		MailSMTPHost: appValues.String("mail_smtp_host"),
		MailSMTPPort: appValues.Int("mail_smtp_port"),
		MailSMTPUser: appValues.String("mail_smtp_user"),
		MailSMTPPass: appValues.String("mail_smtp_pass"),
		MailFrom:     appValues.String("mail_from"),
		MailFromName: appValues.String("mail_from_name"),
		MailLogOnly:  appValues.Bool("mail_log_only"),

		SiteName: appValues.String("site_name"),

		OTPExpiry:     appValues.Duration("otp_expiry", 10*time.Minute),
		OTPServiceURL: appValues.String("otp_service_url"),

		IdentityBaseURL: appValues.String("identity_base_url"),
		IdentityAPIKey:  appValues.String("identity_api_key"),

		SheetsBaseURL: appValues.String("sheets_base_url"),
		SheetsToken:   appValues.String("sheets_token"),
	}

	return coreCfg, appCfg, nil
}

// ValidateConfig performs app-specific config validation.
//
// RosterHub validates the MongoDB URI format to catch configuration
// errors early, before attempting to connect, and rejects an identity
// provider configured without its API key.
func ValidateConfig(coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) error {
	if err := wafflemongo.ValidateURI(appCfg.MongoURI); err != nil {
		logger.Error("invalid MongoDB URI", zap.Error(err))
		return fmt.Errorf("invalid MongoDB URI: %w", err)
	}

	if appCfg.IdentityBaseURL != "" && appCfg.IdentityAPIKey == "" {
		return fmt.Errorf("identity_base_url is set but identity_api_key is empty")
	}

	if appCfg.OTPExpiry <= 0 {
		return fmt.Errorf("otp_expiry must be positive, got %s", appCfg.OTPExpiry)
	}

	return nil
}
