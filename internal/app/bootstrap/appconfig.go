// internal/app/bootstrap/appconfig.go
package bootstrap

import "time"

// AppConfig holds service-specific configuration for this WAFFLE app.
//
// WAFFLE's CoreConfig handles framework-level settings (ports, TLS,
// logging level, body limits). AppConfig is everything specific to
// RosterHub: the MongoDB backing store, the mail relay for one-time
// codes, and the three outbound integrations (identity provider,
// legacy sheet bridge, OTP verification service).
type AppConfig struct {
	// MongoDB connection configuration
	MongoURI         string
	MongoDatabase    string
	MongoMaxPoolSize uint64
	MongoMinPoolSize uint64

	// Email/SMTP configuration for one-time code delivery
	MailSMTPHost string
	MailSMTPPort int
	MailSMTPUser string
	MailSMTPPass string
	MailFrom     string
	MailFromName string
	MailLogOnly  bool // log codes instead of sending, for dev

	// SiteName appears in outgoing mail.
	SiteName string

	// OTPExpiry bounds the lifetime of issued codes.
	OTPExpiry time.Duration

	// OTPServiceURL is the base URL the engine's client calls for the
	// code flow. It normally points back at this service's own mount.
	OTPServiceURL string

	// Identity provider (anonymous session) configuration.
	IdentityBaseURL string
	IdentityAPIKey  string

	// Legacy spreadsheet bridge. Blank base URL disables the bridge.
	SheetsBaseURL string
	SheetsToken   string
}
