package config

import "time"

// Application constants for the KPI dashboard
const (
	// Application Info
	AppName    = "kpidash"
	AppVersion = "1.0.0"

	// Environment
	EnvPrefix     = "KPIDASH"
	ConfigFileEnv = "KPIDASH_CONFIG"

	// Server limits
	DefaultMaxUploadBytes = 32 << 20 // 32MB
	DefaultRateLimit      = 100      // requests per second
	DefaultBurstSize      = 50

	// Sessions
	SessionCookieName = "kpidash_session"
	DefaultSessionTTL = 12 * time.Hour

	// Presentation
	DefaultLanguage    = "en"
	DefaultChartWidth  = 1024
	DefaultChartHeight = 400

	// File Paths (relative to the base directory)
	DefaultDataDir    = "data"
	DefaultLogsDir    = "logs"
	DefaultSampleFile = "data/sample_production_data.xlsx"

	// Google Sheets
	DefaultSheetsRange = "Sheet1!A:F"

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
)
