// Package config provides centralized configuration management for the KPI
// dashboard. It loads configuration from multiple sources, validates it and
// exposes a type-safe API for the rest of the application.
//
// # Configuration Sources
//
// Sources are applied in order, later ones overriding earlier ones:
//
//	1. Default values
//	2. YAML file (KPIDASH_CONFIG, or config.yaml / configs/config.yaml)
//	3. .env file in the working directory
//	4. Environment variables
//
// # Environment Variables
//
// All environment variables follow the pattern KPIDASH_<SECTION>_<KEY>:
//
//	KPIDASH_SERVER_PORT=8080
//	KPIDASH_LOGGING_LEVEL=debug
//	KPIDASH_DASHBOARD_DEFAULT_LANGUAGE=jp
//	KPIDASH_SHEETS_ENABLED=true
//	KPIDASH_SHEETS_SPREADSHEET_ID=1AbC...
//
// # Path Management
//
// Relative paths are resolved against paths.base_dir, or the working
// directory when it is unset:
//
//	paths, err := cfg.ResolvePaths()
//	records, err := loader.LoadExcel(ctx, nil, paths.SampleFile)
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// For tests use config.Default(), which needs no environment or files.
package config
