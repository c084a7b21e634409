// Package app wires the dashboard together: configuration, logging,
// OpenTelemetry, the session store, the dashboard service and the chi
// router with its middleware chain.
//
// # Initialization Flow
//
//	1. Load configuration from defaults, YAML, .env and KPIDASH_* variables
//	2. Initialize logging and OpenTelemetry
//	3. Resolve paths and create the data and logs directories
//	4. Create the session store and the dashboard and health services
//	5. Mount handlers behind RequestID, logging, recovery, metrics,
//	   security headers, CORS and rate limiting
//
// # Graceful Shutdown
//
// Run serves until its context ends or SIGINT/SIGTERM arrives. In-flight
// requests are drained within the shutdown timeout, then telemetry is
// flushed and the log file closed. Errors are returned, never os.Exit.
package app
