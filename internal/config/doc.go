// Package config defines configuration for the meteosat CLI.
//
// Configuration can be provided via:
//   - Command-line flags
//   - Environment variables (METEOSAT_ prefix)
//   - YAML configuration file
//
// # Structure
//
//	type Config struct {
//	    BaseURL      string
//	    SaveDir      string
//	    Workers      int
//	    MaxAttempts  int
//	    Grid         bool
//	    Quality      string
//	    Timeout      time.Duration
//	    UserAgent    string
//	    AnimateDelay int
//	}
//
// Everything is explicit: components receive their configuration at
// construction so tests can point storage at a temporary directory and a
// fake archive server.
package config
