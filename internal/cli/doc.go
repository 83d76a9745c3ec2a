// Package cli implements the dockstat command-line interface.
//
// Each Cobra command loads config, builds an api.Client for the stats server,
// and hands off to the stats engine or a one-shot fetch.
//
// # Command Structure
//
//	dockstat watch      - Live dashboard (plain lines when stdout is not a TTY)
//	dockstat snapshot   - Print the cached container stats once
//	dockstat system     - Print host metrics once
//	dockstat refresh    - Ask the server to re-measure and wait for the result
//	dockstat init       - Create .dockstat.yaml
//	dockstat doctor     - Diagnose config and server problems
//	dockstat version    - Print build information
//
// # Global Flags
//
//	--config    Explicit config file path
//	--server    Stats server URL, overrides server.url
//	--token     Bearer token, overrides server.token
//	--json      Machine-readable output wrapped in JSONEnvelope
//	--no-color  Monochrome output
//
// Flags are bound into a viper instance so a flag that was not passed never
// overrides the config file or DOCKSTAT_* environment variables.
//
// # Error Handling
//
// Commands return *errors.Error values. Execute prints them (or a JSON error
// envelope in --json mode) and exits with status 1.
package cli
