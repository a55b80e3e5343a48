// Package stockparts is the public entry point: it opens the configured
// record store and wraps it in an entry service.
package stockparts

// Version is the release version reported by the CLI.
const Version = "0.1.0"

// ModulePath is the Go module path of this repository.
const ModulePath = "github.com/mesh-intelligence/stockparts"
