// Package bundle embeds the bootstrap harness invoked around a package's
// own install/uninstall/before-modify scripts.
package bundle

import _ "embed"

// Bootstrap is the embedded bootstrap.ps1 harness.
//
//go:embed bootstrap.ps1
var Bootstrap []byte
