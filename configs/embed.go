// Package configs provides the embedded configuration template for
// vectorlited.
//
// The template is embedded at build time with go:embed so it ships inside
// the binary regardless of how it was distributed, and is written out by
// `vectorlited config init` to ~/.config/vectorlite/config.yaml (see
// internal/config/config.go for the full load/merge/override precedence).
package configs

import _ "embed"

// UserConfigTemplate is the template written by `vectorlited config init`.
//
//go:embed user-config.example.yaml
var UserConfigTemplate string
