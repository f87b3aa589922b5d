// Package configs embeds the starter configuration written by
// `benchgate config init`.
//
// The template mirrors internal/config NewConfig() so a freshly written
// file changes nothing until it is edited.
package configs

import _ "embed"

// ProjectConfigTemplate is the commented .benchgate.yaml template.
//
//go:embed project-config.example.yaml
var ProjectConfigTemplate string
