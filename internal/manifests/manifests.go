// Package manifests embeds the default desktop manifest shipped with archstrap.
package manifests

import _ "embed"

// Default is the Hyprland desktop manifest used when no manifest file is found.
//
//go:embed default.yaml
var Default []byte
