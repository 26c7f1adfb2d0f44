// Package filters embeds the default semantic filter scripts.
package filters

import "embed"

// FS holds the embedded .risor filter scripts.
//
//go:embed *.risor
var FS embed.FS

// Default is the path within FS of the filter used when none is configured.
const Default = "semantic.risor"
