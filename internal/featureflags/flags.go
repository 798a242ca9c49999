// Package featureflags reads boolean flags from the environment.
// Known flags: region_cache_warmer (background rebuild of the
// /api/agrodata view).
package featureflags

import (
	"os"
	"strings"
)

// Enabled reports whether FLAG_<NAME> is set to 1/true/yes/on
// (case-insensitive). Unset flags are off.
func Enabled(name string) bool {
	v := os.Getenv("FLAG_" + strings.ToUpper(name))
	switch strings.ToLower(v) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}
