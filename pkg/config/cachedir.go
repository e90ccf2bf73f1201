package config

import "os"

// userCacheHome wraps os.UserCacheDir so defaults.go stays testable without
// touching the real filesystem in unit tests that stub it out.
func userCacheHome() (string, error) {
	return os.UserCacheDir()
}
