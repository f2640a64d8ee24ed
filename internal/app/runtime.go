package app

import (
	"os"
	"strconv"
	"sync"
	"sync/atomic"
)

const testModeEnv = "SEEIN_TEST_MODE"

var (
	testModeFlag atomic.Bool
	testModeOnce sync.Once
)

// detectTestMode reads the SEEIN_TEST_MODE flag. Any truthy spelling
// strconv.ParseBool accepts enables it.
func detectTestMode() {
	on, err := strconv.ParseBool(os.Getenv(testModeEnv))
	testModeFlag.Store(err == nil && on)
}

// InTestMode reports whether the application should skip runtime side effects.
func InTestMode() bool {
	testModeOnce.Do(detectTestMode)
	return testModeFlag.Load()
}

// RefreshTestMode updates the cached flag after environment changes.
func RefreshTestMode() {
	detectTestMode()
}
