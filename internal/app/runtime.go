package app

import (
	"os"
	"sync"
	"sync/atomic"
)

// TestModeEnv disables server and worker startup when set to "1", so the
// binaries can be built and exercised in CI without backends.
const TestModeEnv = "ACU_TEST_MODE"

var (
	testMode     atomic.Bool
	testModeOnce sync.Once
)

// InTestMode reports whether the binaries should skip runtime side effects.
func InTestMode() bool {
	testModeOnce.Do(RefreshTestMode)
	return testMode.Load()
}

// RefreshTestMode re-reads TestModeEnv after environment changes.
func RefreshTestMode() {
	testMode.Store(os.Getenv(TestModeEnv) == "1")
}
