package testing

import (
	"os"
	"sync"
	stdtesting "testing"
)

var once sync.Once

func ensureTestMode() {
	once.Do(func() {
		_ = os.Setenv("NUTRI_TEST_MODE", "1")
		if os.Getenv("LOG_FORMAT") == "" {
			_ = os.Setenv("LOG_FORMAT", "json")
		}
	})
}

func init() {
	ensureTestMode()
}

func TestMain(m *stdtesting.M) {
	ensureTestMode()
	os.Exit(m.Run())
}
