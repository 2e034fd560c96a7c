package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("NUTRI_TEST_MODE") == "" {
			_ = os.Setenv("NUTRI_TEST_MODE", "1")
		}
	})
}
