// Package guard forces test mode on import so test binaries never start
// the runtime side effects main() would.
package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("MERIDIAN_TEST_MODE") == "" {
			_ = os.Setenv("MERIDIAN_TEST_MODE", "1")
		}
	})
}
