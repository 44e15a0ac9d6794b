package guard

import (
	"os"
	"sync"
)

var once sync.Once

func init() {
	once.Do(func() {
		if os.Getenv("HOSHIZORA_TEST_MODE") == "" {
			_ = os.Setenv("HOSHIZORA_TEST_MODE", "1")
		}
	})
}
