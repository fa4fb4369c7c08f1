package folio

import (
	"sync"

	"github.com/tsawler/folio/font"
	"github.com/tsawler/folio/logging"
)

var library struct {
	mu   sync.Mutex
	refs int
}

// Acquire takes a reference on the process-wide library state. The
// first reference parses the fallback font faces. Every open document
// holds one reference.
func Acquire() error {
	library.mu.Lock()
	defer library.mu.Unlock()
	if library.refs == 0 {
		if err := font.InitFallbacks(); err != nil {
			return err
		}
		logging.For("folio").Info("library initialized")
	}
	library.refs++
	return nil
}

// Release drops a reference taken by Acquire. Dropping the last one
// frees the fallback faces. Release without a reference does nothing.
func Release() {
	library.mu.Lock()
	defer library.mu.Unlock()
	if library.refs == 0 {
		return
	}
	library.refs--
	if library.refs == 0 {
		font.ReleaseFallbacks()
		logging.For("folio").Info("library released")
	}
}

// RefCount returns the number of outstanding references.
func RefCount() int {
	library.mu.Lock()
	defer library.mu.Unlock()
	return library.refs
}
