package player

import (
	"sync"

	"github.com/user/mediaplay/pkg/ports"
)

type engineInit struct {
	once sync.Once
	err  error
}

// initialized holds one engineInit per engine value.
var initialized sync.Map

// ensureEngineInitialized runs e.Init exactly once per engine for the life
// of the process. Later callers get the first result.
func ensureEngineInitialized(e ports.Engine) error {
	v, _ := initialized.LoadOrStore(e, &engineInit{})
	ei := v.(*engineInit)
	ei.once.Do(func() {
		ei.err = e.Init()
	})
	return ei.err
}
