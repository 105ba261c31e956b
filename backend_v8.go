//go:build v8

package livefx

import (
	"github.com/cryguy/livefx/internal/core"
	"github.com/cryguy/livefx/internal/v8engine"
)

func newJSRuntime(cfg core.Config) (core.ScriptRuntime, error) {
	return v8engine.New(cfg)
}
