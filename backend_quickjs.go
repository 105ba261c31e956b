//go:build !v8

package livefx

import (
	"github.com/cryguy/livefx/internal/core"
	"github.com/cryguy/livefx/internal/quickjs"
)

func newJSRuntime(cfg core.Config) (core.ScriptRuntime, error) {
	return quickjs.New(cfg)
}
