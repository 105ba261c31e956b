//go:build nosdl

package main

import (
	"context"
	"errors"

	"github.com/cryguy/livefx"
)

func runWindow(context.Context, *player, livefx.Config) error {
	return errors.New("built without SDL; use -headless or -preview")
}
