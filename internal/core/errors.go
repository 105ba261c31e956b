package core

import (
	"errors"
	"fmt"
)

// ErrIndexOutOfRange is returned by every framebuffer or palette access
// that falls outside the fixed dimensions. Values are never clamped.
var ErrIndexOutOfRange = errors.New("index out of range")

// FileReadError reports that the script source could not be read.
type FileReadError struct {
	Path string
	Err  error
}

func (e *FileReadError) Error() string {
	return fmt.Sprintf("reading script %s: %v", e.Path, e.Err)
}

func (e *FileReadError) Unwrap() error { return e.Err }

// CompileError reports that the script source failed to parse or compile.
type CompileError struct {
	Path string
	Err  error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compiling script %s: %v", e.Path, e.Err)
}

func (e *CompileError) Unwrap() error { return e.Err }

// RuntimeError reports an error raised while executing top-level code
// (Phase "load") or a lifecycle callback (Phase is the callback name).
type RuntimeError struct {
	Path  string
	Phase string
	Err   error
}

func (e *RuntimeError) Error() string {
	if e.Phase == "" {
		return fmt.Sprintf("running script %s: %v", e.Path, e.Err)
	}
	return fmt.Sprintf("running script %s (%s): %v", e.Path, e.Phase, e.Err)
}

func (e *RuntimeError) Unwrap() error { return e.Err }

// SizeMismatchError reports a presentation buffer whose length does not
// match 4*width*height.
type SizeMismatchError struct {
	Got  int
	Want int
}

func (e *SizeMismatchError) Error() string {
	return fmt.Sprintf("output buffer is %d bytes, want %d", e.Got, e.Want)
}

// WatcherSetupError reports that the filesystem watch could not be registered.
type WatcherSetupError struct {
	Path string
	Err  error
}

func (e *WatcherSetupError) Error() string {
	return fmt.Sprintf("watching %s: %v", e.Path, e.Err)
}

func (e *WatcherSetupError) Unwrap() error { return e.Err }

// ErrorKind names the taxonomy bucket of err, for logs and the reload
// journal. Unknown errors map to "error".
func ErrorKind(err error) string {
	var (
		fileErr    *FileReadError
		compileErr *CompileError
		runErr     *RuntimeError
		sizeErr    *SizeMismatchError
		watchErr   *WatcherSetupError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &fileErr):
		return "read"
	case errors.As(err, &compileErr):
		return "compile"
	case errors.As(err, &runErr):
		return "runtime"
	case errors.As(err, &sizeErr):
		return "size"
	case errors.As(err, &watchErr):
		return "watch"
	default:
		return "error"
	}
}
