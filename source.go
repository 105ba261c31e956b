package livefx

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	esbuild "github.com/evanw/esbuild/pkg/api"

	"github.com/cryguy/livefx/internal/core"
)

// languageFor picks the backend language from the file extension. Anything
// that is not Lua is treated as JavaScript.
func languageFor(path string) core.Language {
	if strings.EqualFold(filepath.Ext(path), ".lua") {
		return core.LangLua
	}
	return core.LangJS
}

// readSource reads the script, refusing files larger than maxBytes.
func readSource(path string, maxBytes int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &core.FileReadError{Path: path, Err: err}
	}
	defer f.Close()
	src, err := io.ReadAll(io.LimitReader(f, int64(maxBytes)+1))
	if err != nil {
		return nil, &core.FileReadError{Path: path, Err: err}
	}
	if len(src) > maxBytes {
		return nil, &core.FileReadError{Path: path, Err: fmt.Errorf("script exceeds %d KB", maxBytes/1024)}
	}
	return src, nil
}

// prepareSource turns file contents into code the runtime can execute.
// TypeScript is transpiled. JavaScript is only syntax-checked so runtime
// line numbers keep matching the file. Lua is handed to the Lua parser
// unchanged.
func prepareSource(path string, src []byte) (string, error) {
	loader, target := esbuild.LoaderJS, esbuild.ESNext
	switch strings.ToLower(filepath.Ext(path)) {
	case ".lua":
		return string(src), nil
	case ".ts":
		loader, target = esbuild.LoaderTS, esbuild.ES2020
	}

	result := esbuild.Transform(string(src), esbuild.TransformOptions{
		Loader:     loader,
		Target:     target,
		Sourcefile: filepath.Base(path),
	})
	if len(result.Errors) > 0 {
		msgs := make([]string, 0, len(result.Errors))
		for _, e := range result.Errors {
			msgs = append(msgs, formatMessage(e))
		}
		return "", &core.CompileError{Path: path, Err: errors.New(strings.Join(msgs, "; "))}
	}
	if loader == esbuild.LoaderTS {
		return string(result.Code), nil
	}
	return string(src), nil
}

func formatMessage(m esbuild.Message) string {
	if m.Location == nil {
		return m.Text
	}
	// esbuild columns are 0-based.
	return fmt.Sprintf("%s:%d:%d: %s", m.Location.File, m.Location.Line, m.Location.Column+1, m.Text)
}
