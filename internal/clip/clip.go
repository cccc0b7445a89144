// Package clip copies text to the user's clipboard, falling back through
// progressively less capable mechanisms when the terminal or OS doesn't
// support the previous one.
package clip

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/atotto/clipboard"
	"github.com/aymanbagabas/go-osc52/v2"
)

// Method identifies which mechanism ultimately delivered the clipboard
// write.
type Method string

const (
	MethodNative Method = "native"
	MethodOSC52  Method = "osc52"
	MethodFile   Method = "file"
)

// Result reports how WriteAll succeeded.
type Result struct {
	Method   Method
	FilePath string // set only when Method == MethodFile
}

// indirection points for testability, mirroring the fallback chain's shape
// without requiring a real clipboard or terminal in tests.
var (
	nativeWriteAll = clipboard.WriteAll
	osc52WriteAll  = func(text string) error {
		_, err := os.Stdout.Write([]byte(osc52.New(text).String()))
		return err
	}
)

// WriteAll copies text to the clipboard, trying the native OS clipboard
// first, then an OSC52 terminal escape sequence, and finally writing to a
// temp file as a last resort so the user can still retrieve the value.
func WriteAll(text string) (Result, error) {
	if err := nativeWriteAll(text); err == nil {
		return Result{Method: MethodNative}, nil
	}
	if err := osc52WriteAll(text); err == nil {
		return Result{Method: MethodOSC52}, nil
	}

	path := filepath.Join(os.TempDir(), "bear-clipboard.txt")
	if err := os.WriteFile(path, []byte(text), 0o600); err != nil {
		return Result{}, fmt.Errorf("write clipboard fallback file: %w", err)
	}
	return Result{Method: MethodFile, FilePath: path}, nil
}
