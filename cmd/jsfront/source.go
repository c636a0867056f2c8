package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf16"

	"golang.org/x/term"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// readSource reads the script named by args, or stdin for "-" or no
// argument, and returns it as UTF-16 code units with the name used in
// diagnostics.
func (a *app) readSource(args []string) ([]uint16, string, error) {
	name := "-"
	if len(args) > 0 {
		name = args[0]
	} else if a.stdinIsTerminal() {
		return nil, "", errors.New("no input: pass a file, or pipe a script on stdin")
	}

	reader, closeFunc, err := a.openInput(name)
	if err != nil {
		return nil, "", err
	}
	defer func() { _ = closeFunc() }()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return nil, "", fmt.Errorf("error reading %s: %w", name, err)
	}
	units, err := decodeSource(raw, a.encoding)
	if err != nil {
		return nil, "", fmt.Errorf("%s: %w", name, err)
	}
	if name == "-" {
		name = "<stdin>"
	}
	a.log.Debug("source read", "source", name, "bytes", len(raw), "units", len(units))
	return units, name, nil
}

func (a *app) openInput(name string) (io.Reader, func() error, error) {
	if name == "-" {
		return a.stdin, func() error { return nil }, nil
	}
	f, err := os.Open(name)
	if err != nil {
		return nil, nil, fmt.Errorf("error opening file %s: %w", name, err)
	}
	return f, f.Close, nil
}

// stdinIsTerminal reports whether stdin is an interactive terminal, so an
// implicit read would block waiting for typing.
func (a *app) stdinIsTerminal() bool {
	f, ok := a.stdin.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// decodeSource converts raw bytes to UTF-16 code units. In auto mode a
// byte order mark selects UTF-16 and everything else is read as UTF-8.
func decodeSource(raw []byte, name string) ([]uint16, error) {
	var dec transform.Transformer
	switch strings.ToLower(name) {
	case "auto", "":
		dec = unicode.BOMOverride(unicode.UTF8.NewDecoder())
	case "utf-8", "utf8":
		dec = unicode.UTF8BOM.NewDecoder()
	case "utf-16le":
		dec = unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewDecoder()
	case "utf-16be":
		dec = unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder()
	default:
		return nil, fmt.Errorf("unknown encoding %q", name)
	}

	text, _, err := transform.Bytes(dec, raw)
	if err != nil {
		return nil, fmt.Errorf("decode source: %w", err)
	}
	return utf16.Encode([]rune(string(text))), nil
}
