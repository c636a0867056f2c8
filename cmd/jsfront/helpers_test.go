package main

import (
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuggest(t *testing.T) {
	names := []string{"compute", "render", "renderAll", "init"}
	tests := []struct {
		name   string
		want   string
		wantOk bool
	}{
		{"compte", "compute", true},
		{"rndr", "render", true},
		{"RENDERALL", "renderAll", true},
		{"inti", "init", true},
		{"zzzzzz", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := suggest(tt.name, names)
			assert.Equal(t, tt.wantOk, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	_, ok := suggest("x", nil)
	assert.False(t, ok)
}

func TestDecodeSource(t *testing.T) {
	tests := []struct {
		name     string
		encoding string
		raw      []byte
		want     []uint16
	}{
		{"plain utf-8", "auto", []byte("a;"), []uint16{'a', ';'}},
		{"utf-8 bom", "auto", []byte("\xEF\xBB\xBFa"), []uint16{'a'}},
		{"utf-16be bom", "auto", []byte{0xFE, 0xFF, 0x00, 'a'}, []uint16{'a'}},
		{"utf-16le bom", "auto", []byte{0xFF, 0xFE, 'a', 0x00}, []uint16{'a'}},
		{"explicit utf-16be", "utf-16be", []byte{0x00, 'a', 0x00, 'b'}, []uint16{'a', 'b'}},
		{"astral", "utf-8", []byte("\U0001F600"), []uint16{0xD83D, 0xDE00}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeSource(tt.raw, tt.encoding)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := decodeSource([]byte("a"), "latin-9")
	assert.ErrorContains(t, err, "unknown encoding")
}

func TestStdinIsTerminal(t *testing.T) {
	a := &app{stdin: strings.NewReader("x;")}
	assert.False(t, a.stdinIsTerminal())

	f, err := os.CreateTemp(t.TempDir(), "in")
	require.NoError(t, err)
	defer f.Close()
	a.stdin = f
	assert.False(t, a.stdinIsTerminal())
}
