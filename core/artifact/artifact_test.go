package artifact_test

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aledsdavies/jsfront/core/artifact"
	"github.com/aledsdavies/jsfront/core/token"
	"github.com/aledsdavies/jsfront/runtime/decompiler"
)

// traces encodes "function f(a) { function () {}; }" the way the parser
// would.
func traces() *decompiler.Source {
	e := decompiler.NewEncoder()
	e.StartScript()
	mark := e.StartFunction(0)
	e.AddName("f")
	e.AddToken(token.LP)
	e.AddName("a")
	e.AddToken(token.RP)
	e.AddEOL(token.LC)
	inner := e.StartFunction(0)
	e.AddToken(token.LP)
	e.AddToken(token.RP)
	e.AddEOL(token.LC)
	e.AddToken(token.RC)
	e.StopFunction(inner)
	e.AddEOL(token.SEMI)
	e.AddToken(token.RC)
	e.StopFunction(mark)
	e.AddToken(token.EOL)
	return e.StopScript()
}

func sample() *artifact.Artifact {
	src := traces()
	return &artifact.Artifact{
		Version:    artifact.FormatVersion,
		Language:   "v1.5.0",
		SourceName: "t.js",
		Script: artifact.Unit{
			Name:   "t.js",
			Type:   "script",
			Vars:   []string{"x"},
			Tree:   "SCRIPT\n  FUNCTION \"f\" fn=0\n",
			Source: src.Units,
			Functions: []artifact.Unit{
				{
					Name:               "f",
					Type:               "statement",
					Params:             []string{"a"},
					RegExps:            []artifact.RegExp{{Pattern: "x+", Flags: "g"}},
					RequiresActivation: true,
					Tree:               "FUNCTION \"f\"\n",
					Source:             src.Functions[0].Units,
					Functions: []artifact.Unit{
						{
							Name:   "g",
							Type:   "expression",
							Tree:   "FUNCTION \"g\"\n",
							Source: src.Functions[0].Functions[0].Units,
						},
					},
				},
			},
		},
	}
}

func write(t *testing.T, a *artifact.Artifact, flags artifact.Flags) []byte {
	t.Helper()
	var buf bytes.Buffer
	_, err := artifact.Write(&buf, a, flags)
	require.NoError(t, err)
	return buf.Bytes()
}

func TestWriteReadRoundTrip(t *testing.T) {
	want := sample()

	var buf bytes.Buffer
	hash, err := artifact.Write(&buf, want, artifact.FlagWarnings)
	require.NoError(t, err)

	data := buf.Bytes()
	assert.Equal(t, "JSIR", string(data[0:4]))
	assert.Equal(t, uint16(0x0100), binary.LittleEndian.Uint16(data[4:6]))
	assert.Equal(t, uint16(artifact.FlagWarnings), binary.LittleEndian.Uint16(data[6:8]))

	got, header, err := artifact.Read(bytes.NewReader(data))
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("artifact mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, hash, header.Hash)
	assert.Equal(t, "v1.0.0", header.Version)
	assert.Equal(t, artifact.FlagWarnings, header.Flags)
}

func TestWriteIsDeterministic(t *testing.T) {
	first := write(t, sample(), 0)
	for i := 0; i < 20; i++ {
		if !bytes.Equal(first, write(t, sample(), 0)) {
			t.Fatalf("run %d: output not stable", i)
		}
	}

	changed := sample()
	changed.Script.Functions[0].Params = []string{"b"}
	assert.NotEqual(t, first[12:44], write(t, changed, 0)[12:44], "hash covers the body")
}

func TestReadRejectsDamagedFiles(t *testing.T) {
	good := write(t, sample(), 0)

	tests := []struct {
		name    string
		damage  func([]byte) []byte
		wantErr string
	}{
		{"empty", func(b []byte) []byte { return nil }, "read header"},
		{"short header", func(b []byte) []byte { return b[:20] }, "read header"},
		{"bad magic", func(b []byte) []byte { copy(b, "OPAL"); return b }, "invalid magic"},
		{"newer major", func(b []byte) []byte {
			binary.LittleEndian.PutUint16(b[4:6], 0x0200)
			return b
		}, "unsupported version: got v2.0.0"},
		{"oversized body", func(b []byte) []byte {
			binary.LittleEndian.PutUint32(b[8:12], 200*1024*1024)
			return b
		}, "exceeds maximum"},
		{"truncated body", func(b []byte) []byte { return b[:len(b)-3] }, "read body"},
		{"tampered body", func(b []byte) []byte { b[len(b)-1] ^= 0xFF; return b }, "body hash mismatch"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := tt.damage(append([]byte(nil), good...))
			_, _, err := artifact.Read(bytes.NewReader(data))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestReadAcceptsNewerMinor(t *testing.T) {
	data := write(t, sample(), 0)
	binary.LittleEndian.PutUint16(data[4:6], 0x0105)

	_, header, err := artifact.Read(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "v1.5.0", header.Version)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(a *artifact.Artifact)
		wantErr string
	}{
		{"valid", func(a *artifact.Artifact) {}, ""},
		{"bad format version", func(a *artifact.Artifact) { a.Version = "1.0" }, "invalid format version"},
		{"bad language version", func(a *artifact.Artifact) { a.Language = "es5" }, "invalid language version"},
		{"function at top", func(a *artifact.Artifact) { a.Script.Type = "statement" }, "want script"},
		{"nested script", func(a *artifact.Artifact) { a.Script.Functions[0].Type = "script" }, "nested unit has type script"},
		{"empty trace", func(a *artifact.Artifact) { a.Script.Source = nil }, "trace does not start with SCRIPT"},
		{"wrong nested head", func(a *artifact.Artifact) {
			a.Script.Functions[0].Functions[0].Source = []uint16{uint16(token.SCRIPT)}
		}, "unit 0/0/\"g\": trace does not start with FUNCTION"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := sample()
			tt.modify(a)
			err := a.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)

			_, werr := artifact.Write(&bytes.Buffer{}, a, 0)
			assert.Error(t, werr, "Write refuses invalid artifacts")
		})
	}
}

func TestValidateRejectsCorruptTraces(t *testing.T) {
	script := uint16(token.SCRIPT)
	tests := []struct {
		name   string
		modify func(a *artifact.Artifact)
	}{
		{"missing nested function", func(a *artifact.Artifact) {
			a.Script.Source = []uint16{script, uint16(token.FUNCTION), 7}
		}},
		{"string overruns trace", func(a *artifact.Artifact) {
			a.Script.Source = []uint16{script, uint16(token.NAME), 40, 'x'}
		}},
		{"unknown number tag", func(a *artifact.Artifact) {
			a.Script.Source = []uint16{script, uint16(token.NUMBER), 'Q', 1}
		}},
		{"pseudo token", func(a *artifact.Artifact) {
			a.Script.Source = []uint16{script, uint16(token.LOCAL_BLOCK)}
		}},
		{"function without body", func(a *artifact.Artifact) {
			a.Script.Functions[0].Functions[0].Source = []uint16{uint16(token.FUNCTION), uint16(token.LP)}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := sample()
			tt.modify(a)
			err := a.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, decompiler.ErrCorrupt), "got %v", err)
		})
	}
}

func TestTraceDecompiles(t *testing.T) {
	want := decompiler.Decompile(traces(), false, 0, 4, 2)
	got := decompiler.Decompile(sample().Script.Trace(), false, 0, 4, 2)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Trace mismatch (-want +got):\n%s", diff)
	}
}

func TestWalkAndFind(t *testing.T) {
	a := sample()

	var paths []string
	require.NoError(t, a.Script.Walk(func(path string, u *artifact.Unit) error {
		paths = append(paths, path+u.Name)
		return nil
	}))
	assert.Equal(t, []string{"t.js", "0/f", "0/0/g"}, paths)

	assert.Equal(t, []string{"f", "g"}, a.FunctionNames())

	g, ok := a.Find("g")
	require.True(t, ok)
	assert.Equal(t, "expression", g.Type)

	_, ok = a.Find("t.js")
	assert.False(t, ok, "the script is not a function")
}
