package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want *Config
	}{
		{
			name: "empty object keeps defaults",
			doc:  `{}`,
			want: Default(),
		},
		{
			name: "all fields",
			doc: `{"indentUnit": 2, "caseIndentUnit": 0, "permissiveReserved": true,
				"strictWarnings": true, "languageVersion": "v1.3.0"}`,
			want: &Config{
				IndentUnit:         2,
				CaseIndentUnit:     0,
				PermissiveReserved: true,
				StrictWarnings:     true,
				LanguageVersion:    "v1.3.0",
			},
		},
		{
			name: "partial",
			doc:  `{"strictWarnings": true}`,
			want: &Config{IndentUnit: 4, CaseIndentUnit: 2, StrictWarnings: true, LanguageVersion: LanguageVersion},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse([]byte(tt.doc))
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Parse() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{"not json", `{`, "decode config"},
		{"not an object", `[]`, "validate config"},
		{"unknown field", `{"indent": 2}`, "validate config"},
		{"wrong type", `{"indentUnit": "2"}`, "validate config"},
		{"negative indent", `{"indentUnit": -1}`, "validate config"},
		{"indent too large", `{"caseIndentUnit": 17}`, "validate config"},
		{"fractional indent", `{"indentUnit": 1.5}`, "validate config"},
		{"bad version format", `{"languageVersion": "1.5"}`, "validate config"},
		{"newer version", `{"languageVersion": "v1.8.0"}`, "unsupported language version"},
		{"other major", `{"languageVersion": "v2.0.0"}`, "unsupported language version"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateLanguageVersion(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	cfg.LanguageVersion = "v1.0.0"
	assert.NoError(t, cfg.Validate())

	cfg.LanguageVersion = "latest"
	assert.True(t, errors.Is(cfg.Validate(), ErrUnsupportedLanguage))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(`{"indentUnit": 8}`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.IndentUnit)
	assert.Equal(t, 2, cfg.CaseIndentUnit)

	_, err = Load(filepath.Join(dir, "missing.json"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"indentUnit": -4}`), 0o644))
	_, err = Load(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), bad)
}
