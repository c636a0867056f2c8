// Package config loads jsfront.json, the settings shared by the jsfront
// commands: decompiler layout and lexer leniency.
package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
	"golang.org/x/mod/semver"
)

// FileName is the configuration file looked up by the CLI.
const FileName = "jsfront.json"

// LanguageVersion is the newest language version the front end accepts.
const LanguageVersion = "v1.5.0"

//go:embed schema.json
var schemaJSON string

// Config holds the settings of one run.
type Config struct {
	IndentUnit         int    `json:"indentUnit"`
	CaseIndentUnit     int    `json:"caseIndentUnit"`
	PermissiveReserved bool   `json:"permissiveReserved"`
	StrictWarnings     bool   `json:"strictWarnings"`
	LanguageVersion    string `json:"languageVersion"`
}

// Default returns the settings used when no file is given.
func Default() *Config {
	return &Config{
		IndentUnit:      4,
		CaseIndentUnit:  2,
		LanguageVersion: LanguageVersion,
	}
}

// Load reads and validates the file at path. Fields the file leaves out
// keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse validates data against the configuration schema and decodes it
// over the defaults.
func Parse(data []byte) (*Config, error) {
	schema, err := compiledSchema()
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	var doc interface{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ErrUnsupportedLanguage is returned for language versions newer than
// LanguageVersion or of another major version.
var ErrUnsupportedLanguage = errors.New("unsupported language version")

// Validate checks the rules the schema cannot express.
func (c *Config) Validate() error {
	if !semver.IsValid(c.LanguageVersion) {
		return fmt.Errorf("%w: %q is not a semantic version", ErrUnsupportedLanguage, c.LanguageVersion)
	}
	if semver.Major(c.LanguageVersion) != semver.Major(LanguageVersion) ||
		semver.Compare(c.LanguageVersion, LanguageVersion) > 0 {
		return fmt.Errorf("%w: %s (newest is %s)", ErrUnsupportedLanguage, c.LanguageVersion, LanguageVersion)
	}
	return nil
}

var compiledSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	compiler.AssertFormat = true
	if compiler.Formats == nil {
		compiler.Formats = make(map[string]func(interface{}) bool)
	}
	compiler.Formats["semver"] = func(v interface{}) bool {
		s, ok := v.(string)
		if !ok {
			return true // Type validation happens separately
		}
		return semver.IsValid(s)
	}
	// The schema is self-contained.
	compiler.LoadURL = func(url string) (io.ReadCloser, error) {
		return nil, fmt.Errorf("$ref not allowed: %s", url)
	}

	const url = "schema://jsfront.json"
	if err := compiler.AddResource(url, strings.NewReader(schemaJSON)); err != nil {
		return nil, err
	}
	return compiler.Compile(url)
})
