// Package config loads and validates bookshelf configuration.
//
// Configuration is read from YAML with unknown fields rejected, layered over
// Default(), and checked against the closed CUE definition #Config in
// schema.cue.
package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

//go:embed schema.cue
var schemaCUE string

// Config is the full bookshelf configuration.
type Config struct {
	// Database is the SQLite file or Badger directory. When unset it
	// follows Backend; see DefaultDatabase.
	Database string `yaml:"database" json:"database"`

	// Backend is "sqlite" or "badger".
	Backend string `yaml:"backend" json:"backend"`

	// MaxLength bounds book ids, titles, and descriptions.
	MaxLength int `yaml:"max_length" json:"max_length"`

	// CacheSize is the runtime's read cache capacity. Zero disables it.
	CacheSize int `yaml:"cache_size" json:"cache_size"`

	// LogLevel is a zerolog level name.
	LogLevel string `yaml:"log_level" json:"log_level"`
}

// DefaultDatabase returns the database path used for backend when none is
// configured: a bookshelf.db file for sqlite, a bookshelf.badger directory
// for badger.
func DefaultDatabase(backend string) string {
	if backend == "badger" {
		return "bookshelf.badger"
	}
	return "bookshelf.db"
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Database:  DefaultDatabase("sqlite"),
		Backend:   "sqlite",
		MaxLength: 128,
		CacheSize: 1024,
		LogLevel:  "info",
	}
}

// Load reads the YAML file at path over Default() and validates the result.
func Load(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads YAML from r over Default() and validates the result.
// Unknown fields are rejected. An empty document yields Default(). A
// document without database gets DefaultDatabase(backend).
func Parse(r io.Reader) (Config, error) {
	cfg := Default()
	cfg.Database = ""
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if cfg.Database == "" {
		cfg.Database = DefaultDatabase(cfg.Backend)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// ParseBytes is Parse over an in-memory document.
func ParseBytes(data []byte) (Config, error) {
	return Parse(bytes.NewReader(data))
}

// FieldError is one schema violation.
type FieldError struct {
	Path    string
	Message string
}

func (e FieldError) Error() string {
	if e.Path == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// ValidationError lists every schema violation found in a Config.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, f.Error())
	}
	return "invalid config: " + strings.Join(msgs, "; ")
}

// Validate checks c against #Config.
func (c Config) Validate() error {
	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return fmt.Errorf("compile config schema: %w", err)
	}

	def := schema.LookupPath(cue.ParsePath("#Config"))
	v := def.Unify(ctx.Encode(c))
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return formatCUEError(err)
	}
	return nil
}

// formatCUEError flattens CUE's error list into a ValidationError.
func formatCUEError(err error) error {
	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return &ValidationError{Fields: []FieldError{{Message: err.Error()}}}
	}
	out := &ValidationError{}
	for _, e := range errs {
		format, args := e.Msg()
		out.Fields = append(out.Fields, FieldError{
			Path:    strings.Join(e.Path(), "."),
			Message: fmt.Sprintf(format, args...),
		})
	}
	return out
}

// Level returns the zerolog level named by LogLevel.
func (c Config) Level() (zerolog.Level, error) {
	lvl, err := zerolog.ParseLevel(c.LogLevel)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("log level: %w", err)
	}
	return lvl, nil
}
