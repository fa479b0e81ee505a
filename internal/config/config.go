// Package config loads the optional .conform.yaml file and applies
// environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultFile is read from the working directory when no path is given.
const DefaultFile = ".conform.yaml"

// Default values, matching the layout of the interpreter repository the
// harness was first written for.
const (
	DefaultInterpreter        = "src/pc1211"
	DefaultTestsDir           = "tests"
	DefaultExtension          = "bas"
	DefaultReference          = "test_references.json"
	DefaultTimeout            = 500 * time.Millisecond
	DefaultInterpreterVersion = "v0.5"
	DefaultMaxOutput          = 1 << 20 // 1 MB
)

// Config holds harness settings. Raw fields keep the file's spelling so a
// bad value can be reported as written.
type Config struct {
	Interpreter        string `yaml:"interpreter"`
	TestsDir           string `yaml:"tests"`
	Extension          string `yaml:"extension"`
	Reference          string `yaml:"reference"`
	RawTimeout         string `yaml:"timeout"`    // e.g. "500ms", "2s"
	MaxOutput          int    `yaml:"max_output"` // bytes
	InterpreterVersion string `yaml:"interpreter_version"`
}

// Default returns a Config with every field set to its default.
func Default() *Config {
	return &Config{
		Interpreter:        DefaultInterpreter,
		TestsDir:           DefaultTestsDir,
		Extension:          DefaultExtension,
		Reference:          DefaultReference,
		RawTimeout:         DefaultTimeout.String(),
		MaxOutput:          DefaultMaxOutput,
		InterpreterVersion: DefaultInterpreterVersion,
	}
}

// Timeout returns the parsed per-test budget.
func (c *Config) Timeout() (time.Duration, error) {
	if c.RawTimeout == "" {
		return DefaultTimeout, nil
	}
	d, err := time.ParseDuration(c.RawTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", c.RawTimeout, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("invalid timeout %q: must be positive", c.RawTimeout)
	}
	return d, nil
}

// Validate reports every invalid field at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Interpreter == "" {
		errs = append(errs, errors.New("interpreter path is empty"))
	}
	if c.TestsDir == "" {
		errs = append(errs, errors.New("tests directory is empty"))
	}
	if strings.TrimPrefix(c.Extension, ".") == "" {
		errs = append(errs, errors.New("test file extension is empty"))
	}
	if c.Reference == "" {
		errs = append(errs, errors.New("reference path is empty"))
	}
	if c.MaxOutput < 0 {
		errs = append(errs, fmt.Errorf("max_output %d is negative", c.MaxOutput))
	}
	if _, err := c.Timeout(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Load reads path over the defaults. A missing file is only an error when
// required is true, i.e. when the user named the file explicitly.
func Load(path string, required bool) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !required {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// Environment variables that override the file.
const (
	EnvInterpreter = "CONFORM_INTERPRETER"
	EnvTestsDir    = "CONFORM_TESTS"
	EnvReference   = "CONFORM_REFERENCE"
	EnvTimeout     = "CONFORM_TIMEOUT"
	EnvCI          = "CONFORM_CI"
)

// ApplyEnv overrides fields from environ (os.Environ() form).
func (c *Config) ApplyEnv(environ []string) {
	if v, ok := lookup(environ, EnvInterpreter); ok {
		c.Interpreter = v
	}
	if v, ok := lookup(environ, EnvTestsDir); ok {
		c.TestsDir = v
	}
	if v, ok := lookup(environ, EnvReference); ok {
		c.Reference = v
	}
	if v, ok := lookup(environ, EnvTimeout); ok {
		c.RawTimeout = v
	}
}

// EnvBool reports whether name is set to a true value in environ.
func EnvBool(environ []string, name string) bool {
	v, ok := lookup(environ, name)
	if !ok {
		return false
	}
	b, err := strconv.ParseBool(v)
	return err == nil && b
}

func lookup(environ []string, name string) (string, bool) {
	prefix := name + "="
	for _, env := range environ {
		if strings.HasPrefix(env, prefix) {
			return strings.TrimPrefix(env, prefix), true
		}
	}
	return "", false
}
