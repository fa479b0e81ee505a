package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), DefaultFile)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_MissingOptionalFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), DefaultFile), false)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	d, err := cfg.Timeout()
	require.NoError(t, err)
	assert.Equal(t, 500*time.Millisecond, d)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_MissingRequiredFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "custom.yaml"), true)
	assert.Error(t, err)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
interpreter: ./build/basic
tests: suites/core
extension: bas
timeout: 2s
interpreter_version: v1.2
`)
	cfg, err := Load(path, true)
	require.NoError(t, err)

	assert.Equal(t, "./build/basic", cfg.Interpreter)
	assert.Equal(t, "suites/core", cfg.TestsDir)
	assert.Equal(t, DefaultReference, cfg.Reference)
	assert.Equal(t, "v1.2", cfg.InterpreterVersion)
	d, err := cfg.Timeout()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Second, d)
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "timeout: [unclosed"), true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parsing")
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := &Config{RawTimeout: "-1s", MaxOutput: -1}
	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{"interpreter", "tests directory", "extension", "reference", "max_output", "timeout"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestTimeout_Invalid(t *testing.T) {
	_, err := (&Config{RawTimeout: "soon"}).Timeout()
	assert.Error(t, err)
	_, err = (&Config{RawTimeout: "0s"}).Timeout()
	assert.Error(t, err)
}

func TestApplyEnv(t *testing.T) {
	cfg := Default()
	cfg.ApplyEnv([]string{
		"HOME=/root",
		EnvInterpreter + "=/opt/basic",
		EnvTestsDir + "=t",
		EnvReference + "=ref.json",
		EnvTimeout + "=3s",
	})
	assert.Equal(t, "/opt/basic", cfg.Interpreter)
	assert.Equal(t, "t", cfg.TestsDir)
	assert.Equal(t, "ref.json", cfg.Reference)
	assert.Equal(t, "3s", cfg.RawTimeout)
}

func TestEnvBool(t *testing.T) {
	assert.True(t, EnvBool([]string{"CI=true"}, "CI"))
	assert.True(t, EnvBool([]string{"CI=1"}, "CI"))
	assert.False(t, EnvBool([]string{"CI=no"}, "CI"))
	assert.False(t, EnvBool([]string{"CIRCLE=true"}, "CI"))
	assert.False(t, EnvBool(nil, "CI"))
}

// Env overrides win over whatever the file held.
func TestApplyEnv_Property(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("CONFORM_INTERPRETER always wins", prop.ForAll(
		func(fromFile, fromEnv string) bool {
			cfg := Default()
			cfg.Interpreter = fromFile
			cfg.ApplyEnv([]string{EnvInterpreter + "=" + fromEnv})
			return cfg.Interpreter == fromEnv
		},
		gen.Identifier(),
		gen.Identifier(),
	))

	properties.TestingRun(t)
}
