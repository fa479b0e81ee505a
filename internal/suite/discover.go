package suite

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Declaration is one discovered test script and its declared expectation.
type Declaration struct {
	Name   string      // base file name, e.g. "goto_pass.bas"
	Path   string      // path passed to the interpreter
	Expect Expectation // fixed at discovery time
}

// NamingError reports every script whose name does not declare an
// expectation. Its presence means no test may run.
type NamingError struct {
	Ext   string
	Files []string
}

func (e *NamingError) Error() string {
	return fmt.Sprintf("%d test file(s) do not end with %s: %s",
		len(e.Files), e.allowed(), strings.Join(e.Files, ", "))
}

func (e *NamingError) allowed() string {
	parts := []string{
		"'" + ExpectPass.Suffix(e.Ext) + "'",
		"'" + ExpectFail.Suffix(e.Ext) + "'",
		"'" + ExpectTimeout.Suffix(e.Ext) + "'",
	}
	return strings.Join(parts, ", ")
}

// FormatNamingError renders the console message for a naming violation.
func FormatNamingError(e *NamingError) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("ERROR: The following test files do not end with %s:\n", e.allowed()))
	for _, f := range e.Files {
		sb.WriteString(fmt.Sprintf("  - %s\n", f))
	}
	sb.WriteString("\nAll test files must be explicitly named to indicate expected outcome.\n")
	sb.WriteString("Please rename them with one of the suffixes above.\n")
	return sb.String()
}

// Discover lists every *.<ext> file directly under dir, sorted by path.
// If any file fails the naming convention a *NamingError naming all of
// them is returned together with no declarations.
func Discover(dir, ext string) ([]Declaration, error) {
	ext = strings.TrimPrefix(ext, ".")
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading tests directory: %w", err)
	}
	// dir is never treated as a pattern, so names like tests[v2] work.
	var paths []string
	for _, de := range entries {
		if filepath.Ext(de.Name()) == "."+ext {
			paths = append(paths, filepath.Join(dir, de.Name()))
		}
	}
	sort.Strings(paths)

	var decls []Declaration
	var invalid []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}
		if !info.Mode().IsRegular() {
			continue
		}
		name := filepath.Base(path)
		expect, ok := ExpectationFromName(name, ext)
		if !ok {
			invalid = append(invalid, name)
			continue
		}
		decls = append(decls, Declaration{Name: name, Path: path, Expect: expect})
	}

	if len(invalid) > 0 {
		return nil, &NamingError{Ext: ext, Files: invalid}
	}
	return decls, nil
}
