package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hanpama/gqlc/internal/config"
	"github.com/stretchr/testify/require"
)

func copyFile(t *testing.T, src, dst string) {
	t.Helper()
	raw, err := os.ReadFile(src)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Dir(dst), 0o755))
	require.NoError(t, os.WriteFile(dst, raw, 0o644))
}

func runCapture(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err = run(args, &out, &errOut)
	return out.String(), errOut.String(), err
}

func TestHelp(t *testing.T) {
	out, _, err := runCapture(t, "help", "compile")
	require.NoError(t, err)
	require.Contains(t, out, "-documents <path>")
	require.Contains(t, out, "-config <file>")

	out, _, err = runCapture(t, "help")
	require.NoError(t, err)
	require.Contains(t, out, "COMMANDS:")

	_, _, err = runCapture(t, "help", "nope")
	require.EqualError(t, err, `unknown help topic "nope"`)
}

func TestUnknownAndMissingCommand(t *testing.T) {
	_, errOut, err := runCapture(t)
	require.EqualError(t, err, "missing command")
	require.Contains(t, errOut, "USAGE:")

	_, _, err = runCapture(t, "explode")
	require.EqualError(t, err, `unknown command "explode"`)
}

func TestPasses(t *testing.T) {
	out, _, err := runCapture(t, "passes")
	require.NoError(t, err)
	require.Equal(t, "strip-unused-variables\n", out)
}

func TestCompile(t *testing.T) {
	outFile := filepath.Join(t.TempDir(), "gen", "compiled.graphql")
	out, errOut, err := runCapture(t, "compile", "-config", filepath.Join("testdata", "gqlc.hcl"), "-out", outFile)
	require.NoError(t, err)
	require.Empty(t, out)
	require.Equal(t, "Profile: stripped $locale\nUsers: stripped $first\n", errOut)

	raw, err := os.ReadFile(outFile)
	require.NoError(t, err)
	compiled := string(raw)
	require.Contains(t, compiled, "$withFriends")
	require.Contains(t, compiled, "$size")
	require.NotContains(t, compiled, "$locale")
	require.NotContains(t, compiled, "$first")
	require.Contains(t, compiled, "fragment ProfileFields on User")
}

func TestCompileFlagsOnly(t *testing.T) {
	out, _, err := runCapture(t, "compile",
		"-schema", filepath.Join("testdata", "schema.graphql"),
		"-documents", filepath.Join("testdata", "documents", "users.graphql"),
		"-log.level", "error",
	)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "query Users"), out)
	require.NotContains(t, out, "$first")
}

func TestCompileDiff(t *testing.T) {
	out, _, err := runCapture(t, "compile", "-config", filepath.Join("testdata", "gqlc.hcl"), "-diff")
	require.NoError(t, err)
	require.Contains(t, out, "--- a/Profile\n+++ b/Profile\n")
	require.Contains(t, out, "--- a/Users\n")
	require.NotContains(t, out, "a/ProfileFields")
	require.Contains(t, out, "\n-query Users")
	require.Contains(t, out, "\n+query Users")
}

func TestCompileReportsViolations(t *testing.T) {
	_, errOut, err := runCapture(t, "compile",
		"-config", filepath.Join("testdata", "gqlc.hcl"),
		"-documents", filepath.Join("testdata", "broken"),
		"-log.level", "error",
	)
	require.EqualError(t, err, "compile failed")
	require.Contains(t, errOut, `error: Cannot query field "missing" on type "User"`)
	require.Contains(t, errOut, "1 violation(s)")
}

func TestCompileRejectsUnknownPass(t *testing.T) {
	_, _, err := runCapture(t, "compile", "-config", filepath.Join("testdata", "gqlc.hcl"), "-pass", "nope")
	require.EqualError(t, err, `unknown pass "nope"`)
}

func TestCompileWithoutConfigSkipsSchemaFile(t *testing.T) {
	dir := t.TempDir()
	copyFile(t, filepath.Join("testdata", "schema.graphql"), filepath.Join(dir, "schema.graphql"))
	copyFile(t, filepath.Join("testdata", "documents", "users.graphql"), filepath.Join(dir, "queries", "users.graphql"))
	t.Chdir(dir)

	out, _, err := runCapture(t, "compile", "-log.level", "error")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(out, "query Users"), out)
	require.NotContains(t, out, "type Query")
}

func TestServiceSchema(t *testing.T) {
	src, err := filepath.Abs(filepath.Join("testdata", "schema.graphql"))
	require.NoError(t, err)

	// the default schema.graphql is optional
	t.Chdir(t.TempDir())
	sch, err := serviceSchema(config.Default())
	require.NoError(t, err)
	require.Nil(t, sch)

	// a schema named in a config file must exist
	cfgPath := filepath.Join(t.TempDir(), config.FileName)
	require.NoError(t, os.WriteFile(cfgPath, []byte(`schema = ["missing.graphql"]`), 0o644))
	cfg, err := loadConfig(cfgPath)
	require.NoError(t, err)
	_, err = serviceSchema(cfg)
	require.ErrorIs(t, err, os.ErrNotExist)

	// present default is loaded
	copyFile(t, src, "schema.graphql")
	sch, err = serviceSchema(config.Default())
	require.NoError(t, err)
	require.NotNil(t, sch.GetQueryType())
}

func TestServeRejectsMissingConfiguredSchema(t *testing.T) {
	_, _, err := runCapture(t, "serve", "-schema", filepath.Join(t.TempDir(), "nope.graphql"), "-log.level", "error")
	require.ErrorIs(t, err, os.ErrNotExist)
}
