package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goodTable = `[
  {"ref": "cran::pkgA", "package": "pkgA", "version": "1.0", "type": "cran",
   "platform": "x86_64-pc-linux-gnu", "direct": true, "status": "OK",
   "dep_types": ["depends", "imports"]}
]`

const badTable = `[
  {"ref": "cran::pkgA", "package": "pkgA", "type": "cran", "direct": true,
   "status": "FAILED", "error": "mirror timeout"}
]`

func writeTable(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "table.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func resetFlags() {
	inputFlag = ""
	configFlag = ""
	policyFlag = ""
	libraryFlag = ""
	verboseFlag = false
	problemFlag = false
}

func TestRunSolvePlan(t *testing.T) {
	defer resetFlags()
	resetFlags()
	inputFlag = writeTable(t, goodTable)
	libraryFlag = "/tmp/lib"
	policyFlag = "lazy"

	var out bytes.Buffer
	err := runSolve(&out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Installation plan:")
	assert.Contains(t, out.String(), "* cran::pkgA 1.0")
}

func TestRunSolveFailureReport(t *testing.T) {
	defer resetFlags()
	resetFlags()
	inputFlag = writeTable(t, badTable)
	libraryFlag = "/tmp/lib"

	var out bytes.Buffer
	err := runSolve(&out)
	assert.Equal(t, errSolveFailed, err)
	assert.Contains(t, out.String(), "Cannot install all requested packages:")
	assert.Contains(t, out.String(), "mirror timeout")
}

func TestRunSolveMissingLibrary(t *testing.T) {
	defer resetFlags()
	resetFlags()
	inputFlag = writeTable(t, goodTable)

	var out bytes.Buffer
	err := runSolve(&out)
	assert.Error(t, err)
	assert.NotEqual(t, errSolveFailed, err)
}

func TestRunSolveShowProblem(t *testing.T) {
	defer resetFlags()
	resetFlags()
	inputFlag = writeTable(t, goodTable)
	libraryFlag = "/tmp/lib"
	problemFlag = true

	var out bytes.Buffer
	require.NoError(t, runSolve(&out))
	assert.Contains(t, out.String(), "1: cran::pkgA")
	assert.Contains(t, out.String(), "pkgA: select exactly one of")
}

func TestRunSolveConfigFile(t *testing.T) {
	defer resetFlags()
	resetFlags()
	inputFlag = writeTable(t, goodTable)
	configFlag = filepath.Join(t.TempDir(), "planr.yaml")
	require.NoError(t, os.WriteFile(configFlag, []byte("library: /tmp/lib\npolicy: upgrade\n"), 0o644))

	var out bytes.Buffer
	require.NoError(t, runSolve(&out))
	assert.Contains(t, out.String(), "cran::pkgA")
}
