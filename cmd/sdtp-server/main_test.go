package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/engagelively/sdtp/internal/daemon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_TableLoadFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen: localhost:0
tables:
  - name: colors
    type: csv
    path: `+filepath.Join(dir, "missing.csv")+`
`), 0o600))

	conf, err := daemon.FromFile(path)
	require.NoError(t, err)

	assert.Equal(t, daemon.ExitFailure, run(conf), "run must return instead of exiting the process")
}
