package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCmd(t *testing.T) {
	dir := t.TempDir()
	location := filepath.Join(dir, "session.yaml")
	require.NoError(t, os.WriteFile(location, []byte(`
world: 4
groups:
  - simulation=2
  - analysis=2
puppets:
  simulation:
    - simulation 16 3
    - send analysis t:int data:array
  analysis:
    - receive simulation t:int data:array
    - analysis
`), 0o644))

	out := &bytes.Buffer{}
	cmd := rootCmd()
	cmd.SetOut(out)
	cmd.SetArgs([]string{"run", "-c", location, "-l", "off"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "RANK")
	assert.Contains(t, out.String(), "simulation")
	assert.Contains(t, out.String(), "receive")
}

func TestProgramsCmd(t *testing.T) {
	out := &bytes.Buffer{}
	cmd := rootCmd()
	cmd.SetOut(out)
	cmd.SetArgs([]string{"programs"})
	require.NoError(t, cmd.Execute())
	assert.Equal(t, "analysis\nreceive\nsend\nsimulation\n", out.String())
}

func TestRunCmd_MissingSession(t *testing.T) {
	sessionURL = ""
	cmd := rootCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"run"})
	assert.Error(t, cmd.Execute())
}
