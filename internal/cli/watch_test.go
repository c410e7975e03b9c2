package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatch_OnceWithCompleteInbox(t *testing.T) {
	inbox := t.TempDir()
	ledgerFixtures(t, inbox)
	out := filepath.Join(t.TempDir(), "suivi.xlsx")

	paramsPath := filepath.Join(inbox, "params.yaml")
	require.NoError(t, os.WriteFile(paramsPath,
		[]byte("month: \"03\"\nyear: \"2024\"\nwilaya: Adrar\n"), 0o644))

	// The inbox is already complete, so --once returns after the initial
	// validation pass without waiting for events.
	cmd := NewRootCommand()
	var stdout bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"watch", inbox,
		"--report", "suivi_paiements",
		"--out", out,
		"--params", paramsPath,
		"--once",
	})

	require.NoError(t, cmd.Execute())

	assert.Contains(t, stdout.String(), "sheets written")
	_, err := os.Stat(out)
	assert.NoError(t, err)
}

func TestWatch_UnknownReport(t *testing.T) {
	cmd := NewRootCommand()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"watch", t.TempDir(),
		"--report", "nope",
		"--out", "out.xlsx",
		"--once",
	})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
