package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"launchpad/native/referral"
	"launchpad/storage/journal"
)

func TestExportJournal(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.toml")
	journalPath := filepath.Join(dir, "journal.db")
	cfg := fmt.Sprintf("DataDir = %q\nJournalPath = %q\nOwner = \"owner.near\"\n", dir, journalPath)
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o600))

	jrnl, err := journal.Open(journalPath, nil)
	require.NoError(t, err)
	_, err = jrnl.Append(context.Background(), referral.ReferralRecorded{Account: "bob.near", Referrer: "alice.near", Source: "linkdrop"})
	require.NoError(t, err)
	require.NoError(t, jrnl.Close())

	out := filepath.Join(dir, "events.parquet")
	var stdout, stderr bytes.Buffer
	code := runExportJournal([]string{"-config", cfgPath, "-out", out}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	require.Contains(t, stdout.String(), "Exported 1 events")
	require.FileExists(t, out)

	code = runExportJournal([]string{"-config", cfgPath}, &stdout, &stderr)
	require.Equal(t, 1, code)
}
