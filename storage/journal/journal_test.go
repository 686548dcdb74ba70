package journal

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"launchpad/core/events"
)

type testEvent struct {
	kind  string
	attrs map[string]string
}

func (e testEvent) EventType() string              { return e.kind }
func (e testEvent) Attributes() map[string]string { return e.attrs }

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })
	return j
}

func TestJournalAppendsInOrder(t *testing.T) {
	j := openTestJournal(t)
	var emitter events.Emitter = j
	emitter.Emit(testEvent{kind: "sale.created", attrs: map[string]string{"sale_id": "0"}})
	emitter.Emit(testEvent{kind: "sale.deposited", attrs: map[string]string{"sale_id": "0", "amount": "50"}})
	emitter.Emit(testEvent{kind: "sale.deposited", attrs: map[string]string{"sale_id": "0", "amount": "25"}})

	require.Equal(t, uint64(3), j.LastSeq())
	all, err := j.Since(context.Background(), 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i, rec := range all {
		require.Equal(t, uint64(i+1), rec.Seq)
	}

	tail, err := j.Since(context.Background(), 1, 1)
	require.NoError(t, err)
	require.Len(t, tail, 1)
	require.Equal(t, uint64(2), tail[0].Seq)
	attrs, err := tail[0].Decode()
	require.NoError(t, err)
	require.Equal(t, "50", attrs["amount"])

	deposits, err := j.ByType(context.Background(), "sale.deposited", 10)
	require.NoError(t, err)
	require.Len(t, deposits, 2)
	require.Equal(t, uint64(3), deposits[0].Seq)
}

func TestJournalResumesSequence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	j, err := Open(path, nil)
	require.NoError(t, err)
	j.Emit(testEvent{kind: "referral.recorded", attrs: map[string]string{"account": "bob.near"}})
	require.NoError(t, j.Close())

	reopened, err := Open(path, nil)
	require.NoError(t, err)
	defer reopened.Close()
	require.Equal(t, uint64(1), reopened.LastSeq())
	rec, err := reopened.Append(context.Background(), testEvent{kind: "referral.recorded"})
	require.NoError(t, err)
	require.Equal(t, uint64(2), rec.Seq)
}

func TestJournalLogsFailures(t *testing.T) {
	var buf bytes.Buffer
	j, err := Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name()), slog.New(slog.NewJSONHandler(&buf, nil)))
	require.NoError(t, err)
	require.NoError(t, j.Close())

	j.Emit(testEvent{kind: "sale.created"})
	require.Contains(t, buf.String(), "journal append failed")
	require.Equal(t, uint64(0), j.LastSeq())
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("  ", nil)
	require.ErrorIs(t, err, ErrPathRequired)
}
