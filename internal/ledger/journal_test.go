package ledger

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "journal"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestJournalAppendAndVerify(t *testing.T) {
	j := openTestJournal(t)

	require.NoError(t, j.Append("BuyProduct", map[string]string{"patient": "p1", "product": "prod1"}))
	require.NoError(t, j.Append("FileClaim", map[string]string{"claim": "c1"}))
	require.NoError(t, j.Append("SettleClaim", map[string]string{"claim": "c1"}))

	assert.Equal(t, uint64(3), j.Len())
	assert.NoError(t, j.Verify())
}

func TestJournalChainsEntries(t *testing.T) {
	j := openTestJournal(t)

	require.NoError(t, j.Append("CreatePatient", map[string]string{"id": "p1"}))
	require.NoError(t, j.Append("CreateDoctor", map[string]string{"id": "d1"}))

	first, err := j.Get(0)
	require.NoError(t, err)
	second, err := j.Get(1)
	require.NoError(t, err)

	assert.Equal(t, genesisHash, first.PrevHash)
	assert.Equal(t, first.Hash, second.PrevHash)
	assert.NotEqual(t, first.Hash, second.Hash)
}

func TestJournalReopenRestoresHead(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "journal")

	j, err := Open(dir, zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, j.Append("CreateProduct", map[string]string{"id": "prod1"}))
	head, err := j.Get(0)
	require.NoError(t, err)
	require.NoError(t, j.Close())

	reopened, err := Open(dir, zap.NewNop())
	require.NoError(t, err)
	defer reopened.Close()

	require.NoError(t, reopened.Append("BuyProduct", map[string]string{"id": "prod1"}))
	next, err := reopened.Get(1)
	require.NoError(t, err)

	assert.Equal(t, head.Hash, next.PrevHash)
	assert.Equal(t, uint64(2), reopened.Len())
	assert.NoError(t, reopened.Verify())
}

func TestJournalGetMissingEntry(t *testing.T) {
	j := openTestJournal(t)

	_, err := j.Get(42)
	assert.Error(t, err)
}
