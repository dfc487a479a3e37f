package ledger

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/syndtr/goleveldb/leveldb"
	"go.uber.org/zap"
)

// Entry is one committed transaction record. Each entry carries the hash of
// its predecessor, so the journal forms a tamper-evident chain.
type Entry struct {
	Index     uint64          `json:"index"`
	Timestamp string          `json:"timestamp"`
	Kind      string          `json:"kind"`
	Payload   json.RawMessage `json:"payload"`
	PrevHash  string          `json:"prevHash"`
	Hash      string          `json:"hash"`
}

// Journal is an append-only transaction log backed by LevelDB
type Journal struct {
	mu   sync.Mutex
	db   *leveldb.DB
	log  *zap.Logger
	head string
	next uint64
}

const genesisHash = "0000000000000000000000000000000000000000000000000000000000000000"

// Open opens or creates the journal at dir and restores the chain head
func Open(dir string, log *zap.Logger) (*Journal, error) {
	db, err := leveldb.OpenFile(dir, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	j := &Journal{db: db, log: log, head: genesisHash}

	raw, err := db.Get([]byte("meta:head"), nil)
	if err == nil {
		var meta struct {
			Head string `json:"head"`
			Next uint64 `json:"next"`
		}
		if err := json.Unmarshal(raw, &meta); err != nil {
			return nil, fmt.Errorf("corrupt journal head: %w", err)
		}
		j.head = meta.Head
		j.next = meta.Next
	} else if err != leveldb.ErrNotFound {
		return nil, fmt.Errorf("failed to read journal head: %w", err)
	}

	return j, nil
}

// Append records a transaction and links it to the current chain head
func (j *Journal) Append(kind string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	entry := Entry{
		Index:     j.next,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Kind:      kind,
		Payload:   data,
		PrevHash:  j.head,
	}
	entry.Hash = hashEntry(entry)

	encoded, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal entry: %w", err)
	}

	batch := new(leveldb.Batch)
	batch.Put(entryKey(entry.Index), encoded)
	meta, _ := json.Marshal(map[string]interface{}{"head": entry.Hash, "next": entry.Index + 1})
	batch.Put([]byte("meta:head"), meta)

	if err := j.db.Write(batch, nil); err != nil {
		return fmt.Errorf("failed to write entry: %w", err)
	}

	j.head = entry.Hash
	j.next = entry.Index + 1

	j.log.Debug("Appended journal entry",
		zap.Uint64("index", entry.Index),
		zap.String("kind", kind),
	)
	return nil
}

// Get returns the entry at index
func (j *Journal) Get(index uint64) (*Entry, error) {
	raw, err := j.db.Get(entryKey(index), nil)
	if err == leveldb.ErrNotFound {
		return nil, fmt.Errorf("journal entry %d not found", index)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read entry: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("corrupt entry %d: %w", index, err)
	}
	return &entry, nil
}

// Len returns the number of entries appended so far
func (j *Journal) Len() uint64 {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.next
}

// Verify walks the chain from genesis and reports the first broken link
func (j *Journal) Verify() error {
	j.mu.Lock()
	count := j.next
	j.mu.Unlock()

	prev := genesisHash
	for i := uint64(0); i < count; i++ {
		entry, err := j.Get(i)
		if err != nil {
			return err
		}
		if entry.PrevHash != prev {
			return fmt.Errorf("entry %d: prev hash mismatch", i)
		}
		if hashEntry(*entry) != entry.Hash {
			return fmt.Errorf("entry %d: hash mismatch", i)
		}
		prev = entry.Hash
	}
	return nil
}

func (j *Journal) Close() error {
	return j.db.Close()
}

// hashEntry hashes the entry's canonical JSON form with the Hash field blank
func hashEntry(entry Entry) string {
	entry.Hash = ""
	data, _ := json.Marshal(entry)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func entryKey(index uint64) []byte {
	return []byte(fmt.Sprintf("entry:%016d", index))
}
