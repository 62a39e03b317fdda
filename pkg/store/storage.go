package store

import (
	"errors"
)

var (
	ErrNotFound      = errors.New("key not found")
	ErrTransactionRO = errors.New("transaction is read-only")
)

// Storage is the interface for the underlying key-value store
type Storage interface {
	// Begin starts a new transaction
	Begin(writable bool) (Transaction, error)

	// Close closes the storage
	Close() error

	// Sync flushes writes to disk
	Sync() error
}

// Transaction represents a database transaction with snapshot isolation
type Transaction interface {
	Get(table Table, key []byte) ([]byte, error)
	Set(table Table, key, value []byte) error
	Delete(table Table, key []byte) error

	// Scan iterates over the keys of table starting with prefix, in
	// ascending byte order. A nil prefix scans the whole table.
	Scan(table Table, prefix []byte) (Iterator, error)

	Commit() error

	// Rollback discards the transaction. It is a no-op after Commit.
	Rollback() error
}

// Iterator iterates over key-value pairs
type Iterator interface {
	Next() bool

	// Key returns the current key without its table prefix
	Key() []byte

	Value() ([]byte, error)
	Close() error
}

// Table is a logical keyspace of the storage
type Table byte

const (
	// TableID2Str maps encoded terms to their lexical form
	TableID2Str Table = iota

	// TableSPOG holds one key per quad: subject, predicate, object, graph.
	// Its byte order is the SPO order of the statement index.
	TableSPOG

	// TableGraphs lists the named graphs
	TableGraphs
)

func (t Table) String() string {
	switch t {
	case TableID2Str:
		return "id2str"
	case TableSPOG:
		return "spog"
	case TableGraphs:
		return "graphs"
	default:
		return "unknown"
	}
}

// TableKey prepends the table prefix to key
func TableKey(table Table, key []byte) []byte {
	result := make([]byte, 1+len(key))
	result[0] = byte(table)
	copy(result[1:], key)
	return result
}
