package store

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/aleksaelezovic/rotrigo/internal/encoding"
	"github.com/aleksaelezovic/rotrigo/internal/logging"
	"github.com/aleksaelezovic/rotrigo/pkg/index"
	"github.com/aleksaelezovic/rotrigo/pkg/rdf"
)

// DefaultBatchSize is the number of quads written per transaction by
// InsertQuadsBatch and Load
const DefaultBatchSize = 1000

var (
	quadsWritten = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "rotrigo",
		Subsystem: "store",
		Name:      "quads_written_total",
		Help:      "quads written to the store, including rewrites of existing ones",
	})

	snapshotDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "rotrigo",
		Subsystem: "store",
		Name:      "snapshot_duration_seconds",
		Buckets:   []float64{.01, .05, .1, .5, 1, 5, 10, 30, 60},
		Help:      "time taken to read the store and index it",
	})
)

// TripleStore keeps quads in a key-value Storage and is the statement
// source of the in-memory indexes: Snapshot reads it into an index.Dataset.
type TripleStore struct {
	storage   Storage
	encoder   *encoding.TermEncoder
	decoder   *encoding.TermDecoder
	batchSize int
}

// NewTripleStore creates a triplestore over storage
func NewTripleStore(storage Storage) *TripleStore {
	return &TripleStore{
		storage:   storage,
		encoder:   encoding.NewTermEncoder(),
		decoder:   encoding.NewTermDecoder(),
		batchSize: DefaultBatchSize,
	}
}

// WithBatchSize sets the number of quads per write transaction
func (s *TripleStore) WithBatchSize(n int) *TripleStore {
	if n > 0 {
		s.batchSize = n
	}
	return s
}

// Close closes the underlying storage
func (s *TripleStore) Close() error {
	return s.storage.Close()
}

// Sync flushes committed writes to disk
func (s *TripleStore) Sync() error {
	return s.storage.Sync()
}

// InsertQuad inserts a quad into the store
func (s *TripleStore) InsertQuad(quad *rdf.Quad) error {
	return s.InsertQuadsBatch([]*rdf.Quad{quad})
}

// InsertQuadsBatch inserts quads, committing every batchSize quads
func (s *TripleStore) InsertQuadsBatch(quads []*rdf.Quad) error {
	for start := 0; start < len(quads); start += s.batchSize {
		end := min(start+s.batchSize, len(quads))
		if err := s.writeBatch(quads[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *TripleStore) writeBatch(quads []*rdf.Quad) error {
	txn, err := s.storage.Begin(true)
	if err != nil {
		return err
	}
	defer txn.Rollback() // #nosec G104 - no-op after a successful commit

	for _, quad := range quads {
		if err := s.insertQuadInTxn(txn, quad); err != nil {
			return err
		}
	}
	if err := txn.Commit(); err != nil {
		return fmt.Errorf("failed to commit %d quads: %w", len(quads), err)
	}
	quadsWritten.Add(float64(len(quads)))
	return nil
}

// Load reads N-Quads from r into the store and returns the number of quads
// read. Quads committed before a parse error stay in the store.
func (s *TripleStore) Load(r io.Reader) (int, error) {
	reader := rdf.NewNQuadsReader(r)
	batch := make([]*rdf.Quad, 0, s.batchSize)
	total := 0
	for {
		quad, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return total, err
		}
		batch = append(batch, quad)
		if len(batch) == s.batchSize {
			if err := s.writeBatch(batch); err != nil {
				return total, err
			}
			total += len(batch)
			batch = batch[:0]
		}
	}
	if len(batch) > 0 {
		if err := s.writeBatch(batch); err != nil {
			return total, err
		}
		total += len(batch)
	}
	return total, nil
}

func (s *TripleStore) encodeQuad(quad *rdf.Quad) ([4]encoding.EncodedTerm, [4]*string, error) {
	var encoded [4]encoding.EncodedTerm
	var lexical [4]*string
	graph := quad.Graph
	if graph == nil {
		graph = rdf.NewDefaultGraph()
	}
	for i, term := range []rdf.Term{quad.Subject, quad.Predicate, quad.Object, graph} {
		enc, str, err := s.encoder.EncodeTerm(term)
		if err != nil {
			return encoded, lexical, fmt.Errorf("failed to encode %s: %w", quadPositions[i], err)
		}
		encoded[i] = enc
		lexical[i] = str
	}
	return encoded, lexical, nil
}

var quadPositions = [4]string{"subject", "predicate", "object", "graph"}

// insertQuadInTxn inserts a quad within an existing transaction
func (s *TripleStore) insertQuadInTxn(txn Transaction, quad *rdf.Quad) error {
	encoded, lexical, err := s.encodeQuad(quad)
	if err != nil {
		return err
	}
	for i := range encoded {
		if err := s.storeString(txn, encoded[i], lexical[i]); err != nil {
			return err
		}
	}

	key := s.encoder.EncodeQuadKey(encoded[0], encoded[1], encoded[2], encoded[3])
	if err := txn.Set(TableSPOG, key, []byte{}); err != nil {
		return err
	}

	if encoded[3].Type() != rdf.TermTypeDefaultGraph {
		if err := txn.Set(TableGraphs, encoded[3][:], []byte{}); err != nil {
			return err
		}
	}
	return nil
}

// storeString stores a lexical form in the id2str table if provided
func (s *TripleStore) storeString(txn Transaction, encoded encoding.EncodedTerm, str *string) error {
	if str == nil {
		return nil
	}

	value := []byte(*str)
	existing, err := txn.Get(TableID2Str, encoded[:])
	if err == nil && bytes.Equal(existing, value) {
		return nil
	}
	if err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}
	return txn.Set(TableID2Str, encoded[:], value)
}

// DeleteQuad deletes a quad from the store. Lexical forms and graph entries
// are kept, other quads may still reference them.
func (s *TripleStore) DeleteQuad(quad *rdf.Quad) error {
	encoded, _, err := s.encodeQuad(quad)
	if err != nil {
		return err
	}

	txn, err := s.storage.Begin(true)
	if err != nil {
		return err
	}
	defer txn.Rollback() // #nosec G104 - no-op after a successful commit

	key := s.encoder.EncodeQuadKey(encoded[0], encoded[1], encoded[2], encoded[3])
	if err := txn.Delete(TableSPOG, key); err != nil {
		return err
	}
	return txn.Commit()
}

// ContainsQuad checks if a quad exists in the store
func (s *TripleStore) ContainsQuad(quad *rdf.Quad) (bool, error) {
	encoded, _, err := s.encodeQuad(quad)
	if err != nil {
		return false, err
	}

	txn, err := s.storage.Begin(false)
	if err != nil {
		return false, err
	}
	defer txn.Rollback() // #nosec G104 - read-only transaction

	key := s.encoder.EncodeQuadKey(encoded[0], encoded[1], encoded[2], encoded[3])
	_, err = txn.Get(TableSPOG, key)
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Count returns the number of quads in the store
func (s *TripleStore) Count() (int64, error) {
	return s.countTable(TableSPOG)
}

// GraphCount returns the number of named graphs in the store
func (s *TripleStore) GraphCount() (int64, error) {
	return s.countTable(TableGraphs)
}

func (s *TripleStore) countTable(table Table) (int64, error) {
	txn, err := s.storage.Begin(false)
	if err != nil {
		return 0, err
	}
	defer txn.Rollback() // #nosec G104 - read-only transaction

	it, err := txn.Scan(table, nil)
	if err != nil {
		return 0, err
	}
	defer it.Close()

	count := int64(0)
	for it.Next() {
		count++
	}
	return count, nil
}

// Encode returns the identifier of term. The term does not need to be in
// the store.
func (s *TripleStore) Encode(term rdf.Term) (index.ID, error) {
	encoded, _, err := s.encoder.EncodeTerm(term)
	return encoded, err
}

// Decode returns the term an identifier stands for
func (s *TripleStore) Decode(id index.ID) (rdf.Term, error) {
	txn, err := s.storage.Begin(false)
	if err != nil {
		return nil, err
	}
	defer txn.Rollback() // #nosec G104 - read-only transaction

	return s.decodeTerm(txn, id)
}

// decodeTerm decodes an encoded term, reading its lexical form if needed
func (s *TripleStore) decodeTerm(txn Transaction, encoded encoding.EncodedTerm) (rdf.Term, error) {
	var stringValue *string
	if encoded.NeedsLookup() {
		str, err := txn.Get(TableID2Str, encoded[:])
		if err != nil {
			return nil, fmt.Errorf("failed to look up %s: %w", encoded, err)
		}
		value := string(str)
		stringValue = &value
	}
	return s.decoder.DecodeTerm(encoded, stringValue)
}

// statementFromKey turns an SPOG key into a statement. The default graph
// becomes the absent context.
func statementFromKey(key []byte) (index.Statement, error) {
	terms, err := encoding.DecodeQuadKey(key)
	if err != nil {
		return index.Statement{}, err
	}
	if len(terms) != 4 {
		return index.Statement{}, fmt.Errorf("quad key holds %d terms", len(terms))
	}
	st := index.Statement{Subject: terms[0], Predicate: terms[1], Object: terms[2]}
	if terms[3].Type() != rdf.TermTypeDefaultGraph {
		st.Context = terms[3]
	}
	return st, nil
}

// Snapshot reads every quad into a new in-memory dataset. The store's key
// order is the SPO order, so the SPO index is built without sorting.
func (s *TripleStore) Snapshot() (*index.Dataset, error) {
	started := time.Now()

	txn, err := s.storage.Begin(false)
	if err != nil {
		return nil, err
	}
	defer txn.Rollback() // #nosec G104 - read-only transaction

	it, err := txn.Scan(TableSPOG, nil)
	if err != nil {
		return nil, err
	}
	defer it.Close()

	var statements []index.Statement
	for it.Next() {
		st, err := statementFromKey(it.Key())
		if err != nil {
			return nil, fmt.Errorf("corrupt quad key: %w", err)
		}
		statements = append(statements, st)
	}

	dataset, err := index.NewDataset(statements, true)
	if err != nil {
		return nil, err
	}

	elapsed := time.Since(started)
	snapshotDuration.Observe(elapsed.Seconds())
	logging.Debug().Int("statements", len(statements)).Dur("elapsed", elapsed).Msg("took store snapshot")
	return dataset, nil
}
