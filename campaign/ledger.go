// Package campaign persists completed sweeps in a durable ledger and
// aggregates campaign statistics over them.
package campaign

import (
	"bytes"
	"encoding/binary"
	"encoding/gob"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
	"time"

	"go.etcd.io/bbolt"
)

var (
	bucketSweeps     = []byte("sweeps")
	bucketSweepOrder = []byte("sweeps_order")
)

// Record describes one completed sweep.
type Record struct {
	TxID           string   // broadcast transaction id, display hex
	PaidAmount     uint64   // sum of swept deposit values, satoshis
	FeeAmount      uint64   // fee deducted from the sweep output, satoshis
	CreditedTokens *big.Rat // campaign tokens credited for the sweep
	Contributor    [20]byte // contributor tag embedded in the sweep
	SweptAt        time.Time
}

// BoltLedger is a durable, insertion-ordered record of completed sweeps,
// backed by a bbolt database.
type BoltLedger struct {
	db *bbolt.DB
}

// OpenLedger opens or creates the ledger database at dbPath.
// The parent directory is created if it does not exist.
func OpenLedger(dbPath string) (*BoltLedger, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0700); err != nil {
		return nil, fmt.Errorf("campaign: create directory: %w", err)
	}
	db, err := bbolt.Open(dbPath, 0600, nil)
	if err != nil {
		return nil, fmt.Errorf("campaign: open ledger db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{bucketSweeps, bucketSweepOrder} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("ledger: create bucket %q: %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("campaign: create buckets: %w", err)
	}

	return &BoltLedger{db: db}, nil
}

// Close closes the underlying database.
func (l *BoltLedger) Close() error { return l.db.Close() }

// orderKey encodes an insertion sequence number as an 8-byte big-endian key
// for sorted storage.
func orderKey(seq uint64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, seq)
	return k
}

// encodeGob serializes a value using gob encoding.
func encodeGob(v interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// decodeGob deserializes gob-encoded data into a value.
func decodeGob(data []byte, v interface{}) error {
	return gob.NewDecoder(bytes.NewReader(data)).Decode(v)
}

// Put records a completed sweep. A txid that is already recorded fails with
// ErrDuplicateSweep and leaves the ledger unchanged.
func (l *BoltLedger) Put(rec *Record) error {
	if rec == nil {
		return fmt.Errorf("%w: record", ErrNilParam)
	}
	if rec.TxID == "" {
		return fmt.Errorf("%w: empty txid", ErrBadRecord)
	}

	return l.db.Update(func(tx *bbolt.Tx) error {
		sb := tx.Bucket(bucketSweeps)
		key := []byte(rec.TxID)
		if sb.Get(key) != nil {
			return ErrDuplicateSweep
		}

		data, err := encodeGob(rec)
		if err != nil {
			return fmt.Errorf("encode record: %w", err)
		}
		if err := sb.Put(key, data); err != nil {
			return fmt.Errorf("ledger: put record: %w", err)
		}

		ob := tx.Bucket(bucketSweepOrder)
		seq, err := ob.NextSequence()
		if err != nil {
			return fmt.Errorf("ledger: next sequence: %w", err)
		}
		if err := ob.Put(orderKey(seq), key); err != nil {
			return fmt.Errorf("ledger: put order index: %w", err)
		}
		return nil
	})
}

// Get retrieves a recorded sweep by txid.
func (l *BoltLedger) Get(txid string) (*Record, error) {
	if txid == "" {
		return nil, fmt.Errorf("%w: empty txid", ErrBadRecord)
	}

	var rec Record
	err := l.db.View(func(tx *bbolt.Tx) error {
		data := tx.Bucket(bucketSweeps).Get([]byte(txid))
		if data == nil {
			return ErrSweepNotFound
		}
		if err := decodeGob(data, &rec); err != nil {
			return fmt.Errorf("ledger: decode record: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// List returns all recorded sweeps in insertion order.
func (l *BoltLedger) List() ([]*Record, error) {
	var recs []*Record
	err := l.db.View(func(tx *bbolt.Tx) error {
		sb := tx.Bucket(bucketSweeps)
		return tx.Bucket(bucketSweepOrder).ForEach(func(_, txid []byte) error {
			data := sb.Get(txid)
			if data == nil {
				return nil // stale index entry
			}
			var rec Record
			if err := decodeGob(data, &rec); err != nil {
				return fmt.Errorf("ledger: decode record in list: %w", err)
			}
			recs = append(recs, &rec)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("campaign: list sweeps: %w", err)
	}
	return recs, nil
}

// Stats aggregates all recorded sweeps.
func (l *BoltLedger) Stats() (*Stats, error) {
	stats := &Stats{TotalCredited: new(big.Rat)}
	err := l.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketSweeps).ForEach(func(_, v []byte) error {
			var rec Record
			if err := decodeGob(v, &rec); err != nil {
				return fmt.Errorf("ledger: decode record in stats: %w", err)
			}
			stats.Sweeps++
			stats.TotalPaid += rec.PaidAmount
			stats.TotalFees += rec.FeeAmount
			if rec.CreditedTokens != nil {
				stats.TotalCredited.Add(stats.TotalCredited, rec.CreditedTokens)
			}
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("campaign: aggregate stats: %w", err)
	}
	return stats, nil
}

// Stats summarizes a campaign's recorded sweeps.
type Stats struct {
	Sweeps        int
	TotalPaid     uint64   // satoshis
	TotalFees     uint64   // satoshis
	TotalCredited *big.Rat // campaign tokens
}

// String renders a one-line summary for display and logging.
func (s *Stats) String() string {
	return fmt.Sprintf("%d sweeps: %d sat paid, %d sat fees, %s tokens credited",
		s.Sweeps, s.TotalPaid, s.TotalFees, s.TotalCredited.FloatString(8))
}
