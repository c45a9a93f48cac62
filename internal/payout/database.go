package payout

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"
)

const auditBucketName = "audit_logs"

// AuditLog defines the interface for the audit trail
type AuditLog interface {
	// Append stores an entry and assigns its ID
	Append(entry *LogEntry) error

	// Recent returns up to limit entries, newest first. A non-positive limit returns all entries.
	Recent(limit int) ([]*LogEntry, error)

	// Close closes the underlying store
	Close() error
}

// BoltAuditLog implements AuditLog using BoltDB
type BoltAuditLog struct {
	db *bbolt.DB
}

// NewBoltAuditLog opens (or creates) the audit trail at path
func NewBoltAuditLog(path string) (*BoltAuditLog, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("opening boltdb: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(auditBucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating buckets: %w", err)
	}

	return &BoltAuditLog{db: db}, nil
}

// Append stores an entry under the next sequence number
func (b *BoltAuditLog) Append(entry *LogEntry) error {
	return b.db.Update(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket([]byte(auditBucketName))
		seq, err := bucket.NextSequence()
		if err != nil {
			return fmt.Errorf("allocating entry id: %w", err)
		}
		entry.ID = seq

		data, err := json.Marshal(entry)
		if err != nil {
			return fmt.Errorf("marshaling entry: %w", err)
		}
		return bucket.Put(sequenceKey(seq), data)
	})
}

// Recent returns the newest entries first
func (b *BoltAuditLog) Recent(limit int) ([]*LogEntry, error) {
	entries := make([]*LogEntry, 0)
	err := b.db.View(func(tx *bbolt.Tx) error {
		c := tx.Bucket([]byte(auditBucketName)).Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(entries) >= limit {
				break
			}
			var entry LogEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				return fmt.Errorf("unmarshaling entry: %w", err)
			}
			entries = append(entries, &entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

// Close closes the database connection
func (b *BoltAuditLog) Close() error {
	return b.db.Close()
}

// sequenceKey encodes seq big-endian so keys sort in insertion order
func sequenceKey(seq uint64) []byte {
	key := make([]byte, 8)
	binary.BigEndian.PutUint64(key, seq)
	return key
}
