// Package store persists work-item records and the participant directory in
// BadgerDB, with a Bluge index over work-item identifiers for lookup.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/blugelabs/bluge"
	"github.com/dgraph-io/badger/v4"

	"floorlink/domain"
)

// maxIdentifierMatches caps a single lookup. Identifiers are near-unique in
// practice; the cap only guards against degenerate data.
const maxIdentifierMatches = 200

type WorkItemRepository struct {
	db     *badger.DB
	writer *bluge.Writer
	log    *slog.Logger
}

func NewWorkItemRepository(db *badger.DB, writer *bluge.Writer, log *slog.Logger) *WorkItemRepository {
	return &WorkItemRepository{db: db, writer: writer, log: log}
}

// Put persists the record body in Badger and (re)indexes its normalized
// identifier in Bluge. The record id is the join key between the two.
func (r *WorkItemRepository) Put(record domain.WorkItemRecord) error {
	if record.ID == "" {
		return fmt.Errorf("work item record without id")
	}

	body, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("marshal record %s: %w", record.ID, err)
	}
	err = r.db.Update(func(txn *badger.Txn) error {
		return txn.Set(recordKey(record.ID), body)
	})
	if err != nil {
		return fmt.Errorf("store record %s: %w", record.ID, err)
	}

	doc := bluge.NewDocument(record.ID).
		AddField(bluge.NewKeywordField("identifier", domain.NormalizeIdentifier(record.Identifier)).StoreValue()).
		AddField(bluge.NewKeywordField("owner", string(record.Owner)).StoreValue())
	if err := r.writer.Update(doc.ID(), doc); err != nil {
		return fmt.Errorf("index record %s: %w", record.ID, err)
	}
	return nil
}

// FindOwnersByIdentifier implements contract.RecordLookup: a term query on
// the normalized identifier, then point lookups for the record bodies.
func (r *WorkItemRepository) FindOwnersByIdentifier(ctx context.Context, identifier string) ([]domain.WorkItemRecord, error) {
	norm := domain.NormalizeIdentifier(identifier)
	if norm == "" {
		return nil, nil
	}

	reader, err := r.writer.Reader()
	if err != nil {
		return nil, fmt.Errorf("open index reader: %w", err)
	}
	defer func() {
		if cerr := reader.Close(); cerr != nil {
			r.log.Warn("closing index reader", "error", cerr)
		}
	}()

	query := bluge.NewTermQuery(norm).SetField("identifier")
	it, err := reader.Search(ctx, bluge.NewTopNSearch(maxIdentifierMatches, query))
	if err != nil {
		return nil, fmt.Errorf("search identifier %q: %w", norm, err)
	}

	var ids []string
	for {
		match, err := it.Next()
		if err != nil {
			return nil, fmt.Errorf("iterate matches for %q: %w", norm, err)
		}
		if match == nil {
			break
		}
		err = match.VisitStoredFields(func(field string, value []byte) bool {
			if field == "_id" {
				ids = append(ids, string(value))
			}
			return true
		})
		if err != nil {
			return nil, err
		}
	}

	return r.loadRecords(ids)
}

func (r *WorkItemRepository) loadRecords(ids []string) ([]domain.WorkItemRecord, error) {
	var records []domain.WorkItemRecord
	err := r.db.View(func(txn *badger.Txn) error {
		for _, id := range ids {
			item, err := txn.Get(recordKey(id))
			if err == badger.ErrKeyNotFound {
				// Index ahead of the store; skip rather than fail the lookup.
				r.log.Warn("indexed record missing from store", "id", id)
				continue
			}
			if err != nil {
				return err
			}
			err = item.Value(func(value []byte) error {
				var rec domain.WorkItemRecord
				if err := json.Unmarshal(value, &rec); err != nil {
					return fmt.Errorf("decode record %s: %w", id, err)
				}
				records = append(records, rec)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return records, nil
}

func recordKey(id string) []byte {
	return []byte("item:" + id)
}
