package attendance

import (
	"context"
	"slices"

	"classlink/internal/store"
)

// Repository caches the attendance collection and appends to it.
// It is not safe for concurrent use; the Ledger serializes access.
type Repository struct {
	kv      store.KV
	records []Record
}

// NewRepository loads the attendance collection from kv.
func NewRepository(ctx context.Context, kv store.KV) *Repository {
	return &Repository{kv: kv, records: store.Load[Record](ctx, kv, store.Attendance)}
}

// Find returns the record for a student on a date.
func (r *Repository) Find(studentID, date string) (Record, bool) {
	i := slices.IndexFunc(r.records, func(rec Record) bool {
		return rec.StudentID == studentID && rec.Date == date
	})
	if i < 0 {
		return Record{}, false
	}
	return r.records[i], true
}

// Append persists rec after the existing records. The cache only changes once
// the write succeeded.
func (r *Repository) Append(ctx context.Context, rec Record) error {
	next := append(slices.Clip(r.records), rec)
	if err := store.Save(ctx, r.kv, store.Attendance, next); err != nil {
		return err
	}
	r.records = next
	return nil
}

// Filter returns the records matching keep, in insertion order.
func (r *Repository) Filter(keep func(Record) bool) []Record {
	var out []Record
	for _, rec := range r.records {
		if keep(rec) {
			out = append(out, rec)
		}
	}
	return out
}
