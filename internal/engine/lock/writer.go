package lock

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"go.trai.ch/accord/internal/core/domain"
	"go.trai.ch/accord/internal/core/ports"
	"go.trai.ch/zerr"
)

// Result describes what an apply did, or would do in a dry run.
type Result struct {
	Lockfile *domain.Lockfile
	Data     []byte
	Diff     domain.LockDiff
	// Written is false for dry runs and when the artifact on disk was already current.
	Written bool
}

// Writer applies outcomes to the lock artifact through a LockStore.
type Writer struct {
	store  ports.LockStore
	tracer ports.Tracer
	now    func() time.Time
}

// NewWriter creates a new Writer.
func NewWriter(store ports.LockStore, tracer ports.Tracer) *Writer {
	return &Writer{store: store, tracer: tracer, now: time.Now}
}

// WithClock replaces the clock used for generated_at.
func (w *Writer) WithClock(now func() time.Time) *Writer {
	w.now = now
	return w
}

// Previous reads and decodes the artifact at path. It returns nil when no artifact exists.
func (w *Writer) Previous(path string) (*domain.Lockfile, error) {
	data, err := w.store.Read(path)
	if err != nil {
		return nil, zerr.Wrap(err, domain.ErrLockReadFailed.Error())
	}
	if data == nil {
		return nil, nil
	}
	return Decode(data)
}

// Apply builds the artifact for out and, unless dryRun is set, writes it atomically to path.
//
// When the previous artifact locks the same content, its generated_at is kept so that
// repeated runs produce identical bytes and nothing is rewritten.
func (w *Writer) Apply(ctx context.Context, path string, out *domain.Outcome, dryRun bool) (*Result, error) {
	_, span := w.tracer.Start(ctx, "lock apply", ports.WithAttribute("accord.lock.dry_run", dryRun))
	defer span.End()

	prevData, err := w.store.Read(path)
	if err != nil {
		span.RecordError(err)
		return nil, zerr.Wrap(err, domain.ErrLockReadFailed.Error())
	}
	var prev *domain.Lockfile
	if prevData != nil {
		// A corrupt previous artifact is replaced rather than diffed.
		decoded, decErr := Decode(prevData)
		if decErr != nil {
			_, _ = fmt.Fprintf(span, "replacing unreadable lock artifact: %v", decErr)
		} else {
			prev = decoded
		}
	}

	next := Build(out, w.now())
	data, err := Encode(next)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if prev != nil && !next.GeneratedAt.Equal(prev.GeneratedAt) {
		kept := *next
		kept.GeneratedAt = prev.GeneratedAt
		same, encErr := Encode(&kept)
		if encErr != nil {
			span.RecordError(encErr)
			return nil, encErr
		}
		if bytes.Equal(same, prevData) {
			next, data = &kept, same
		}
	}

	res := &Result{Lockfile: next, Data: data, Diff: Diff(prev, next)}
	if err := Check(data); err != nil {
		span.RecordError(err)
		return nil, err
	}
	if dryRun || bytes.Equal(data, prevData) {
		span.SetAttribute("accord.lock.written", false)
		return res, nil
	}

	if err := w.store.WriteAtomic(path, data, Check); err != nil {
		span.RecordError(err)
		return nil, zerr.Wrap(err, domain.ErrLockWriteFailed.Error())
	}
	res.Written = true
	span.SetAttribute("accord.lock.written", true)
	return res, nil
}
