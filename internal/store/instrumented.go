package store

import (
	"context"
	"errors"
	"time"
)

// OpRecorder receives one observation per store call
type OpRecorder interface {
	RecordStoreOp(ctx context.Context, operation, kind, backend string, start time.Time, err error)
}

// Instrumented decorates a Store with operation metrics
type Instrumented struct {
	next     Store
	recorder OpRecorder
	backend  string
}

// Instrument wraps next so every call is reported to recorder
func Instrument(next Store, recorder OpRecorder, backend string) *Instrumented {
	return &Instrumented{next: next, recorder: recorder, backend: backend}
}

func (s *Instrumented) Get(ctx context.Context, kind Kind, id string) ([]byte, error) {
	start := time.Now()
	rec, err := s.next.Get(ctx, kind, id)
	// a miss is a normal answer, not a failed operation
	if errors.Is(err, ErrNotFound) {
		s.recorder.RecordStoreOp(ctx, "get", string(kind), s.backend, start, nil)
	} else {
		s.recorder.RecordStoreOp(ctx, "get", string(kind), s.backend, start, err)
	}
	return rec, err
}

func (s *Instrumented) List(ctx context.Context, kind Kind) ([][]byte, error) {
	start := time.Now()
	recs, err := s.next.List(ctx, kind)
	s.recorder.RecordStoreOp(ctx, "list", string(kind), s.backend, start, err)
	return recs, err
}

func (s *Instrumented) Put(ctx context.Context, kind Kind, id string, record []byte) error {
	start := time.Now()
	err := s.next.Put(ctx, kind, id, record)
	s.recorder.RecordStoreOp(ctx, "put", string(kind), s.backend, start, err)
	return err
}

func (s *Instrumented) Delete(ctx context.Context, kind Kind, id string) error {
	start := time.Now()
	err := s.next.Delete(ctx, kind, id)
	s.recorder.RecordStoreOp(ctx, "delete", string(kind), s.backend, start, err)
	return err
}

func (s *Instrumented) Close() error {
	return s.next.Close()
}
