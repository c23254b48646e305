// Package dataset persists generated samples as newline-delimited JSON.
//
// The Sink is the single writer of a dataset file. Each record is encoded in
// full before it is written with one Write call under a mutex, so concurrent
// appends never interleave. A failed write is rolled back by truncating the
// file to the end of the last whole record; if that rollback fails the sink
// refuses further appends rather than writing after a torn record.
package dataset

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/ahrav/go-instructgen/internal/domain"
)

// Sentinel errors returned by Append.
var (
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("dataset sink closed")
	// ErrSync means the record was written and counted but fsync failed.
	ErrSync = errors.New("dataset sync failed")
	// ErrTornRecord means a failed write could not be rolled back and the
	// file may end with a partial record.
	ErrTornRecord = errors.New("dataset has a torn record")
)

// file is the subset of *os.File the sink writes through.
type file interface {
	Write(p []byte) (int, error)
	Sync() error
	Truncate(size int64) error
	Close() error
}

// Option configures a Sink.
type Option func(*Sink)

// WithSyncEveryWrite fsyncs the file after each record.
func WithSyncEveryWrite(enabled bool) Option { return func(s *Sink) { s.syncEveryWrite = enabled } }

// Sink appends samples to one dataset file.
type Sink struct {
	mu             sync.Mutex
	file           file
	path           string
	count          int64
	size           int64 // end offset of the last whole record
	closed         bool
	torn           bool
	syncEveryWrite bool
	buf            bytes.Buffer
}

// Initialize creates the parent directory and creates or truncates path.
func Initialize(path string, opts ...Option) (*Sink, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create dataset directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("initialize dataset: %w", err)
	}
	return newSink(f, path, opts...), nil
}

func newSink(f file, path string, opts ...Option) *Sink {
	s := &Sink{file: f, path: path}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append validates and writes one record, returning the number of records
// written so far including this one. On ErrSync the record is on disk and
// the returned count includes it; on any other error the count is unchanged.
func (s *Sink) Append(sample domain.Sample) (int64, error) {
	if err := sample.Validate(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.closed:
		return s.count, ErrClosed
	case s.torn:
		return s.count, ErrTornRecord
	}

	s.buf.Reset()
	enc := json.NewEncoder(&s.buf)
	enc.SetEscapeHTML(false)
	// Encode terminates the record with '\n'.
	if err := enc.Encode(sample); err != nil {
		return s.count, fmt.Errorf("encode sample: %w", err)
	}

	n, err := s.file.Write(s.buf.Bytes())
	if err != nil {
		// The file is opened with O_APPEND, so after truncating, the next
		// write lands at the new end.
		if truncErr := s.file.Truncate(s.size); truncErr != nil {
			s.torn = true
			return s.count, fmt.Errorf("%w: append sample: %w (rollback: %w)", ErrTornRecord, err, truncErr)
		}
		return s.count, fmt.Errorf("append sample: %w", err)
	}
	s.size += int64(n)
	s.count++

	if s.syncEveryWrite {
		if err := s.file.Sync(); err != nil {
			return s.count, fmt.Errorf("%w: %w", ErrSync, err)
		}
	}
	return s.count, nil
}

// Count returns the number of records written.
func (s *Sink) Count() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count
}

// Path returns the dataset file path.
func (s *Sink) Path() string { return s.path }

// Close flushes the file to stable storage and closes it. It is idempotent.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	syncErr := s.file.Sync()
	closeErr := s.file.Close()
	return errors.Join(syncErr, closeErr)
}
