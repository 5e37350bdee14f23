// Package memory provides an in-memory implementation of stroming.StreamStore.
//
// All streams and the global position counter live behind a single
// readers-writer lock. Writes hold the lock exclusively from the version
// check through the append, so batches are atomic and global positions are
// issued in the order writes complete. Reads share the lock.
package memory

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/google/uuid"
	"github.com/terraskye/stroming"
)

var _ stroming.StreamStore = (*Store)(nil)

type streamLog struct {
	messages []*stroming.Message
	version  stroming.StreamVersion
}

// Store is an in-memory stream store. The zero value is not usable; use New.
type Store struct {
	mu           sync.RWMutex
	streams      map[string]*streamLog
	global       []*stroming.Message
	nextPosition uint64
	closed       bool
	newID        func() string
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator replaces the UUID message ID generator.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// New creates an empty store.
func New(opts ...Option) *Store {
	s := &Store{
		streams: make(map[string]*streamLog),
		global:  make([]*stroming.Message, 0),
		newID:   uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) WriteToStream(ctx context.Context, name string, expected stroming.StreamVersion, messages []stroming.MessageData) (stroming.WriteResult, error) {
	if name == "" {
		return nil, fmt.Errorf("write to stream: %w", stroming.ErrInvalidStreamName)
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("write to stream %q: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, stroming.WrapStoreError(fmt.Errorf("write to stream %q: %w", name, stroming.ErrStoreClosed))
	}

	log, exists := s.streams[name]
	var actual stroming.StreamVersion = stroming.NoStream{}
	if exists {
		actual = log.version
	}

	if !stroming.VersionsEqual(actual, expected) {
		return stroming.WrongExpectedVersion{
			Stream:   name,
			Expected: expected,
			Actual:   actual,
		}, nil
	}

	if len(messages) == 0 {
		return stroming.WriteOk{Position: lastPosition(log)}, nil
	}

	if !exists {
		log = &streamLog{
			messages: make([]*stroming.Message, 0, len(messages)),
			version:  stroming.NoStream{},
		}
		s.streams[name] = log
	}

	revision := stroming.NextRevision(actual)
	var last stroming.Position
	for _, m := range messages {
		last = stroming.Position{GlobalPosition: s.nextPosition, Revision: revision}
		msg := &stroming.Message{
			ID:          s.newID(),
			StreamName:  name,
			MessageType: m.MessageType,
			Data:        append([]byte(nil), m.Data...),
			Position:    last,
		}
		log.messages = append(log.messages, msg)
		s.global = append(s.global, msg)
		s.nextPosition++
		revision++
	}
	log.version = stroming.Revision(last.Revision)

	return stroming.WriteOk{Position: last}, nil
}

func lastPosition(log *streamLog) stroming.Position {
	if log == nil || len(log.messages) == 0 {
		return stroming.Position{}
	}
	return log.messages[len(log.messages)-1].Position
}

func (s *Store) ReadFromStream(ctx context.Context, name string, direction stroming.Direction) (stroming.StreamVersion, []stroming.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("read from stream %q: %w", name, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, nil, stroming.WrapStoreError(fmt.Errorf("read from stream %q: %w", name, stroming.ErrStoreClosed))
	}

	log, exists := s.streams[name]
	if !exists {
		return stroming.NoStream{}, []stroming.Message{}, nil
	}

	out := make([]stroming.Message, len(log.messages))
	for i, m := range log.messages {
		idx := i
		if direction == stroming.Backwards {
			idx = len(log.messages) - 1 - i
		}
		out[idx] = *m.Clone()
	}
	return log.version, out, nil
}

func (s *Store) ReadAll(ctx context.Context, from uint64, direction stroming.Direction) (*stroming.Iterator[*stroming.Message], error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("read all: %w", err)
	}

	s.mu.RLock()
	if s.closed {
		s.mu.RUnlock()
		return nil, stroming.WrapStoreError(fmt.Errorf("read all: %w", stroming.ErrStoreClosed))
	}
	// Messages are never mutated, so a slice header taken under the lock is
	// a consistent snapshot.
	snapshot := s.global[:len(s.global):len(s.global)]
	s.mu.RUnlock()

	if direction == stroming.Backwards {
		next := int64(len(snapshot)) - 1
		if from < uint64(len(snapshot)) {
			next = int64(from)
		}
		return stroming.NewIteratorFunc(func(ctx context.Context) (*stroming.Message, error) {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			if next < 0 {
				return nil, io.EOF
			}
			m := snapshot[next]
			next--
			return m.Clone(), nil
		}), nil
	}

	next := from
	return stroming.NewIteratorFunc(func(ctx context.Context) (*stroming.Message, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if next >= uint64(len(snapshot)) {
			return nil, io.EOF
		}
		m := snapshot[next]
		next++
		return m.Clone(), nil
	}), nil
}

// Close drops all streams. Later operations fail with ErrStoreClosed.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.streams = make(map[string]*streamLog)
	s.global = nil
	return nil
}
