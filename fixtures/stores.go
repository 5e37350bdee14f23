package fixtures

import (
	"context"
	"sync"

	es "github.com/terraskye/stroming"
)

var _ es.StreamStore = (*StoreSpy)(nil)

// StoreSpy is a configurable mock StreamStore for testing.
// It tracks calls and allows injecting custom behavior or failures.
type StoreSpy struct {
	mu sync.Mutex

	// Function overrides for custom behavior
	WriteFn   func(ctx context.Context, name string, expected es.StreamVersion, messages []es.MessageData) (es.WriteResult, error)
	ReadFn    func(ctx context.Context, name string, direction es.Direction) (es.StreamVersion, []es.Message, error)
	ReadAllFn func(ctx context.Context, from uint64, direction es.Direction) (*es.Iterator[*es.Message], error)
	CloseFn   func() error

	// Call tracking
	WriteCalls   int
	ReadCalls    int
	ReadAllCalls int
	CloseCalls   int

	// Captured arguments from last call
	LastWriteStream   string
	LastWriteExpected es.StreamVersion
	LastWriteMessages []es.MessageData
	LastReadStream    string
	LastReadDirection es.Direction

	// Pre-configured data
	streams map[string][]es.Message

	// Error injection
	readErr  error
	writeErr error
}

// NewStoreSpy creates a new StoreSpy with default behavior.
func NewStoreSpy() *StoreSpy {
	return &StoreSpy{
		streams: make(map[string][]es.Message),
	}
}

// WithMessages pre-populates a stream. Positions are taken as given.
func (s *StoreSpy) WithMessages(name string, messages ...es.Message) *StoreSpy {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streams[name] = messages
	return s
}

// FailOnRead configures the spy to return err from both read operations.
func (s *StoreSpy) FailOnRead(err error) *StoreSpy {
	s.readErr = err
	return s
}

// FailOnWrite configures the spy to return err from writes.
func (s *StoreSpy) FailOnWrite(err error) *StoreSpy {
	s.writeErr = err
	return s
}

// WriteToStream implements StreamStore.WriteToStream. Without an override
// it accepts every write and appends to the pre-configured stream.
func (s *StoreSpy) WriteToStream(ctx context.Context, name string, expected es.StreamVersion, messages []es.MessageData) (es.WriteResult, error) {
	s.mu.Lock()
	s.WriteCalls++
	s.LastWriteStream = name
	s.LastWriteExpected = expected
	s.LastWriteMessages = messages
	s.mu.Unlock()

	if s.WriteFn != nil {
		return s.WriteFn(ctx, name, expected, messages)
	}

	if s.writeErr != nil {
		return nil, s.writeErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	stream := s.streams[name]
	var last es.Position
	for _, m := range messages {
		last = es.Position{Revision: uint64(len(stream))}
		stream = append(stream, es.Message{
			ID:          NextID(),
			StreamName:  name,
			MessageType: m.MessageType,
			Data:        m.Data,
			Position:    last,
		})
	}
	s.streams[name] = stream
	return es.WriteOk{Position: last}, nil
}

// ReadFromStream implements StreamStore.ReadFromStream.
func (s *StoreSpy) ReadFromStream(ctx context.Context, name string, direction es.Direction) (es.StreamVersion, []es.Message, error) {
	s.mu.Lock()
	s.ReadCalls++
	s.LastReadStream = name
	s.LastReadDirection = direction
	s.mu.Unlock()

	if s.ReadFn != nil {
		return s.ReadFn(ctx, name, direction)
	}

	if s.readErr != nil {
		return nil, nil, s.readErr
	}

	s.mu.Lock()
	stream := append([]es.Message(nil), s.streams[name]...)
	s.mu.Unlock()

	if len(stream) == 0 {
		return es.NoStream{}, []es.Message{}, nil
	}
	if direction == es.Backwards {
		for i, j := 0, len(stream)-1; i < j; i, j = i+1, j-1 {
			stream[i], stream[j] = stream[j], stream[i]
		}
	}
	return es.Revision(len(stream) - 1), stream, nil
}

// ReadAll implements StreamStore.ReadAll over the pre-configured streams in
// no particular order.
func (s *StoreSpy) ReadAll(ctx context.Context, from uint64, direction es.Direction) (*es.Iterator[*es.Message], error) {
	s.mu.Lock()
	s.ReadAllCalls++
	s.mu.Unlock()

	if s.ReadAllFn != nil {
		return s.ReadAllFn(ctx, from, direction)
	}

	if s.readErr != nil {
		return nil, s.readErr
	}

	s.mu.Lock()
	var all []*es.Message
	for _, stream := range s.streams {
		for i := range stream {
			m := stream[i]
			all = append(all, &m)
		}
	}
	s.mu.Unlock()

	return es.NewSliceIterator(all), nil
}

// Close implements StreamStore.Close.
func (s *StoreSpy) Close() error {
	s.mu.Lock()
	s.CloseCalls++
	s.mu.Unlock()

	if s.CloseFn != nil {
		return s.CloseFn()
	}
	return nil
}

// Pre-built store scenarios.

// FailingStore returns a StoreSpy that fails on all operations.
func FailingStore(err error) *StoreSpy {
	return NewStoreSpy().FailOnRead(err).FailOnWrite(err)
}

// ConflictingStore returns a StoreSpy that rejects every write with a
// WrongExpectedVersion reporting actual as the stream version.
func ConflictingStore(actual es.StreamVersion) *StoreSpy {
	store := NewStoreSpy()
	store.WriteFn = func(ctx context.Context, name string, expected es.StreamVersion, messages []es.MessageData) (es.WriteResult, error) {
		return es.WrongExpectedVersion{Stream: name, Expected: expected, Actual: actual}, nil
	}
	return store
}
