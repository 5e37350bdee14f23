package stroming

import (
	"context"
)

// StreamStore is a registry of named, append-only streams of messages.
//
// Implementations must guarantee:
//   - Revisions within a stream are 0, 1, 2, ... with no gaps.
//   - Global positions are unique across all streams and issued in the order
//     writes complete.
//   - A write is applied completely or not at all.
type StreamStore interface {
	// WriteToStream appends messages to the named stream if its current
	// version equals expected.
	//
	// The result is WriteOk with the position of the last message written, or
	// WrongExpectedVersion when the precondition failed; a conflict is not
	// an error. An empty batch with a matching version is a no-op that
	// returns the stream's current position.
	//
	// Errors:
	//   - ErrInvalidStreamName if name is empty.
	//   - ErrStoreClosed after Close.
	//   - The context error if ctx is done before the write starts.
	WriteToStream(ctx context.Context, name string, expected StreamVersion, messages []MessageData) (WriteResult, error)

	// ReadFromStream returns the current version of the named stream and all
	// of its messages, ordered by revision in the given direction. An unknown
	// stream yields NoStream and no messages.
	ReadFromStream(ctx context.Context, name string, direction Direction) (StreamVersion, []Message, error)

	// ReadAll iterates over the messages of every stream in global position
	// order, starting at global position from.
	ReadAll(ctx context.Context, from uint64, direction Direction) (*Iterator[*Message], error)

	// Close releases the store. Later calls fail with ErrStoreClosed.
	// Close is idempotent.
	Close() error
}
