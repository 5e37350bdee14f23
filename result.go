package stroming

import "fmt"

// WriteResult is the outcome of WriteToStream: either WriteOk or
// WrongExpectedVersion.
type WriteResult interface {
	isWriteResult()
}

// WriteOk carries the position of the last message of a successful write.
type WriteOk struct {
	Position Position
}

func (WriteOk) isWriteResult() {}

// WrongExpectedVersion reports that the expected version of a write did not
// match the stream. The store was not modified.
type WrongExpectedVersion struct {
	Stream   string
	Expected StreamVersion
	Actual   StreamVersion
}

func (WrongExpectedVersion) isWriteResult() {}

func (w WrongExpectedVersion) Error() string {
	return fmt.Sprintf("concurrency conflict on stream %q: (expected version %s, actual %s)",
		w.Stream, FormatVersion(w.Expected), FormatVersion(w.Actual))
}

// Is lets errors.Is(err, ErrWrongExpectedVersion) match.
func (w WrongExpectedVersion) Is(target error) bool {
	return target == ErrWrongExpectedVersion
}

// ResultError turns a WriteResult into the Position / error pair most Go
// callers expect. A WrongExpectedVersion becomes the error.
func ResultError(res WriteResult) (Position, error) {
	switch r := res.(type) {
	case WriteOk:
		return r.Position, nil
	case WrongExpectedVersion:
		return Position{}, r
	default:
		return Position{}, fmt.Errorf("unexpected write result %T", res)
	}
}
