package stroming

import (
	"fmt"
	"strconv"
	"strings"
)

// StreamVersion is the version of a stream. It is either NoStream, for a
// stream that has never been written to, or the Revision of the last message
// in the stream.
//
// The same value is used as the recorded state of a stream, as the expected
// version precondition of a write and as the current version returned by a read.
type StreamVersion interface {
	isStreamVersion()
	String() string
}

// NoStream means the stream has no messages yet.
type NoStream struct{}

func (NoStream) isStreamVersion() {}

func (NoStream) String() string { return "no stream" }

// Revision is the 0-based index of the last message written to a stream.
type Revision uint64

func (Revision) isStreamVersion() {}

func (r Revision) String() string { return strconv.FormatUint(uint64(r), 10) }

// VersionsEqual reports whether a and b are the same variant and, for
// revisions, the same number. A nil version is treated as NoStream.
func VersionsEqual(a, b StreamVersion) bool {
	switch av := normalize(a).(type) {
	case NoStream:
		_, ok := normalize(b).(NoStream)
		return ok
	case Revision:
		bv, ok := normalize(b).(Revision)
		return ok && av == bv
	default:
		return false
	}
}

// NextRevision returns the revision the next appended message receives.
func NextRevision(v StreamVersion) uint64 {
	if r, ok := normalize(v).(Revision); ok {
		return uint64(r) + 1
	}
	return 0
}

// ParseExpectedVersion parses the textual form of an expected version.
// Negative integers mean NoStream, non-negative integers are revisions.
func ParseExpectedVersion(s string) (StreamVersion, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("parse expected version %q: %w", s, ErrInvalidExpectedVersion)
	}
	if n < 0 {
		return NoStream{}, nil
	}
	return Revision(n), nil
}

// FormatVersion renders v the way ParseExpectedVersion reads it: "-1" for
// NoStream and the decimal revision otherwise.
func FormatVersion(v StreamVersion) string {
	if r, ok := normalize(v).(Revision); ok {
		return r.String()
	}
	return "-1"
}

func normalize(v StreamVersion) StreamVersion {
	if v == nil {
		return NoStream{}
	}
	return v
}
