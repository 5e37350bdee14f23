package stroming

import (
	"errors"
	"io"
	"testing"
)

func TestErrorStrings(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "WrongExpectedVersion",
			err: WrongExpectedVersion{
				Stream:   "orders-1",
				Expected: Revision(5),
				Actual:   Revision(1),
			},
			want: `concurrency conflict on stream "orders-1": (expected version 5, actual 1)`,
		},
		{
			name: "WrongExpectedVersion against missing stream",
			err: WrongExpectedVersion{
				Stream:   "orders-2",
				Expected: Revision(0),
				Actual:   NoStream{},
			},
			want: `concurrency conflict on stream "orders-2": (expected version 0, actual -1)`,
		},
		{
			name: "StoreError",
			err:  WrapStoreError(io.ErrUnexpectedEOF),
			want: "stream store error: unexpected EOF",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestWrongExpectedVersionMatchesSentinel(t *testing.T) {
	var err error = WrongExpectedVersion{Stream: "s", Expected: NoStream{}, Actual: Revision(0)}
	if !errors.Is(err, ErrWrongExpectedVersion) {
		t.Fatal("expected errors.Is to match ErrWrongExpectedVersion")
	}
	var wev WrongExpectedVersion
	if !errors.As(err, &wev) || wev.Stream != "s" {
		t.Fatalf("expected errors.As to recover the conflict, got %+v", wev)
	}
}

func TestWrapStoreError(t *testing.T) {
	if WrapStoreError(nil) != nil {
		t.Fatal("expected nil for nil error")
	}
	if err := WrapStoreError(io.EOF); !errors.Is(err, io.EOF) {
		t.Fatalf("expected wrapped error to unwrap to io.EOF, got %v", err)
	}
}

func TestResultError(t *testing.T) {
	pos, err := ResultError(WriteOk{Position: Position{GlobalPosition: 3, Revision: 1}})
	if err != nil || pos.GlobalPosition != 3 || pos.Revision != 1 {
		t.Fatalf("unexpected (%+v, %v)", pos, err)
	}

	_, err = ResultError(WrongExpectedVersion{Stream: "s", Expected: Revision(2), Actual: NoStream{}})
	if !errors.Is(err, ErrWrongExpectedVersion) {
		t.Fatalf("expected conflict error, got %v", err)
	}
}
