package stroming

import (
	"errors"
	"testing"
)

func TestVersionsEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b StreamVersion
		want bool
	}{
		{"no stream", NoStream{}, NoStream{}, true},
		{"nil is no stream", nil, NoStream{}, true},
		{"same revision", Revision(3), Revision(3), true},
		{"different revision", Revision(3), Revision(4), false},
		{"no stream vs revision 0", NoStream{}, Revision(0), false},
		{"revision 0 vs no stream", Revision(0), NoStream{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := VersionsEqual(tt.a, tt.b); got != tt.want {
				t.Errorf("VersionsEqual(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestParseExpectedVersion(t *testing.T) {
	tests := []struct {
		in      string
		want    StreamVersion
		wantErr bool
	}{
		{in: "-1", want: NoStream{}},
		{in: "-42", want: NoStream{}},
		{in: "0", want: Revision(0)},
		{in: " 17 ", want: Revision(17)},
		{in: "", wantErr: true},
		{in: "one", wantErr: true},
		{in: "1.5", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseExpectedVersion(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidExpectedVersion) {
					t.Fatalf("expected ErrInvalidExpectedVersion, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !VersionsEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFormatVersionRoundTrip(t *testing.T) {
	for _, v := range []StreamVersion{NoStream{}, Revision(0), Revision(99)} {
		parsed, err := ParseExpectedVersion(FormatVersion(v))
		if err != nil {
			t.Fatalf("parse %q: %v", FormatVersion(v), err)
		}
		if !VersionsEqual(parsed, v) {
			t.Errorf("round trip of %v gave %v", v, parsed)
		}
	}
}

func TestNextRevision(t *testing.T) {
	if got := NextRevision(NoStream{}); got != 0 {
		t.Errorf("NextRevision(NoStream) = %d, want 0", got)
	}
	if got := NextRevision(Revision(4)); got != 5 {
		t.Errorf("NextRevision(4) = %d, want 5", got)
	}
}

func TestParseDirection(t *testing.T) {
	tests := []struct {
		in      string
		want    Direction
		wantErr bool
	}{
		{in: "", want: Forwards},
		{in: "Forwards", want: Forwards},
		{in: "BACKWARDS", want: Backwards},
		{in: "sideways", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDirection(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidDirection) {
					t.Fatalf("expected ErrInvalidDirection, got %v", err)
				}
				return
			}
			if err != nil || got != tt.want {
				t.Fatalf("got (%v, %v), want %v", got, err, tt.want)
			}
		})
	}
}
