package service

import (
	"errors"
	"testing"
)

func TestNormalizeTo10Digits(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"9876543210", "9876543210"},
		{"+91 98765 43210", "9876543210"},
		{"919876543210", "9876543210"},
		{"98765", "98765"},
		{"", ""},
	}
	for _, c := range cases {
		if got := NormalizeTo10Digits(c.in); got != c.want {
			t.Fatalf("normalize %q: expected %q, got %q", c.in, c.want, got)
		}
	}
}

func TestToBackendID(t *testing.T) {
	id, err := ToBackendID("9876543210")
	if err != nil {
		t.Fatalf("to backend id: %v", err)
	}
	if id != 919876543210 {
		t.Fatalf("expected 919876543210, got %d", id)
	}

	if _, err := ToBackendID("12345"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid input for short number, got %v", err)
	}
}
