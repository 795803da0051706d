package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"validation", Validation("bad"), KindValidation},
		{"wrapped conflict", fmt.Errorf("register: %w", Conflict("dup")), KindConflict},
		{"storage", Storage("save failed", errors.New("disk full")), KindStorage},
		{"plain error", errors.New("boom"), KindInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestErrorIs(t *testing.T) {
	err := fmt.Errorf("outer: %w", NotFound("user not found"))
	if !errors.Is(err, NotFound("anything")) {
		t.Error("expected errors.Is to match by kind")
	}
	if errors.Is(err, Auth("anything")) {
		t.Error("expected errors.Is not to match a different kind")
	}
}

func TestMessageOf_DoesNotLeakInternals(t *testing.T) {
	if got := MessageOf(errors.New("pq: connection refused")); got != "internal server error" {
		t.Errorf("MessageOf(plain) = %q", got)
	}
	if got := MessageOf(Validation("name is required")); got != "name is required" {
		t.Errorf("MessageOf(validation) = %q", got)
	}
}

func TestUnwrap(t *testing.T) {
	cause := errors.New("disk full")
	err := Storage("save attendance", cause)
	if !errors.Is(err, cause) {
		t.Error("expected wrapped cause to be reachable")
	}
	if err.Error() != "storage: save attendance (disk full)" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestWithDetail(t *testing.T) {
	err := Biometric("multiple faces").WithDetail("faces", 2)
	if err.Details["faces"] != 2 {
		t.Errorf("Details[faces] = %v, want 2", err.Details["faces"])
	}
}
