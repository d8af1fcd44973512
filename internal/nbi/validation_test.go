package nbi

import (
	"errors"
	"testing"

	core "github.com/signalsfoundry/cablegrid/core"
	"google.golang.org/protobuf/types/known/structpb"
)

func mustStruct(t *testing.T, fields map[string]any) *structpb.Struct {
	t.Helper()
	s, err := structpb.NewStruct(fields)
	if err != nil {
		t.Fatalf("structpb.NewStruct: %v", err)
	}
	return s
}

func TestRequireID(t *testing.T) {
	if got, err := requireID(mustStruct(t, map[string]any{"id": "cable-1"}), "id", ErrInvalidCable); err != nil || got != "cable-1" {
		t.Fatalf("requireID = %q, %v", got, err)
	}

	tests := []struct {
		name string
		in   *structpb.Struct
	}{
		{name: "nil", in: nil},
		{name: "missing", in: mustStruct(t, map[string]any{})},
		{name: "blank", in: mustStruct(t, map[string]any{"id": "  "})},
		{name: "not a string", in: mustStruct(t, map[string]any{"id": 7})},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := requireID(tc.in, "id", ErrInvalidCable); !errors.Is(err, ErrInvalidCable) {
				t.Fatalf("requireID(%s) err = %v, want ErrInvalidCable", tc.name, err)
			}
		})
	}
}

func TestOptionalNumber(t *testing.T) {
	in := mustStruct(t, map[string]any{"hang": 1.25, "none": nil, "word": "x"})

	if got, err := optionalNumber(in, "hang", ErrInvalidCable); err != nil || got == nil || *got != 1.25 {
		t.Fatalf("optionalNumber(hang) = %v, %v", got, err)
	}
	if got, err := optionalNumber(in, "missing", ErrInvalidCable); err != nil || got != nil {
		t.Fatalf("optionalNumber(missing) = %v, %v", got, err)
	}
	if got, err := optionalNumber(in, "none", ErrInvalidCable); err != nil || got != nil {
		t.Fatalf("optionalNumber(null) = %v, %v", got, err)
	}
	if _, err := optionalNumber(in, "word", ErrInvalidCable); !errors.Is(err, ErrInvalidCable) {
		t.Fatalf("optionalNumber(word) err = %v", err)
	}
	if _, err := requireNumber(in, "missing", ErrInvalidSpark); !errors.Is(err, ErrInvalidSpark) {
		t.Fatalf("requireNumber(missing) err = %v", err)
	}
}

func TestOptionalInt(t *testing.T) {
	in := mustStruct(t, map[string]any{"slot": 2, "half": 1.5})
	if got, err := optionalInt(in, "slot", ErrInvalidPoint); err != nil || got == nil || *got != 2 {
		t.Fatalf("optionalInt(slot) = %v, %v", got, err)
	}
	if _, err := optionalInt(in, "half", ErrInvalidPoint); !errors.Is(err, ErrInvalidPoint) {
		t.Fatalf("optionalInt(half) err = %v", err)
	}
}

func TestVecFields(t *testing.T) {
	in := mustStruct(t, map[string]any{
		"position": map[string]any{"x": 1, "y": 2, "z": 3},
		"bad":      map[string]any{"x": "one"},
	})
	if got, err := requireVec(in, "position", ErrInvalidPoint); err != nil || got != (core.Vec3{X: 1, Y: 2, Z: 3}) {
		t.Fatalf("requireVec(position) = %+v, %v", got, err)
	}
	if got, err := optionalVec(in, "offset", ErrInvalidPoint); err != nil || got != (core.Vec3{}) {
		t.Fatalf("optionalVec(offset) = %+v, %v", got, err)
	}
	if _, err := requireVec(in, "offset", ErrInvalidPoint); !errors.Is(err, ErrInvalidPoint) {
		t.Fatalf("requireVec(missing) err = %v", err)
	}
	if _, err := optionalVec(in, "bad", ErrInvalidPoint); !errors.Is(err, ErrInvalidPoint) {
		t.Fatalf("optionalVec(bad) err = %v", err)
	}
}

func TestValidateDirectionAndHang(t *testing.T) {
	for _, d := range []int{-1, 0, 1} {
		if err := ValidateDirection(d); err != nil {
			t.Fatalf("ValidateDirection(%d) = %v", d, err)
		}
	}
	if err := ValidateDirection(2); !errors.Is(err, ErrInvalidSpark) {
		t.Fatalf("ValidateDirection(2) err = %v", err)
	}

	neg := -0.5
	if err := ValidateHang(&neg); !errors.Is(err, ErrInvalidCable) {
		t.Fatalf("ValidateHang(-0.5) err = %v", err)
	}
	if err := ValidateHang(nil); err != nil {
		t.Fatalf("ValidateHang(nil) = %v", err)
	}
}
