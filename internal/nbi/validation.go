package nbi

import (
	"errors"
	"fmt"
	"math"
	"strings"

	core "github.com/signalsfoundry/cablegrid/core"
	"github.com/signalsfoundry/cablegrid/internal/nbi/types"
	"google.golang.org/protobuf/types/known/structpb"
)

var (
	ErrInvalidPoint    = errors.New("invalid connection point")
	ErrInvalidCable    = errors.New("invalid cable")
	ErrInvalidSpark    = errors.New("invalid spark")
	ErrInvalidTower    = errors.New("invalid tower")
	ErrInvalidScenario = errors.New("invalid scenario")
)

// requireID reads a non-empty string field.
func requireID(in *structpb.Struct, field string, sentinel error) (string, error) {
	v, ok := in.GetFields()[field]
	if !ok {
		return "", fmt.Errorf("%w: %s is required", sentinel, field)
	}
	s, ok := v.GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string", sentinel, field)
	}
	if strings.TrimSpace(s.StringValue) == "" {
		return "", fmt.Errorf("%w: %s is required", sentinel, field)
	}
	return s.StringValue, nil
}

// optionalString reads a string field, returning "" when absent.
func optionalString(in *structpb.Struct, field string, sentinel error) (string, error) {
	if _, ok := in.GetFields()[field]; !ok {
		return "", nil
	}
	v, ok := in.GetFields()[field].GetKind().(*structpb.Value_StringValue)
	if !ok {
		return "", fmt.Errorf("%w: %s must be a string", sentinel, field)
	}
	return v.StringValue, nil
}

// optionalNumber reads a finite number field, returning nil when absent.
func optionalNumber(in *structpb.Struct, field string, sentinel error) (*float64, error) {
	v, ok := in.GetFields()[field]
	if !ok {
		return nil, nil
	}
	if _, isNull := v.GetKind().(*structpb.Value_NullValue); isNull {
		return nil, nil
	}
	n, ok := v.GetKind().(*structpb.Value_NumberValue)
	if !ok {
		return nil, fmt.Errorf("%w: %s must be a number", sentinel, field)
	}
	if math.IsNaN(n.NumberValue) || math.IsInf(n.NumberValue, 0) {
		return nil, fmt.Errorf("%w: %s must be finite", sentinel, field)
	}
	f := n.NumberValue
	return &f, nil
}

// requireNumber reads a finite number field.
func requireNumber(in *structpb.Struct, field string, sentinel error) (float64, error) {
	f, err := optionalNumber(in, field, sentinel)
	if err != nil {
		return 0, err
	}
	if f == nil {
		return 0, fmt.Errorf("%w: %s is required", sentinel, field)
	}
	return *f, nil
}

// optionalInt reads an integral number field, returning nil when absent.
func optionalInt(in *structpb.Struct, field string, sentinel error) (*int, error) {
	f, err := optionalNumber(in, field, sentinel)
	if err != nil || f == nil {
		return nil, err
	}
	if *f != math.Trunc(*f) {
		return nil, fmt.Errorf("%w: %s must be an integer", sentinel, field)
	}
	n := int(*f)
	return &n, nil
}

// optionalVec reads an {x, y, z} field, returning the zero vector when absent.
func optionalVec(in *structpb.Struct, field string, sentinel error) (core.Vec3, error) {
	v, ok := in.GetFields()[field]
	if !ok {
		return core.Vec3{}, nil
	}
	vec, err := types.VecFromValue(v)
	if err != nil {
		return core.Vec3{}, fmt.Errorf("%w: %s: %v", sentinel, field, err)
	}
	return vec, nil
}

// requireVec reads a required {x, y, z} field.
func requireVec(in *structpb.Struct, field string, sentinel error) (core.Vec3, error) {
	if _, ok := in.GetFields()[field]; !ok {
		return core.Vec3{}, fmt.Errorf("%w: %s is required", sentinel, field)
	}
	return optionalVec(in, field, sentinel)
}

// ValidateDirection checks a spark drive input.
func ValidateDirection(direction int) error {
	if direction < -1 || direction > 1 {
		return fmt.Errorf("%w: direction %d must be -1, 0 or 1", ErrInvalidSpark, direction)
	}
	return nil
}

// ValidateHang rejects negative sag.
func ValidateHang(hang *float64) error {
	if hang != nil && *hang < 0 {
		return fmt.Errorf("%w: hang %g must be non-negative", ErrInvalidCable, *hang)
	}
	return nil
}
