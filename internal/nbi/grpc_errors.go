package nbi

import (
	"errors"

	core "github.com/signalsfoundry/cablegrid/core"
	sim "github.com/signalsfoundry/cablegrid/internal/sim/state"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	// ErrNotFound is a package-level sentinel used when an entity cannot be located.
	ErrNotFound = errors.New("not found")
	// ErrInvalidEntity is a package-level sentinel used for client-side validation failures.
	ErrInvalidEntity = errors.New("invalid entity")
)

// ToStatusError maps grid errors onto gRPC status codes for NBI services.
func ToStatusError(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, sim.ErrPointNotFound),
		errors.Is(err, sim.ErrCableNotFound),
		errors.Is(err, sim.ErrSparkNotFound),
		errors.Is(err, sim.ErrStructureNotFound):
		return status.Error(codes.NotFound, err.Error())

	case errors.Is(err, ErrInvalidEntity),
		errors.Is(err, ErrInvalidPoint),
		errors.Is(err, ErrInvalidCable),
		errors.Is(err, ErrInvalidSpark),
		errors.Is(err, ErrInvalidTower),
		errors.Is(err, ErrInvalidScenario),
		errors.Is(err, sim.ErrInvalidCable),
		errors.Is(err, sim.ErrInvalidDelta),
		errors.Is(err, sim.ErrDegenerateCurve),
		errors.Is(err, sim.ErrDegenerateHeading),
		errors.Is(err, sim.ErrScenarioInvalid),
		errors.Is(err, core.ErrInvalidPoint):
		return status.Error(codes.InvalidArgument, err.Error())

	case errors.Is(err, sim.ErrCableNotGenerated),
		errors.Is(err, sim.ErrUnresolvedEndpoint),
		errors.Is(err, sim.ErrStructureChained):
		return status.Error(codes.FailedPrecondition, err.Error())

	case errors.Is(err, sim.ErrStructureExists):
		return status.Error(codes.AlreadyExists, err.Error())

	case errors.Is(err, sim.ErrTraversalCycle):
		return status.Error(codes.Aborted, err.Error())

	default:
		return status.Error(codes.Internal, err.Error())
	}
}
