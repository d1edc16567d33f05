package sim

import "errors"

var (
	// ErrUnknownPath is returned when a spawn or update names a path.ID not
	// present in the Context's roadnet.Catalog.
	ErrUnknownPath = errors.New("sim: unknown path")
	// ErrInvalidLane is returned when a lane index is out of range for the
	// named path.
	ErrInvalidLane = errors.New("sim: invalid lane")
	// ErrUnknownVehicle is returned when an operation names a vehicle.ID
	// that isn't (or is no longer) in the arena.
	ErrUnknownVehicle = errors.New("sim: unknown vehicle")
	// ErrUnknownPlayer is returned when RemovePlayer is called with a
	// PlayerID that has no associated vehicle. (UpdatePlayer spawns a
	// vehicle for an unknown PlayerID instead.)
	ErrUnknownPlayer = errors.New("sim: unknown player")
)
