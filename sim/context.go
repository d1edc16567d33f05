// Package sim is the fixed-rate per-tick simulation scheduler: it owns the
// vehicle arena, the spatial index, and the simulated clock, and exposes
// the external surface a host (a multiplayer server's game loop) calls
// into. Grounded on the teacher's task.Context/task.Run (Context.prepare/
// update/Run), generalized from its fixed roster of city-simulation
// managers (person/aoi/junction/lane) to a single vehicle arena, and from
// its RPC sidecar synchronization to a plain ticker loop since wire
// transport is out of scope for the core (spec §1/§6).
package sim

import (
	"math"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/fib-lab/drivecore/clock"
	"github.com/fib-lab/drivecore/container"
	"github.com/fib-lab/drivecore/driver"
	"github.com/fib-lab/drivecore/mobil"
	"github.com/fib-lab/drivecore/randengine"
	"github.com/fib-lab/drivecore/roadnet"
	"github.com/fib-lab/drivecore/simconfig"
	"github.com/fib-lab/drivecore/spatial"
	"github.com/fib-lab/drivecore/vehicle"
)

var log = logrus.WithField("module", "sim")

// PlayerID names a human-controlled vehicle from the host's perspective
// (e.g. a session or connection identifier). It is opaque to the core.
type PlayerID string

// noiseSigma is the standard deviation, in m/s^2, of the per-tick
// personality noise added to each AI vehicle's commanded acceleration.
// Grounded on the teacher's controller noise injection, not carried by the
// spec's distillation but present in the original behavior (SPEC_FULL §3).
const noiseSigma = 0.15

// Context is the simulation's root object: construct one per running
// simulation instance.
type Context struct {
	cfg     simconfig.Config
	catalog *roadnet.Catalog
	clock   *clock.Clock
	index   *spatial.Index
	rng     *randengine.Engine

	carBase   driver.Base
	truckBase driver.Base

	mu          sync.Mutex
	arena       *container.IncrementalArray[*vehicle.Vehicle]
	byID        map[vehicle.ID]*vehicle.Vehicle
	playerIndex map[PlayerID]vehicle.ID
	nextID      vehicle.ID
}

// NewContext validates cfg and constructs a Context over the given
// roadnet.Catalog. seed makes the per-tick driver noise reproducible.
func NewContext(cfg simconfig.Config, catalog *roadnet.Catalog, seed uint64) (*Context, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Context{
		cfg:         cfg,
		catalog:     catalog,
		clock:       clock.New(cfg.UpdateTickRate),
		index:       spatial.New(),
		rng:         randengine.New(seed),
		carBase:     toDriverBase(cfg.CarBase),
		truckBase:   toDriverBase(cfg.TruckBase),
		arena:       container.NewIncrementalArray[*vehicle.Vehicle](),
		byID:        make(map[vehicle.ID]*vehicle.Vehicle),
		playerIndex: make(map[PlayerID]vehicle.ID),
	}, nil
}

func toDriverBase(c simconfig.CarClassDefaults) driver.Base {
	return driver.Base{
		DesiredSpeed: c.DesiredSpeed, MaxAccel: c.MaxAccel, ComfortDecel: c.ComfortDecel,
		MaxDecel: c.MaxDecel, TimeHeadway: c.TimeHeadway, MinGap: c.MinGap,
		AccelExponent: c.AccelExponent, Length: c.Length,
		Politeness: c.Politeness, SafeDecel: c.SafeDecel, AccelThreshold: c.AccelThreshold,
		KeepBias: c.KeepBias, LaneChangeCooldown: c.LaneChangeCooldown,
		PlayerReactionMargin: c.PlayerReactionMargin,
		AdjacentMarginPassive: c.AdjacentMarginPassive, AdjacentMarginAggressive: c.AdjacentMarginAggressive,
		ChainReactionCooldownPassive:    c.ChainReactionCooldownPassive,
		ChainReactionCooldownAggressive: c.ChainReactionCooldownAggressive,
	}
}

func (c *Context) baseFor(kind driver.Kind) driver.Base {
	if kind == driver.Truck {
		return c.truckBase
	}
	return c.carBase
}

func (c *Context) hand() mobil.TrafficHand {
	if c.cfg.IsLeftHandTraffic {
		return mobil.LeftHand
	}
	return mobil.RightHand
}

// SpawnAIVehicle adds a new AI-driven vehicle to the simulation and returns
// its stable ID.
func (c *Context) SpawnAIVehicle(
	kind driver.Kind, personality driver.Personality,
	path roadnet.ID, lane int, s, v float64,
) (vehicle.ID, error) {
	p := c.catalog.Get(path)
	if p == nil {
		return 0, ErrUnknownPath
	}
	if !p.ValidLane(lane) {
		return 0, ErrInvalidLane
	}

	params := driver.Derive(kind, personality, c.baseFor(kind))

	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	veh := vehicle.New(id, kind, params, false, path, lane, s, v)
	c.arena.Add(veh)
	c.byID[id] = veh
	return id, nil
}

// DespawnAIVehicle removes an AI vehicle from the simulation.
func (c *Context) DespawnAIVehicle(id vehicle.ID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.removeLocked(id)
}

func (c *Context) removeLocked(id vehicle.ID) error {
	v, ok := c.byID[id]
	if !ok {
		return ErrUnknownVehicle
	}
	v.Despawn()
	c.arena.Remove(v)
	delete(c.byID, id)
	return nil
}

// UpdatePlayer upserts a human-controlled vehicle: if pid has no vehicle
// yet, one is spawned at the given state; otherwise its state is applied
// directly, bypassing IDM/MOBIL for this tick. laneF is the fractional lane
// derived from the player's lateral position (spec §4.5) — it may straddle
// two integer lanes, but its rounded value must still name a valid lane on
// path. worldPos/velocity are the host's authoritative world-space pose for
// this vehicle (spec §6), stored for spatial.Index.WorldRadius queries; the
// core never derives them itself (spec §1).
func (c *Context) UpdatePlayer(
	pid PlayerID, kind driver.Kind,
	path roadnet.ID, laneF, s, v float64,
	worldPos, velocity spatial.Vec2,
) error {
	p := c.catalog.Get(path)
	if p == nil {
		return ErrUnknownPath
	}
	lane := int(math.Round(laneF))
	if !p.ValidLane(lane) {
		return ErrInvalidLane
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if id, ok := c.playerIndex[pid]; ok {
		veh, ok := c.byID[id]
		if !ok {
			delete(c.playerIndex, pid)
		} else {
			veh.SetPlayerControl(path, s, laneF, v, worldPos, velocity)
			return nil
		}
	}

	params := driver.Derive(kind, driver.Normal, c.baseFor(kind))
	id := c.nextID
	c.nextID++
	veh := vehicle.New(id, kind, params, true, path, lane, s, v)
	veh.SetPlayerControl(path, s, laneF, v, worldPos, velocity)
	c.arena.Add(veh)
	c.byID[id] = veh
	c.playerIndex[pid] = id
	return nil
}

// VehiclesNear returns the IDs of every vehicle with a known world position
// within r of pos — human-driven vehicles only, since AI vehicles never
// carry one (spec §1/§4.5). Backed by spatial.Index.WorldRadius.
func (c *Context) VehiclesNear(pos spatial.Vec2, r float64) []vehicle.ID {
	c.mu.Lock()
	defer c.mu.Unlock()
	occupants := c.index.WorldRadius(pos, r)
	out := make([]vehicle.ID, 0, len(occupants))
	for _, o := range occupants {
		out = append(out, o.ID())
	}
	return out
}

// RemovePlayer removes a human-controlled vehicle and forgets its PlayerID
// mapping.
func (c *Context) RemovePlayer(pid PlayerID) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	id, ok := c.playerIndex[pid]
	if !ok {
		return ErrUnknownPlayer
	}
	delete(c.playerIndex, pid)
	return c.removeLocked(id)
}

// VehicleSnapshot is a read-only view of one vehicle's state as of the
// last completed tick.
type VehicleSnapshot struct {
	ID             vehicle.ID
	Kind           driver.Kind
	Path           roadnet.ID
	Lane           int
	S, V, Accel    float64
	Phase          vehicle.Phase
	LateralOffset  float64
	Heading        float64
	IsPlayer       bool
}

// Snapshot returns every live vehicle's state. The returned slice is a copy
// and safe to retain after the next Step.
func (c *Context) Snapshot() []VehicleSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	data := c.arena.Data()
	out := make([]VehicleSnapshot, 0, len(data))
	for _, v := range data {
		if v.Phase() == vehicle.Despawned {
			continue
		}
		out = append(out, VehicleSnapshot{
			ID: v.ID(), Kind: v.Kind(), Path: v.PathID(), Lane: v.Lane(),
			S: v.S(), V: v.V(), Accel: v.Accel(), Phase: v.Phase(),
			LateralOffset: v.LateralOffset(), Heading: v.Heading(), IsPlayer: v.IsPlayer(),
		})
	}
	return out
}

// Clock exposes the simulation's current simulated time, read-only.
func (c *Context) Clock() clock.Clock {
	return *c.clock
}
