// Package vehicle implements the per-vehicle state machine: longitudinal
// control via idm, lane-change decisions via mobil, and lateral motion
// during a change via trajectory. Grounded on the teacher's
// entity/person/vehicle.go (refreshRuntime, computeVAndDistance) and
// controllerlanechange.go, generalized from the teacher's Ackermann
// steering-angle integration to the spec's closed-form quintic offset, and
// from its single immediate-commit lane change to the plan-then-execute
// and mid-change abort lifecycle spec §4.4 calls for. Also tracks the
// chain-reaction guard's leader-identity bookkeeping (spec §3/§4.3) and, for
// human-driven vehicles, the host-supplied world position and fractional
// straddling lane (spec §4.5/§6).
package vehicle

import (
	"math"

	"github.com/samber/lo"

	"github.com/fib-lab/drivecore/container"
	"github.com/fib-lab/drivecore/driver"
	"github.com/fib-lab/drivecore/idm"
	"github.com/fib-lab/drivecore/mobil"
	"github.com/fib-lab/drivecore/roadnet"
	"github.com/fib-lab/drivecore/spatial"
	"github.com/fib-lab/drivecore/trajectory"
)

// ID is a vehicle identifier handed out by the scheduler from an increasing
// counter, stable for the vehicle's lifetime and separate from its slot in
// the arena (IncrementalItemBase.Index). It is an alias for int32 so Vehicle
// satisfies spatial.Occupant without that package needing to import vehicle.
type ID = int32

// Phase is the vehicle's current lane-change state.
type Phase int

const (
	Cruise Phase = iota
	Planning
	Changing
	Aborting
	Despawned
)

func (p Phase) String() string {
	switch p {
	case Cruise:
		return "cruise"
	case Planning:
		return "planning"
	case Changing:
		return "changing"
	case Aborting:
		return "aborting"
	case Despawned:
		return "despawned"
	default:
		return "unknown"
	}
}

// obstacleLimitFactor controls when a Planning vehicle stops waiting for a
// nicer opening and commits to the change: once the current-lane gap closes
// to within this multiple of the IDM desired gap, continuing straight is
// uncomfortable enough that the plan executes.
const obstacleLimitFactor = 1.2

// plan is a MOBIL-accepted lane change held for confirmation before the
// vehicle commits to it, per spec §4.4's plan-then-execute rule.
type plan struct {
	side       mobil.Side
	targetLane int
	leaderID   ID
	hasLeader  bool
}

// Environment is the per-tick neighborhood a vehicle needs to decide its
// longitudinal and lane-change actions. The scheduler assembles it from the
// spatial index before calling Step.
type Environment struct {
	Leader, Follower     mobil.Neighbor
	LeaderID             ID
	HasLeaderID          bool
	Left, Right          *mobil.Candidate
	SpeedLimit           float64 // 0 means unconstrained
	LaneWidth            float64 // meters, used for the quintic's lateral distance
	OnLaneChangeCooldown bool
	NoiseAccel           float64 // driver-personality noise added to the commanded accel
}

// straddleMargin is how far a player's fractional lane position must sit
// from the nearest integer lane before it counts as straddling both
// adjacent lanes (spec §4.5).
const straddleMargin = 0.3

// Vehicle is one simulated car or truck.
type Vehicle struct {
	container.IncrementalItemBase

	id     ID
	kind   driver.Kind
	params driver.Params
	player bool

	pathID roadnet.ID
	lane   int
	s      float64
	v      float64
	a      float64

	phase      Phase
	startLane  int
	targetLane int
	lcStart    float64
	lcDuration float64
	lateralOff float64
	lateralVel float64
	heading    float64

	pending *plan

	lastLaneChangeTime float64
	abortStart         float64
	abortStartOffset   float64

	// Chain-reaction guard bookkeeping (spec §3/§4.3): last_known_leader_id
	// and new_obstacle_appeared_time. Any change in leader identity,
	// including loss, resets the timer and drops a pending plan.
	hasLastLeader      bool
	lastLeaderID       ID
	hasNewObstacleTime bool
	newObstacleTime    float64

	// Player-only world-space state (spec §4.5/§6): a human-driven
	// vehicle's fractional lane position and world position/velocity, as
	// supplied by the host. AI vehicles never populate these.
	laneFrac   float64
	straddling bool
	worldPos   spatial.Vec2
	worldVel   spatial.Vec2
	hasWorld   bool
}

// New constructs a vehicle in Cruise on lane at arc length s, moving at
// speed v.
func New(id ID, kind driver.Kind, params driver.Params, player bool, path roadnet.ID, lane int, s, v float64) *Vehicle {
	return &Vehicle{
		id:        id,
		kind:      kind,
		params:    params,
		player:    player,
		pathID:    path,
		lane:      lane,
		s:         s,
		v:         v,
		phase:     Cruise,
		startLane: lane,
	}
}

func (v *Vehicle) ID() ID                 { return v.id }
func (v *Vehicle) Kind() driver.Kind      { return v.kind }
func (v *Vehicle) Params() driver.Params  { return v.params }
func (v *Vehicle) IsPlayer() bool         { return v.player }
func (v *Vehicle) PathID() roadnet.ID     { return v.pathID }
func (v *Vehicle) Lane() int              { return v.lane }
func (v *Vehicle) S() float64             { return v.s }
func (v *Vehicle) Accel() float64         { return v.a }
func (v *Vehicle) Phase() Phase           { return v.phase }
func (v *Vehicle) LateralOffset() float64 { return v.lateralOff }
func (v *Vehicle) Heading() float64       { return v.heading }

// V implements container.IHasVAndLength for the spatial index's lane lists.
func (v *Vehicle) V() float64 { return v.v }

// Length implements container.IHasVAndLength.
func (v *Vehicle) Length() float64 { return v.params.Length }

// World implements spatial.Occupant: only a player's world position and
// velocity, as supplied by the host, are ever known (spec §1/§4.5).
func (v *Vehicle) World() (spatial.Vec2, spatial.Vec2, bool) {
	return v.worldPos, v.worldVel, v.hasWorld
}

// Lanes implements the lane membership spatial.Index.Rebuild inserts an
// occupant under: normally just the current lane, but a straddling player
// occupies both its floor and ceiling lane so MOBIL sees it from either
// adjacent lane (spec §4.5).
func (v *Vehicle) Lanes() []int {
	if v.player && v.straddling {
		loLane := int(math.Floor(v.laneFrac))
		hiLane := int(math.Ceil(v.laneFrac))
		return []int{loLane, hiLane}
	}
	return []int{v.lane}
}

// Despawn marks the vehicle inert; the scheduler removes it from the arena
// on its next Prepare. All plan/abort/obstacle bookkeeping is cleared, per
// spec §4.4's despawn transition.
func (v *Vehicle) Despawn() {
	v.phase = Despawned
	v.pending = nil
	v.hasLastLeader = false
	v.lastLeaderID = 0
	v.hasNewObstacleTime = false
	v.newObstacleTime = 0
	v.abortStart = 0
	v.abortStartOffset = 0
	v.lateralOff = 0
	v.lateralVel = 0
	v.heading = 0
}

// SetPlayerControl lets a human driver override position, lane, and speed
// directly, bypassing IDM/MOBIL for this tick. A lane change reported by
// the client is applied immediately, without the quintic animation AI
// vehicles go through. worldPos/worldVel are the host-supplied world-space
// position and velocity (spec §4.5/§6); laneF is the fractional lane
// derived from the player's lateral position, which may straddle two
// lanes.
func (v *Vehicle) SetPlayerControl(path roadnet.ID, s, laneF, vv float64, worldPos, worldVel spatial.Vec2) {
	v.pathID = path
	v.s = s
	v.v = math.Max(vv, 0)
	v.laneFrac = laneF
	v.worldPos = worldPos
	v.worldVel = worldVel
	v.hasWorld = true

	lane := int(math.Round(laneF))
	v.straddling = math.Abs(laneF-float64(lane)) > straddleMargin
	if lane != v.lane {
		v.lane = lane
		v.startLane = lane
		v.phase = Cruise
		v.pending = nil
	}
}

func desiredSpeed(p driver.Params, env Environment) float64 {
	d := p.DesiredSpeed
	if env.SpeedLimit > 0 && env.SpeedLimit < d {
		d = env.SpeedLimit
	}
	return d
}

func accelWithLeader(v, desiredV float64, leader mobil.Neighbor, p driver.Params) float64 {
	if !leader.Present {
		return idm.FreeRoadAccel(v, desiredV, p)
	}
	return idm.Accel(v, desiredV, leader.Gap, v-leader.V, p)
}

func obstacleLimited(leader mobil.Neighbor, v float64, p driver.Params) bool {
	if !leader.Present {
		return true
	}
	gap := idm.DesiredGap(v, v-leader.V, p)
	return leader.Gap <= gap*obstacleLimitFactor
}

// planUnsafe reports whether a Planning vehicle's held plan has become
// unsafe against the static MOBIL margin/follower-safety checks — the same
// layered safety overlay mobil.Decide itself applies (spec §4.3), re-run
// every tick while the plan waits to execute.
func planUnsafe(p driver.Params, v float64, c *mobil.Candidate) bool {
	if c == nil {
		return true
	}
	if c.Leader.Present && c.Leader.Gap < p.AdjacentMargin {
		return true
	}
	if c.Follower.Present {
		if c.Follower.Gap < p.AdjacentMargin {
			return true
		}
		aFollower := idm.Accel(c.Follower.V, c.Follower.V+1, c.Follower.Gap, c.Follower.V-v, p)
		if aFollower < -p.SafeDecel {
			return true
		}
	}
	return false
}

// abortMargin is spec §4.4's dynamic collision margin m(progress): smallest
// at the edges of a change (8 m) and largest at its midpoint (20 m). A
// human-driven neighbor's margin is further augmented by a closing-speed
// term scaled by PlayerReactionMargin — a faster-closing player needs more
// room before the maneuver is judged safe.
func abortMargin(progress float64, p driver.Params, closingSpeed float64, isPlayer bool) float64 {
	triangle := 1 - math.Abs(2*progress-1)
	m := lerp(8, 20, triangle)
	if isPlayer && closingSpeed > 0 {
		m += closingSpeed * p.PlayerReactionMargin
	}
	return m
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

// changingUnsafe reports whether the target lane has become unsafe partway
// through a change, continuously checked during the active window
// 0.1 <= progress <= 0.9 (spec §4.4): a neighbor inside the dynamic margin
// m(progress), or the new-follower safety-deceleration check failing.
// Outside the active window no abort is triggered, mirroring the source's
// choice not to react to the very start or end of a maneuver.
func changingUnsafe(p driver.Params, v, progress float64, c *mobil.Candidate) bool {
	if progress < 0.1 || progress > 0.9 {
		return false
	}
	if c == nil {
		return true
	}
	if c.Leader.Present {
		closing := v - c.Leader.V
		if c.Leader.Gap < abortMargin(progress, p, closing, c.Leader.IsPlayer) {
			return true
		}
	}
	if c.Follower.Present {
		closing := c.Follower.V - v
		if c.Follower.Gap < abortMargin(progress, p, closing, c.Follower.IsPlayer) {
			return true
		}
		aFollower := idm.Accel(c.Follower.V, c.Follower.V+1, c.Follower.Gap, c.Follower.V-v, p)
		if aFollower < -p.SafeDecel {
			return true
		}
	}
	return false
}

// Step advances the vehicle by dt simulated seconds. now is the simulation
// clock's current time, used for cooldown and maneuver-timing bookkeeping.
// hand selects which adjacent side is the "home" lane for MOBIL's
// keep-bias. Player-controlled vehicles skip the IDM/MOBIL decision layers
// entirely; call SetPlayerControl before Step for those.
func (v *Vehicle) Step(dt, now float64, env Environment, hand mobil.TrafficHand) {
	if v.phase == Despawned {
		return
	}
	if v.player {
		v.integrate(dt)
		return
	}

	dV := desiredSpeed(v.params, env)

	// Chain-reaction guard bookkeeping (spec §3/§4.3): any change in leader
	// identity, including losing the leader entirely, resets
	// new_obstacle_appeared_time and drops a pending plan so MOBIL can't
	// immediately re-accept a change triggered by the very obstacle that
	// just appeared.
	leaderChanged := env.HasLeaderID != v.hasLastLeader ||
		(env.HasLeaderID && v.hasLastLeader && env.LeaderID != v.lastLeaderID)
	if leaderChanged {
		v.hasLastLeader = env.HasLeaderID
		v.lastLeaderID = env.LeaderID
		v.hasNewObstacleTime = true
		v.newObstacleTime = now
		if v.phase == Planning {
			v.pending = nil
			v.phase = Cruise
		}
	}

	switch v.phase {
	case Cruise:
		v.a = accelWithLeader(v.v, dV, env.Leader, v.params)
		onChainReactionCooldown := v.hasNewObstacleTime && now-v.newObstacleTime < v.params.ChainReactionCooldown
		onCooldown := env.OnLaneChangeCooldown ||
			now-v.lastLaneChangeTime < v.params.LaneChangeCooldown ||
			onChainReactionCooldown
		d := mobil.Decide(v.params, hand, v.v, dV, env.Leader, env.Follower, env.Left, env.Right, onCooldown)
		if d.Accept {
			v.pending = &plan{side: d.Side, targetLane: d.TargetLane, leaderID: env.LeaderID, hasLeader: env.HasLeaderID}
			v.phase = Planning
		}

	case Planning:
		v.a = accelWithLeader(v.v, dV, env.Leader, v.params)
		if v.planDropped(env) {
			v.pending = nil
			v.phase = Cruise
		} else if obstacleLimited(env.Leader, v.v, v.params) {
			v.startChange(now)
		}

	case Changing:
		// The target lane's neighbors: the adjacent candidate naming it while
		// env was assembled around the start lane, or the current-lane
		// neighbors once the mid-change flip has put v.lane on the target.
		var cand *mobil.Candidate
		switch {
		case env.Left != nil && env.Left.Lane == v.targetLane:
			cand = env.Left
		case env.Right != nil && env.Right.Lane == v.targetLane:
			cand = env.Right
		case v.lane == v.targetLane:
			cand = &mobil.Candidate{Lane: v.targetLane, DesiredSpeed: dV, Leader: env.Leader, Follower: env.Follower}
		}
		progress := v.progress(now)

		// Mid-change neighbor lane flip (spec §3 invariant): for neighbor
		// queries, lane equals start_lane while progress < 0.5 and
		// target_lane once progress >= 0.5, independent of the final commit
		// at progress >= 1.
		if progress >= 0.5 {
			v.lane = v.targetLane
		} else {
			v.lane = v.startLane
		}

		aOld := accelWithLeader(v.v, dV, env.Leader, v.params)
		aNew := aOld
		if cand != nil {
			aNew = accelWithLeader(v.v, dV, cand.Leader, v.params)
		}
		v.a = math.Min(aOld, aNew)

		if changingUnsafe(v.params, v.v, progress, cand) {
			v.lane = v.startLane
			v.abortStart = now
			v.abortStartOffset = v.lateralOff
			v.lcDuration = trajectory.AbortDuration(progress)
			v.phase = Aborting
			break
		}

		dir := 1
		if v.targetLane < v.startLane {
			dir = -1
		}
		lw := env.LaneWidth
		if lw <= 0 {
			lw = 3.5
		}
		deltaW := float64(dir) * lw
		v.lateralOff = trajectory.Offset(progress, deltaW)
		v.lateralVel = trajectory.Velocity(progress, deltaW, v.lcDuration)
		v.heading = trajectory.SteeringYaw(progress, v.v, dir)
		if progress >= 1 {
			v.lane = v.targetLane
			v.startLane = v.targetLane
			v.lateralOff = 0
			v.lateralVel = 0
			v.heading = 0
			v.phase = Cruise
			v.lastLaneChangeTime = now
		}

	case Aborting:
		tau := 0.0
		if v.lcDuration > 0 {
			tau = clamp01((now - v.abortStart) / v.lcDuration)
		}
		v.lateralOff = trajectory.AbortOffset(v.abortStartOffset, tau)
		dir := 1
		if v.targetLane < v.startLane {
			dir = -1
		}
		v.heading = trajectory.SteeringYaw(tau, v.v, -dir)
		v.a = accelWithLeader(v.v, dV, env.Leader, v.params)
		if tau >= 1 {
			v.lateralOff = 0
			v.lateralVel = 0
			v.heading = 0
			v.phase = Cruise
			v.lastLaneChangeTime = now
		}
	}

	if env.NoiseAccel != 0 {
		v.a = lo.Clamp(v.a+env.NoiseAccel, -v.params.MaxDecel, v.params.MaxAccel)
	}
	v.integrate(dt)
}

func (v *Vehicle) planDropped(env Environment) bool {
	p := v.pending
	cand := env.Left
	if p.side == mobil.Right {
		cand = env.Right
	}
	if cand == nil || cand.Lane != p.targetLane {
		return true
	}
	if p.hasLeader != env.HasLeaderID || (p.hasLeader && p.leaderID != env.LeaderID) {
		return true
	}
	return planUnsafe(v.params, v.v, cand)
}

func (v *Vehicle) startChange(now float64) {
	v.startLane = v.lane
	v.targetLane = v.pending.targetLane
	v.lcStart = now
	v.lcDuration = trajectory.Duration(v.v)
	v.lateralOff = 0
	v.lateralVel = 0
	v.pending = nil
	v.phase = Changing
}

func (v *Vehicle) progress(now float64) float64 {
	if v.lcDuration <= 0 {
		return 1
	}
	return clamp01((now - v.lcStart) / v.lcDuration)
}

// integrate applies v' = max(0, v + a*dt), s' = s + v*dt + a*dt^2/2, the
// teacher's computeVAndDistance (entity/person/vehicle.go), generalized to
// clamp at zero velocity instead of solving the stopping distance exactly
// since a tick-based scheduler re-evaluates every step regardless.
func (v *Vehicle) integrate(dt float64) {
	newV := v.v + v.a*dt
	if newV < 0 {
		newV = 0
	}
	ds := v.v*dt + 0.5*v.a*dt*dt
	if ds < 0 {
		ds = 0
	}
	v.v = newV
	v.s += ds
}

func clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}
