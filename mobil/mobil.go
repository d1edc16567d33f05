// Package mobil implements the MOBIL (Minimizing Overall Braking Induced by
// Lane changes) lane-change decision rule: an incentive computed from the
// ego's own acceleration gain plus the politeness-weighted braking imposed
// on neighbors, gated by a safety overlay. Grounded on the teacher's
// planLaneChange (entity/person/controllerlanechange.go), keeping its core
// idea of inferring a neighbor's acceleration response with the ego's own
// IDM parameters ("对于其他车的属性，采用本车的值去推断") and its
// deltaA0 + p*(deltaA2+deltaA3) > threshold acceptance rule, but replacing
// its probabilistic pLC lane-selection with the deterministic
// larger-incentive-wins rule the spec calls for (spec §9 Open Question).
package mobil

import (
	"github.com/fib-lab/drivecore/driver"
	"github.com/fib-lab/drivecore/idm"
)

// Side is one of the two lane-change directions relative to the ego's
// current lane.
type Side int

const (
	Left Side = iota
	Right
)

func (s Side) String() string {
	if s == Left {
		return "left"
	}
	return "right"
}

// TrafficHand selects which side is the "home" lane a driver returns to
// once done overtaking; the opposite side carries the keep-bias penalty.
type TrafficHand int

const (
	RightHand TrafficHand = iota
	LeftHand
)

func (h TrafficHand) homeSide() Side {
	if h == LeftHand {
		return Left
	}
	return Right
}

// Neighbor describes another vehicle relative to a reference point, as a
// bumper-to-bumper gap and a speed. Present is false when there is no
// vehicle within sensing range (a free lane end counts as absent). IsPlayer
// marks a human-driven neighbor, which the vehicle package's abort check
// treats with an extra velocity-based safety margin (spec §4.4).
type Neighbor struct {
	Present  bool
	V        float64
	Gap      float64
	IsPlayer bool
}

// Candidate describes one adjacent lane the ego could move into: its
// would-be leader and follower after the change, and the desired speed
// applicable there (e.g. a lane-specific speed limit already minimized
// against the driver's own desired speed).
type Candidate struct {
	Lane         int
	DesiredSpeed float64
	Leader       Neighbor
	Follower     Neighbor
}

// Decision is the outcome of one MOBIL evaluation.
type Decision struct {
	Accept     bool
	Side       Side
	TargetLane int
	Incentive  float64
	NewAccel   float64 // a_new: ego's IDM acceleration in the target lane
}

func accelWithLeader(v, desiredV float64, leader Neighbor, p driver.Params) float64 {
	if !leader.Present {
		return idm.FreeRoadAccel(v, desiredV, p)
	}
	return idm.Accel(v, desiredV, leader.Gap, v-leader.V, p)
}

// Decide evaluates both adjacent lanes and returns the accepted change, if
// any. onCooldown short-circuits to a no-change decision: it covers both
// the ordinary post-lane-change cooldown (driver.Params.LaneChangeCooldown)
// and the chain-reaction guard (driver.Params.ChainReactionCooldown) that
// keeps a just-displaced follower from immediately triggering another
// change. The caller (vehicle.Vehicle.Step) tracks last_known_leader_id
// itself, resets the guard's timer on any leader-identity change including
// loss, and collapses both windows to this one boolean.
func Decide(
	p driver.Params,
	hand TrafficHand,
	egoV, egoDesiredSpeed float64,
	currentLeader, currentFollower Neighbor,
	left, right *Candidate,
	onCooldown bool,
) Decision {
	if onCooldown {
		return Decision{}
	}

	a0 := accelWithLeader(egoV, egoDesiredSpeed, currentLeader, p)
	deltaOldFollower := oldFollowerDelta(p, egoV, egoDesiredSpeed, currentLeader, currentFollower)

	home := hand.homeSide()
	best := Decision{}
	haveBest := false

	for _, c := range []struct {
		side Side
		cand *Candidate
	}{{Left, left}, {Right, right}} {
		if c.cand == nil {
			continue
		}
		d, ok := evaluateSide(p, c.side, home, egoV, egoDesiredSpeed, a0, deltaOldFollower, *c.cand)
		if !ok {
			continue
		}
		if !haveBest || d.Incentive > best.Incentive ||
			(d.Incentive == best.Incentive && d.Side == home && best.Side != home) {
			best = d
			haveBest = true
		}
	}

	return best
}

// oldFollowerDelta is deltaA2 in the teacher's notation: how the ego's
// current-lane follower's acceleration changes once it inherits the ego's
// old leader instead of the ego itself.
func oldFollowerDelta(p driver.Params, egoV, desiredV float64, leader, follower Neighbor) float64 {
	if !follower.Present {
		return 0
	}
	withEgo := idm.Accel(follower.V, desiredV, follower.Gap, follower.V-egoV, p)

	var withoutEgo float64
	if leader.Present {
		gap := follower.Gap + p.Length + leader.Gap
		withoutEgo = idm.Accel(follower.V, desiredV, gap, follower.V-leader.V, p)
	} else {
		withoutEgo = idm.FreeRoadAccel(follower.V, desiredV, p)
	}
	return withoutEgo - withEgo
}

func evaluateSide(
	p driver.Params, side, home Side,
	egoV, egoDesiredSpeed, a0, deltaOldFollower float64,
	c Candidate,
) (Decision, bool) {
	desiredV := egoDesiredSpeed
	if c.DesiredSpeed > 0 && c.DesiredSpeed < desiredV {
		desiredV = c.DesiredSpeed
	}

	// Layered safety check 1: adjacent vehicles must clear the
	// personality-scaled physical margin before anything else is evaluated.
	if c.Leader.Present && c.Leader.Gap < p.AdjacentMargin {
		return Decision{}, false
	}
	if c.Follower.Present && c.Follower.Gap < p.AdjacentMargin {
		return Decision{}, false
	}

	aNew := accelWithLeader(egoV, desiredV, c.Leader, p)

	// Layered safety check 2: the new follower must not be forced to brake
	// harder than the safety deceleration once the ego cuts in ahead of it.
	var deltaNewFollower float64
	if c.Follower.Present {
		dv := c.Follower.V - egoV
		aNewFollower := idm.Accel(c.Follower.V, desiredV, c.Follower.Gap, dv, p)
		if aNewFollower < -p.SafeDecel {
			return Decision{}, false
		}
		var aOldFollower float64
		if c.Leader.Present {
			gap := c.Follower.Gap + p.Length + c.Leader.Gap
			aOldFollower = idm.Accel(c.Follower.V, desiredV, gap, c.Follower.V-c.Leader.V, p)
		} else {
			aOldFollower = idm.FreeRoadAccel(c.Follower.V, desiredV, p)
		}
		deltaNewFollower = aNewFollower - aOldFollower
	}

	bias := 0.0
	if side != home {
		bias = p.KeepBias
	}

	incentive := (aNew - a0) + p.Politeness*(deltaOldFollower+deltaNewFollower) - bias
	if incentive <= p.AccelThreshold {
		return Decision{}, false
	}

	return Decision{
		Accept:     true,
		Side:       side,
		TargetLane: c.Lane,
		Incentive:  incentive,
		NewAccel:   aNew,
	}, true
}
