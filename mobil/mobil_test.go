package mobil_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fib-lab/drivecore/driver"
	"github.com/fib-lab/drivecore/mobil"
)

func carParams() driver.Params {
	return driver.Derive(driver.Car, driver.Normal, driver.DefaultCarBase())
}

func TestDecideAcceptsClearFasterLane(t *testing.T) {
	p := carParams()
	egoV := 15.0
	desired := p.DesiredSpeed

	currentLeader := mobil.Neighbor{Present: true, V: 10, Gap: 8} // slow leader blocking
	left := &mobil.Candidate{
		Lane:         1,
		DesiredSpeed: desired,
		Leader:       mobil.Neighbor{Present: false},
		Follower:     mobil.Neighbor{Present: false},
	}

	d := mobil.Decide(p, mobil.RightHand, egoV, desired, currentLeader, mobil.Neighbor{}, left, nil, false)
	assert.True(t, d.Accept)
	assert.Equal(t, mobil.Left, d.Side)
	assert.Equal(t, 1, d.TargetLane)
}

func TestDecideRejectsWhenAdjacentLeaderTooClose(t *testing.T) {
	p := carParams()
	egoV := 15.0
	desired := p.DesiredSpeed

	currentLeader := mobil.Neighbor{Present: true, V: 10, Gap: 8}
	left := &mobil.Candidate{
		Lane:         1,
		DesiredSpeed: desired,
		Leader:       mobil.Neighbor{Present: true, V: 15, Gap: p.AdjacentMargin / 2},
		Follower:     mobil.Neighbor{Present: false},
	}

	d := mobil.Decide(p, mobil.RightHand, egoV, desired, currentLeader, mobil.Neighbor{}, left, nil, false)
	assert.False(t, d.Accept)
}

func TestDecideRejectsWhenNewFollowerWouldBrakeHard(t *testing.T) {
	p := carParams()
	egoV := 20.0
	desired := p.DesiredSpeed

	// A slow current leader gives the change a clear incentive, so only the
	// follower-safety check can reject it.
	currentLeader := mobil.Neighbor{Present: true, V: 10, Gap: 8}
	left := &mobil.Candidate{
		Lane:         1,
		DesiredSpeed: desired,
		Leader:       mobil.Neighbor{Present: false},
		// a fast-closing follower just outside the adjacent margin: cutting
		// in here would force it to brake far harder than SafeDecel allows.
		Follower: mobil.Neighbor{Present: true, V: 30, Gap: p.AdjacentMargin + 1},
	}

	d := mobil.Decide(p, mobil.RightHand, egoV, desired, currentLeader, mobil.Neighbor{}, left, nil, false)
	assert.False(t, d.Accept)
}

func TestDecideNoOpWhenOnCooldown(t *testing.T) {
	p := carParams()
	left := &mobil.Candidate{Lane: 1, DesiredSpeed: p.DesiredSpeed}
	d := mobil.Decide(p, mobil.RightHand, 15, p.DesiredSpeed, mobil.Neighbor{Present: true, V: 5, Gap: 5}, mobil.Neighbor{}, left, nil, true)
	assert.False(t, d.Accept)
}

func TestDecideKeepBiasDiscouragesOvertakeSideWhenEqual(t *testing.T) {
	p := carParams()
	egoV := 20.0
	desired := p.DesiredSpeed

	// Both sides identically clear: the right-hand-traffic home side
	// (Right) should win the tie via keep-bias even though both pass.
	clearCandidate := func(lane int) *mobil.Candidate {
		return &mobil.Candidate{Lane: lane, DesiredSpeed: desired}
	}
	// Give ego a slow leader so both lane changes carry positive incentive.
	leader := mobil.Neighbor{Present: true, V: 10, Gap: 8}

	d := mobil.Decide(p, mobil.RightHand, egoV, desired, leader, mobil.Neighbor{}, clearCandidate(1), clearCandidate(-1), false)
	assert.True(t, d.Accept)
	assert.Equal(t, mobil.Right, d.Side)
}
