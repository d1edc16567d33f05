package trajectory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fib-lab/drivecore/trajectory"
)

func TestOffsetEndpoints(t *testing.T) {
	assert.InDelta(t, 0, trajectory.Offset(0, 3.5), 1e-9)
	assert.InDelta(t, 3.5, trajectory.Offset(1, 3.5), 1e-9)
}

func TestOffsetMonotonicForPositiveDelta(t *testing.T) {
	prev := trajectory.Offset(0, 3.5)
	for i := 1; i <= 10; i++ {
		progress := float64(i) / 10
		cur := trajectory.Offset(progress, 3.5)
		assert.GreaterOrEqual(t, cur, prev)
		prev = cur
	}
}

func TestVelocityEndpointsAreZero(t *testing.T) {
	assert.InDelta(t, 0, trajectory.Velocity(0, 3.5, 4), 1e-9)
	assert.InDelta(t, 0, trajectory.Velocity(1, 3.5, 4), 1e-9)
}

func TestDurationClampedRange(t *testing.T) {
	assert.GreaterOrEqual(t, trajectory.Duration(0), 2.5)
	assert.LessOrEqual(t, trajectory.Duration(1000), 7.0)
	assert.InDelta(t, 3.5, trajectory.Duration(27.8), 0.05)
}

func TestWithinComfortRejectsTooFastANarrowChange(t *testing.T) {
	assert.True(t, trajectory.WithinComfort(3.5, 4.0))
	assert.False(t, trajectory.WithinComfort(3.5, 0.5))
}

func TestSteeringYawSignFollowsDirection(t *testing.T) {
	left := trajectory.SteeringYaw(0.3, 20, 1)
	right := trajectory.SteeringYaw(0.3, 20, -1)
	assert.Greater(t, left, 0.0)
	assert.Less(t, right, 0.0)
	assert.InDelta(t, left, -right, 1e-9)
}

func TestSteeringYawZeroAtEndpoints(t *testing.T) {
	assert.InDelta(t, 0, trajectory.SteeringYaw(0, 20, 1), 1e-9)
	assert.InDelta(t, 0, trajectory.SteeringYaw(1, 20, 1), 1e-9)
}

func TestAbortOffsetDecaysToZero(t *testing.T) {
	assert.InDelta(t, 2.0, trajectory.AbortOffset(2.0, 0), 1e-9)
	assert.InDelta(t, 0, trajectory.AbortOffset(2.0, 1), 1e-9)
	mid := trajectory.AbortOffset(2.0, 0.5)
	assert.Greater(t, mid, 0.0)
	assert.Less(t, mid, 2.0)
}

func TestAbortDurationClamped(t *testing.T) {
	assert.Equal(t, 0.5, trajectory.AbortDuration(0))
	assert.Equal(t, 2.0, trajectory.AbortDuration(1.0))
	assert.InDelta(t, 0.6, trajectory.AbortDuration(0.3), 1e-9)
}
