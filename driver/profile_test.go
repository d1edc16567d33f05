package driver_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fib-lab/drivecore/driver"
)

func TestDeriveScalesBySpeedPersonalityFactor(t *testing.T) {
	base := driver.DefaultCarBase()
	normal := driver.Derive(driver.Car, driver.Normal, base)
	aggressive := driver.Derive(driver.Car, driver.Aggressive, base)

	assert.InDelta(t, base.DesiredSpeed, normal.DesiredSpeed, 1e-9)
	assert.InDelta(t, base.DesiredSpeed*1.2, aggressive.DesiredSpeed, 1e-9)
	assert.InDelta(t, base.MaxAccel*1.2, aggressive.MaxAccel, 1e-9)
	assert.InDelta(t, base.TimeHeadway/1.2, aggressive.TimeHeadway, 1e-9)
}

func TestDeriveLeavesSafetyParametersUnscaledByPersonality(t *testing.T) {
	base := driver.DefaultCarBase()
	timid := driver.Derive(driver.Car, driver.Timid, base)
	aggressive := driver.Derive(driver.Car, driver.VeryAggressive, base)

	assert.Equal(t, timid.ComfortDecel, aggressive.ComfortDecel)
	assert.Equal(t, timid.MaxDecel, aggressive.MaxDecel)
	assert.Equal(t, timid.MinGap, aggressive.MinGap)
}

func TestDeriveInterpolatesMarginsByAggressiveness(t *testing.T) {
	base := driver.DefaultCarBase()
	timid := driver.Derive(driver.Car, driver.Timid, base)
	veryAggressive := driver.Derive(driver.Car, driver.VeryAggressive, base)

	assert.InDelta(t, base.AdjacentMarginPassive, timid.AdjacentMargin, 1e-9)
	assert.InDelta(t, base.AdjacentMarginAggressive, veryAggressive.AdjacentMargin, 1e-9)
	assert.Less(t, veryAggressive.AdjacentMargin, timid.AdjacentMargin)
	assert.Less(t, veryAggressive.ChainReactionCooldown, timid.ChainReactionCooldown)
}

func TestTruckDefaultsAreMoreConservativeThanCar(t *testing.T) {
	car := driver.DefaultCarBase()
	truck := driver.DefaultTruckBase()

	assert.Less(t, truck.DesiredSpeed, car.DesiredSpeed)
	assert.Less(t, truck.MaxAccel, car.MaxAccel)
	assert.Greater(t, truck.TimeHeadway, car.TimeHeadway)
	assert.Greater(t, truck.Length, car.Length)
}

func TestKindAndPersonalityString(t *testing.T) {
	assert.Equal(t, "car", driver.Car.String())
	assert.Equal(t, "truck", driver.Truck.String())
	assert.Equal(t, "aggressive", driver.Aggressive.String())
}
