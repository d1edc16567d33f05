package randengine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/fib-lab/drivecore/randengine"
)

func TestSameSeedReproducesSequence(t *testing.T) {
	a := randengine.New(7)
	b := randengine.New(7)
	for i := 0; i < 20; i++ {
		assert.Equal(t, a.Float64Safe(), b.Float64Safe())
	}
}

func TestDifferentSeedsDiverge(t *testing.T) {
	a := randengine.New(1)
	b := randengine.New(2)
	same := true
	for i := 0; i < 10; i++ {
		if a.Float64Safe() != b.Float64Safe() {
			same = false
			break
		}
	}
	assert.False(t, same)
}

func TestPTrueAlwaysFalseAtZero(t *testing.T) {
	e := randengine.New(3)
	for i := 0; i < 50; i++ {
		assert.False(t, e.PTrue(0))
	}
}

func TestPTrueAlwaysTrueAtOne(t *testing.T) {
	e := randengine.New(3)
	for i := 0; i < 50; i++ {
		assert.True(t, e.PTrue(1))
	}
}
