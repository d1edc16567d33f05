package sim

import (
	"context"
	"runtime"
	"sync"
	"time"

	"github.com/fib-lab/drivecore/roadnet"
	"github.com/fib-lab/drivecore/spatial"
	"github.com/fib-lab/drivecore/vehicle"
)

// Step advances the simulation by exactly one tick. It rebuilds the
// spatial index serially, then fans per-vehicle updates out across a
// worker pool of plain goroutines synchronized with a sync.WaitGroup —
// the teacher's own prepare/update concurrency idiom (task.Context.Run),
// generalized from its fixed per-manager goroutines to a chunked
// per-vehicle worker pool since there is one flat vehicle arena here
// instead of several entity managers. No errgroup or x/sync is introduced:
// the teacher's own source never exercises them either (SPEC_FULL §5).
func (c *Context) Step() {
	c.clock.Advance()
	now := c.clock.T

	c.mu.Lock()
	c.arena.Prepare()
	vehicles := append([]*vehicle.Vehicle(nil), c.arena.Data()...)
	c.mu.Unlock()

	c.rebuildIndex(vehicles)
	c.fanOutUpdates(vehicles, now)

	if c.clock.Step%c.cfg.HeartbeatInterval == 0 {
		log.Infof("STEP %d (%s): %d vehicles", c.clock.Step, c.clock.String(), len(vehicles))
	}
}

func (c *Context) rebuildIndex(vehicles []*vehicle.Vehicle) {
	occupants := make([]spatial.Occupant, 0, len(vehicles))
	for _, v := range vehicles {
		if v.Phase() != vehicle.Despawned {
			occupants = append(occupants, v)
		}
	}
	c.index.Rebuild(occupants, func(o spatial.Occupant) (roadnet.ID, []int) {
		vv := o.(*vehicle.Vehicle)
		return vv.PathID(), vv.Lanes()
	})
}

func (c *Context) fanOutUpdates(vehicles []*vehicle.Vehicle, now float64) {
	workers := runtime.GOMAXPROCS(0)
	if workers > len(vehicles) {
		workers = len(vehicles)
	}
	if workers < 1 {
		return
	}

	chunkSize := (len(vehicles) + workers - 1) / workers
	var wg sync.WaitGroup
	for start := 0; start < len(vehicles); start += chunkSize {
		end := start + chunkSize
		if end > len(vehicles) {
			end = len(vehicles)
		}
		chunk := vehicles[start:end]
		wg.Add(1)
		go func(chunk []*vehicle.Vehicle) {
			defer wg.Done()
			for _, v := range chunk {
				c.updateOne(v, now)
			}
		}(chunk)
	}
	wg.Wait()
}

// updateOne advances a single vehicle, recovering from any panic an
// invariant violation raises (spec §7): the offending vehicle is logged at
// Error level and despawned, and the tick continues for everyone else.
func (c *Context) updateOne(v *vehicle.Vehicle, now float64) {
	defer func() {
		if r := recover(); r != nil {
			log.Errorf("vehicle %d panicked during update, despawning: %v", v.ID(), r)
			c.mu.Lock()
			_ = c.removeLocked(v.ID())
			c.mu.Unlock()
		}
	}()

	if v.Phase() == vehicle.Despawned {
		return
	}
	path := c.catalog.Get(v.PathID())
	if path == nil {
		panic("sim: vehicle references unknown path")
	}

	env := c.buildEnvironment(v, path)
	v.Step(c.clock.DT, now, env, c.hand())

	if v.S() >= path.Length() {
		c.mu.Lock()
		_ = c.removeLocked(v.ID())
		c.mu.Unlock()
	}
}

func (c *Context) buildEnvironment(v *vehicle.Vehicle, path *roadnet.Path) vehicle.Environment {
	leader, leaderID, hasLeader := c.index.Leader(v.PathID(), v.Lane(), v.S(), v.Length())
	follower, _, _ := c.index.Follower(v.PathID(), v.Lane(), v.S(), v.Length())

	desired := path.SpeedLimit()
	if zl := c.cfg.SpeedLimit(path.Zone()); zl > 0 && (desired <= 0 || zl < desired) {
		desired = zl
	}

	left := c.index.Candidate(v.PathID(), v.Lane()+1, v.S(), v.Length(), desired, path.ValidLane(v.Lane()+1))
	right := c.index.Candidate(v.PathID(), v.Lane()-1, v.S(), v.Length(), desired, path.ValidLane(v.Lane()-1))

	var noise float64
	if !v.IsPlayer() {
		noise = c.rng.NormFloat64Safe() * noiseSigma
	}

	return vehicle.Environment{
		Leader: leader, Follower: follower, LeaderID: leaderID, HasLeaderID: hasLeader,
		Left: left, Right: right,
		SpeedLimit: desired,
		LaneWidth:  path.LaneWidth(),
		NoiseAccel: noise,
	}
}

// Run ticks the simulation at cfg.UpdateTickRate until ctx is done.
func (c *Context) Run(ctx context.Context) {
	interval := time.Duration(c.clock.DT * float64(time.Second))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Step()
		}
	}
}
