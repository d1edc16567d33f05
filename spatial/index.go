// Package spatial answers nearest-neighbor queries over vehicles on a
// path's lanes: leader, follower, and the adjacent-lane occupants MOBIL
// needs. Grounded on the teacher's per-lane vehicle list
// (entity/lane/lane.go's laneList, itself a container.List) — generalized
// from one list per map lane to one list per (path, lane) pair, and
// rebuilt wholesale each tick rather than incrementally maintained, since
// the scheduler already rewrites every vehicle's position every tick
// (spec §5).
package spatial

import (
	"fmt"
	"math"
	"sort"

	"github.com/fib-lab/drivecore/container"
	"github.com/fib-lab/drivecore/mobil"
	"github.com/fib-lab/drivecore/roadnet"
)

// Vec2 is a world-space position or velocity vector, grounded on the pack's
// common.Vec2 (7wik-pk-racing-line-mapper/internal/common/vector.go). The
// core never converts a spline coordinate to one of these itself (spec
// §1) — a host supplies it for each player vehicle it drives.
type Vec2 struct {
	X, Y float64
}

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{v.X - o.X, v.Y - o.Y}
}

// Len returns the vector's magnitude.
func (v Vec2) Len() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}

// Occupant is anything the index can place and query: a vehicle's public
// surface, kept narrow so the index doesn't need to import the vehicle
// package.
type Occupant interface {
	container.IHasVAndLength
	ID() int32
	S() float64
	IsPlayer() bool
	// World returns the occupant's world-space position and velocity and
	// whether one is known. Only human-driven vehicles carry one; the
	// spline-to-world conversion for AI vehicles is out of scope (spec §1).
	World() (pos Vec2, vel Vec2, ok bool)
}

type laneKey struct {
	path roadnet.ID
	lane int
}

// Index is a per-tick snapshot of which occupants sit on which (path,
// lane), ordered by arc length. It is rebuilt from scratch every tick by
// Rebuild and is safe for concurrent read-only queries afterward; it is
// not safe to query while Rebuild is running.
type Index struct {
	lanes map[laneKey]*container.List[Occupant, struct{}]
	world []Occupant
}

// New creates an empty index.
func New() *Index {
	return &Index{lanes: make(map[laneKey]*container.List[Occupant, struct{}])}
}

// Rebuild discards the previous tick's placement and re-inserts every
// occupant by its current (path, lanes, s). Cost is O(n log n) per lane for
// the sort; the teacher's incrementally-maintained list trades that for
// bookkeeping complexity this package doesn't need since the whole
// simulation state is already being rewritten every tick.
//
// lanesOf may return more than one lane for a single occupant: a
// human-driven vehicle straddling two lanes is inserted into both, so MOBIL
// sees it as present in either adjacent lane for safety (spec §4.5).
func (idx *Index) Rebuild(occupants []Occupant, lanesOf func(Occupant) (roadnet.ID, []int)) {
	grouped := make(map[laneKey][]Occupant)
	idx.world = idx.world[:0]
	for _, o := range occupants {
		path, lanes := lanesOf(o)
		for _, lane := range lanes {
			key := laneKey{path, lane}
			grouped[key] = append(grouped[key], o)
		}
		if _, _, ok := o.World(); ok {
			idx.world = append(idx.world, o)
		}
	}

	idx.lanes = make(map[laneKey]*container.List[Occupant, struct{}], len(grouped))
	for key, occ := range grouped {
		sort.Slice(occ, func(i, j int) bool { return occ[i].S() < occ[j].S() })
		list := &container.List[Occupant, struct{}]{ID: keyString(key)}
		for _, o := range occ {
			node := &container.ListNode[Occupant, struct{}]{S: o.S(), Value: o}
			list.PushBack(node)
		}
		idx.lanes[key] = list
	}
}

// WorldRadius returns every occupant with a known world position within r
// of pos (spec §4.5, used for player proximity). AI vehicles never carry a
// world position (spec §1), so this only ever reports human-driven ones.
func (idx *Index) WorldRadius(pos Vec2, r float64) []Occupant {
	var out []Occupant
	for _, o := range idx.world {
		p, _, ok := o.World()
		if !ok {
			continue
		}
		if p.Sub(pos).Len() <= r {
			out = append(out, o)
		}
	}
	return out
}

func keyString(k laneKey) string {
	return fmt.Sprintf("path %d lane %d", k.path, k.lane)
}

// Leader returns the nearest occupant ahead of s on (path, lane), if any.
func (idx *Index) Leader(path roadnet.ID, lane int, s float64, length float64) (mobil.Neighbor, int32, bool) {
	list := idx.lanes[laneKey{path, lane}]
	if list == nil {
		return mobil.Neighbor{}, 0, false
	}
	for node := list.First(); node != nil; node = node.Next() {
		if node.S > s {
			gap := node.S - node.Value.Length() - s
			if gap < 0 {
				gap = 0
			}
			n := mobil.Neighbor{Present: true, V: node.Value.V(), Gap: gap, IsPlayer: node.Value.IsPlayer()}
			return n, node.Value.ID(), true
		}
	}
	return mobil.Neighbor{}, 0, false
}

// Follower returns the nearest occupant behind s on (path, lane), if any.
func (idx *Index) Follower(path roadnet.ID, lane int, s float64, length float64) (mobil.Neighbor, int32, bool) {
	list := idx.lanes[laneKey{path, lane}]
	if list == nil {
		return mobil.Neighbor{}, 0, false
	}
	var best *container.ListNode[Occupant, struct{}]
	for node := list.First(); node != nil && node.S <= s; node = node.Next() {
		if node.S < s {
			best = node
		}
	}
	if best == nil {
		return mobil.Neighbor{}, 0, false
	}
	gap := s - length - best.S
	if gap < 0 {
		gap = 0
	}
	n := mobil.Neighbor{Present: true, V: best.Value.V(), Gap: gap, IsPlayer: best.Value.IsPlayer()}
	return n, best.Value.ID(), true
}

// Candidate builds a mobil.Candidate for the given adjacent lane, or nil if
// the lane doesn't exist on the path.
func (idx *Index) Candidate(path roadnet.ID, lane int, s, length, desiredSpeed float64, valid bool) *mobil.Candidate {
	if !valid {
		return nil
	}
	leader, _, _ := idx.Leader(path, lane, s, length)
	follower, _, _ := idx.Follower(path, lane, s, length)
	return &mobil.Candidate{
		Lane:         lane,
		DesiredSpeed: desiredSpeed,
		Leader:       leader,
		Follower:     follower,
	}
}
