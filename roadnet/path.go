// Package roadnet is the read-only path catalog: named multi-lane paths
// with arc-length parameterization and per-zone properties. It knows
// nothing about world-space geometry — converting a (path, s, lane,
// lateral offset) into world coordinates is an external collaborator's
// job per spec §1. Grounded on the teacher's entity/lane.Lane, stripped of
// its polyline/protobuf/traffic-light machinery (out of scope here) and
// kept to the scalar arc-length model spec §3 calls for.
package roadnet

import "fmt"

// ID identifies a Path.
type ID int32

// Path is an immutable, named multi-lane spline segment. Arc length is
// monotone along the path; lanes are indexed 0..LaneCount-1 from the
// inside, per spec §3.
type Path struct {
	id         ID
	length     float64
	laneCount  int
	laneWidth  float64
	zone       string
	speedLimit float64
}

// New constructs a Path. laneWidth defaults to 3.5m if zero.
func New(id ID, length float64, laneCount int, laneWidth, speedLimit float64, zone string) *Path {
	if length <= 0 {
		panic(fmt.Sprintf("roadnet: path %d: length must be positive", id))
	}
	if laneCount <= 0 {
		panic(fmt.Sprintf("roadnet: path %d: laneCount must be positive", id))
	}
	if laneWidth <= 0 {
		laneWidth = 3.5
	}
	return &Path{
		id:         id,
		length:     length,
		laneCount:  laneCount,
		laneWidth:  laneWidth,
		zone:       zone,
		speedLimit: speedLimit,
	}
}

func (p *Path) ID() ID              { return p.id }
func (p *Path) Length() float64     { return p.length }
func (p *Path) LaneCount() int      { return p.laneCount }
func (p *Path) LaneWidth() float64  { return p.laneWidth }
func (p *Path) Zone() string        { return p.zone }
func (p *Path) SpeedLimit() float64 { return p.speedLimit }

// ValidLane reports whether lane is a valid lane index on this path.
func (p *Path) ValidLane(lane int) bool {
	return lane >= 0 && lane < p.laneCount
}

// Catalog is the read-only set of paths known to the simulation, looked up
// by ID. It is built once at startup and never mutated afterward.
type Catalog struct {
	paths map[ID]*Path
}

// NewCatalog builds a Catalog from a set of paths. Duplicate IDs panic:
// this is a construction-time programming error, not a runtime fault.
func NewCatalog(paths ...*Path) *Catalog {
	c := &Catalog{paths: make(map[ID]*Path, len(paths))}
	for _, p := range paths {
		if _, ok := c.paths[p.id]; ok {
			panic(fmt.Sprintf("roadnet: duplicate path id %d", p.id))
		}
		c.paths[p.id] = p
	}
	return c
}

// Get returns the path with the given id, or nil if unknown.
func (c *Catalog) Get(id ID) *Path {
	return c.paths[id]
}
