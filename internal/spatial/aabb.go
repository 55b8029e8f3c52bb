// Package spatial implements the sparse octree spatial index (component C):
// a generic, flat-array-backed index over axis-aligned boxes supporting
// insert, remove, region queries and ray queries.
package spatial

import "github.com/go-gl/mathgl/mgl32"

// AABB is an axis-aligned bounding box.
type AABB struct {
	Min, Max mgl32.Vec3
}

// NewAABB builds an AABB from two corners, normalizing min/max per axis.
func NewAABB(a, b mgl32.Vec3) AABB {
	return AABB{
		Min: mgl32.Vec3{minf(a[0], b[0]), minf(a[1], b[1]), minf(a[2], b[2])},
		Max: mgl32.Vec3{maxf(a[0], b[0]), maxf(a[1], b[1]), maxf(a[2], b[2])},
	}
}

func minf(a, b float32) float32 {
	if a < b {
		return a
	}
	return b
}

func maxf(a, b float32) float32 {
	if a > b {
		return a
	}
	return b
}

// Center returns the AABB's midpoint.
func (b AABB) Center() mgl32.Vec3 {
	return mgl32.Vec3{
		(b.Min[0] + b.Max[0]) / 2,
		(b.Min[1] + b.Max[1]) / 2,
		(b.Min[2] + b.Max[2]) / 2,
	}
}

// Extents returns the full (not half) size of the box along each axis.
func (b AABB) Extents() mgl32.Vec3 {
	return mgl32.Vec3{
		b.Max[0] - b.Min[0],
		b.Max[1] - b.Min[1],
		b.Max[2] - b.Min[2],
	}
}

// Contains reports whether b fully contains other.
func (b AABB) Contains(other AABB) bool {
	return other.Min[0] >= b.Min[0] && other.Max[0] <= b.Max[0] &&
		other.Min[1] >= b.Min[1] && other.Max[1] <= b.Max[1] &&
		other.Min[2] >= b.Min[2] && other.Max[2] <= b.Max[2]
}

// Intersects reports whether b and other overlap (touching counts as
// overlap).
func (b AABB) Intersects(other AABB) bool {
	return b.Min[0] <= other.Max[0] && b.Max[0] >= other.Min[0] &&
		b.Min[1] <= other.Max[1] && b.Max[1] >= other.Min[1] &&
		b.Min[2] <= other.Max[2] && b.Max[2] >= other.Min[2]
}

// IntersectsRay performs a slab test against the box; returns the entry
// distance t and whether the ray intersects within [0, +inf).
func (b AABB) IntersectsRay(origin, dir mgl32.Vec3) (float32, bool) {
	tmin := float32(0)
	tmax := float32(3.4e38)

	for axis := 0; axis < 3; axis++ {
		if dir[axis] == 0 {
			if origin[axis] < b.Min[axis] || origin[axis] > b.Max[axis] {
				return 0, false
			}
			continue
		}
		invD := 1.0 / dir[axis]
		t1 := (b.Min[axis] - origin[axis]) * invD
		t2 := (b.Max[axis] - origin[axis]) * invD
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tmin {
			tmin = t1
		}
		if t2 < tmax {
			tmax = t2
		}
		if tmin > tmax {
			return 0, false
		}
	}
	return tmin, true
}
