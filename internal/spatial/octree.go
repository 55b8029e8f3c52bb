package spatial

import (
	"sync"

	"github.com/go-gl/mathgl/mgl32"
)

// Logger is the minimal logging capability the octree needs (a failed
// insert is logged, never panicked or returned as an error — spec §4.C).
// It is satisfied by *enginelog.Logger without spatial importing it.
type Logger interface {
	Warnf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Warnf(string, ...any) {}

const childCount = 8

// node is stored by value in a flat slice for cache locality. childIndices
// holds -1 for an absent child.
type node struct {
	bounds        AABB
	childIndices  [childCount]int32
	objectIndices []uint32
}

func newNode(bounds AABB) node {
	n := node{bounds: bounds}
	for i := range n.childIndices {
		n.childIndices[i] = -1
	}
	return n
}

func (n *node) isLeaf() bool {
	for _, c := range n.childIndices {
		if c != -1 {
			return false
		}
	}
	return true
}

// object pairs a stored item with the bounds it was inserted under.
type object[T any] struct {
	bounds AABB
	data   T
}

// Pair is a (bounds, item) result from a query.
type Pair[T any] struct {
	Bounds AABB
	Data   T
}

// SparseOctree is a generic spatial index over axis-aligned boxes, backed by
// flat node/object arrays (spec §3, §4.C, §9: "Octree with flat arrays vs.
// pointer tree"). All operations hold a single coarse mutex; this is
// intentional at the scale this index operates at (spec §4.C).
type SparseOctree[T comparable] struct {
	mu sync.Mutex

	nodes   []node
	objects []object[T]

	rootIndex         int32
	maxDepth          int
	maxObjectsPerNode int

	log Logger
}

// New creates an octree covering bounds. maxDepth bounds recursion;
// maxObjectsPerNode is the split threshold for a leaf.
func New[T comparable](bounds AABB, maxDepth, maxObjectsPerNode int) *SparseOctree[T] {
	o := &SparseOctree[T]{
		maxDepth:          maxDepth,
		maxObjectsPerNode: maxObjectsPerNode,
		log:               nopLogger{},
	}
	o.nodes = append(o.nodes, newNode(bounds))
	o.rootIndex = 0
	return o
}

// SetLogger installs a logger for diagnostic warnings (e.g. out-of-bounds
// inserts). Safe to call at any time.
func (o *SparseOctree[T]) SetLogger(l Logger) {
	if l == nil {
		l = nopLogger{}
	}
	o.mu.Lock()
	o.log = l
	o.mu.Unlock()
}

// Insert adds an object with the given bounds. If bounds is not contained by
// the root, the insert fails silently and is logged (spec §4.C).
func (o *SparseOctree[T]) Insert(bounds AABB, data T) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.nodes[o.rootIndex].bounds.Contains(bounds) {
		o.log.Warnf("spatial: object bounds outside octree root bounds")
		return
	}
	o.insertInternal(o.rootIndex, bounds, data, 0)
}

func (o *SparseOctree[T]) insertInternal(nodeIdx int32, bounds AABB, data T, depth int) {
	n := &o.nodes[nodeIdx]

	if depth >= o.maxDepth || o.straddles(n.bounds, bounds) {
		n.objectIndices = append(n.objectIndices, o.addObject(bounds, data))
		o.maybeSplit(nodeIdx, depth)
		return
	}

	center := n.bounds.Center()
	childIdx := childOctant(center, bounds.Center())

	if n.childIndices[childIdx] == -1 {
		o.createChild(nodeIdx, childIdx)
	}
	child := o.nodes[nodeIdx].childIndices[childIdx]
	o.insertInternal(child, bounds, data, depth+1)
}

// maybeSplit redistributes a leaf's objects into freshly created children
// once its object count exceeds the configured threshold, leaving any
// object that straddles the split plane in place (spec §4.C).
func (o *SparseOctree[T]) maybeSplit(nodeIdx int32, depth int) {
	n := &o.nodes[nodeIdx]
	if !n.isLeaf() || len(n.objectIndices) <= o.maxObjectsPerNode || depth >= o.maxDepth {
		return
	}

	toRedistribute := n.objectIndices
	n.objectIndices = nil
	bounds := n.bounds
	center := bounds.Center()

	for _, objIdx := range toRedistribute {
		obj := o.objects[objIdx]
		if o.straddles(bounds, obj.bounds) {
			o.nodes[nodeIdx].objectIndices = append(o.nodes[nodeIdx].objectIndices, objIdx)
			continue
		}
		childIdx := childOctant(center, obj.bounds.Center())
		if o.nodes[nodeIdx].childIndices[childIdx] == -1 {
			o.createChild(nodeIdx, childIdx)
		}
		child := o.nodes[nodeIdx].childIndices[childIdx]
		o.nodes[child].objectIndices = append(o.nodes[child].objectIndices, objIdx)
	}
}

// straddles reports whether bounds crosses nodeBounds' center plane along
// any axis, meaning it cannot fit entirely within a single child octant.
func (o *SparseOctree[T]) straddles(nodeBounds, bounds AABB) bool {
	c := nodeBounds.Center()
	for axis := 0; axis < 3; axis++ {
		if bounds.Min[axis] < c[axis] && bounds.Max[axis] > c[axis] {
			return true
		}
	}
	return false
}

// childOctant determines which of the 8 child octants point belongs to
// relative to center. Bit 0 = +X half, bit 1 = +Y half, bit 2 = +Z half. A
// point exactly on the split plane is assigned to the + side (spec §4.C
// tie-break rule).
func childOctant(center, point mgl32.Vec3) int {
	idx := 0
	if point[0] >= center[0] {
		idx |= 1
	}
	if point[1] >= center[1] {
		idx |= 2
	}
	if point[2] >= center[2] {
		idx |= 4
	}
	return idx
}

func childBounds(parent AABB, childIdx int) AABB {
	center := parent.Center()
	halfExtents := mgl32.Vec3{
		parent.Extents()[0] / 2,
		parent.Extents()[1] / 2,
		parent.Extents()[2] / 2,
	}
	childCenter := center
	if childIdx&1 != 0 {
		childCenter[0] += halfExtents[0] / 2
	} else {
		childCenter[0] -= halfExtents[0] / 2
	}
	if childIdx&2 != 0 {
		childCenter[1] += halfExtents[1] / 2
	} else {
		childCenter[1] -= halfExtents[1] / 2
	}
	if childIdx&4 != 0 {
		childCenter[2] += halfExtents[2] / 2
	} else {
		childCenter[2] -= halfExtents[2] / 2
	}
	quarter := mgl32.Vec3{halfExtents[0] / 2, halfExtents[1] / 2, halfExtents[2] / 2}
	return AABB{
		Min: mgl32.Vec3{childCenter[0] - quarter[0], childCenter[1] - quarter[1], childCenter[2] - quarter[2]},
		Max: mgl32.Vec3{childCenter[0] + quarter[0], childCenter[1] + quarter[1], childCenter[2] + quarter[2]},
	}
}

func (o *SparseOctree[T]) createChild(nodeIdx int32, childIdx int) {
	bounds := childBounds(o.nodes[nodeIdx].bounds, childIdx)
	o.nodes = append(o.nodes, newNode(bounds))
	newIdx := int32(len(o.nodes) - 1)
	o.nodes[nodeIdx].childIndices[childIdx] = newIdx
}

func (o *SparseOctree[T]) addObject(bounds AABB, data T) uint32 {
	o.objects = append(o.objects, object[T]{bounds: bounds, data: data})
	return uint32(len(o.objects) - 1)
}

// Remove deletes the first object whose data equals data, searching from the
// root down through every node whose bounds intersect bounds (an object's
// own bounds are not compared). Returns whether anything was removed.
func (o *SparseOctree[T]) Remove(bounds AABB, data T) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	if !o.nodes[o.rootIndex].bounds.Intersects(bounds) {
		return false
	}
	return o.removeInternal(o.rootIndex, bounds, data)
}

func (o *SparseOctree[T]) removeInternal(nodeIdx int32, bounds AABB, data T) bool {
	n := &o.nodes[nodeIdx]

	for i, objIdx := range n.objectIndices {
		if o.objects[objIdx].data == data {
			n.objectIndices = append(n.objectIndices[:i], n.objectIndices[i+1:]...)
			return true
		}
	}

	if n.isLeaf() {
		return false
	}

	for _, childIdx := range n.childIndices {
		if childIdx == -1 {
			continue
		}
		if o.nodes[childIdx].bounds.Intersects(bounds) {
			if o.removeInternal(childIdx, bounds, data) {
				return true
			}
		}
	}
	return false
}

// Update removes the object at oldBounds and reinserts it at newBounds.
// Returns whether the object was found and moved.
func (o *SparseOctree[T]) Update(oldBounds, newBounds AABB, data T) bool {
	if !o.Remove(oldBounds, data) {
		return false
	}
	o.Insert(newBounds, data)
	return true
}

// QueryRegion returns every (bounds, data) pair whose bounds intersects
// region.
func (o *SparseOctree[T]) QueryRegion(region AABB) []Pair[T] {
	o.mu.Lock()
	defer o.mu.Unlock()

	var result []Pair[T]
	if !o.nodes[o.rootIndex].bounds.Intersects(region) {
		return result
	}
	o.queryRegionInternal(o.rootIndex, region, &result)
	return result
}

func (o *SparseOctree[T]) queryRegionInternal(nodeIdx int32, region AABB, result *[]Pair[T]) {
	n := &o.nodes[nodeIdx]
	for _, objIdx := range n.objectIndices {
		obj := o.objects[objIdx]
		if obj.bounds.Intersects(region) {
			*result = append(*result, Pair[T]{Bounds: obj.bounds, Data: obj.data})
		}
	}
	if n.isLeaf() {
		return
	}
	for _, childIdx := range n.childIndices {
		if childIdx == -1 {
			continue
		}
		if o.nodes[childIdx].bounds.Intersects(region) {
			o.queryRegionInternal(childIdx, region, result)
		}
	}
}

// QueryRay returns every (bounds, data) pair whose bounds intersects the ray
// within [0, maxDistance].
func (o *SparseOctree[T]) QueryRay(origin, dir mgl32.Vec3, maxDistance float32) []Pair[T] {
	o.mu.Lock()
	defer o.mu.Unlock()

	var result []Pair[T]
	if t, hit := o.nodes[o.rootIndex].bounds.IntersectsRay(origin, dir); !hit || t > maxDistance {
		return result
	}
	o.queryRayInternal(o.rootIndex, origin, dir, maxDistance, &result)
	return result
}

type childDist struct {
	index    int32
	distance float32
}

func (o *SparseOctree[T]) queryRayInternal(nodeIdx int32, origin, dir mgl32.Vec3, maxDistance float32, result *[]Pair[T]) {
	n := &o.nodes[nodeIdx]
	for _, objIdx := range n.objectIndices {
		obj := o.objects[objIdx]
		if t, hit := obj.bounds.IntersectsRay(origin, dir); hit && t <= maxDistance {
			*result = append(*result, Pair[T]{Bounds: obj.bounds, Data: obj.data})
		}
	}
	if n.isLeaf() {
		return
	}

	// Fixed-size-8 local array, insertion-sorted near-to-far, to avoid a
	// heap allocation for the common (few-children) case (spec §4.C).
	var dists [childCount]childDist
	count := 0
	for _, childIdx := range n.childIndices {
		if childIdx == -1 {
			continue
		}
		t, hit := o.nodes[childIdx].bounds.IntersectsRay(origin, dir)
		if !hit || t > maxDistance {
			continue
		}
		cd := childDist{index: childIdx, distance: t}
		pos := count
		for pos > 0 && dists[pos-1].distance > cd.distance {
			dists[pos] = dists[pos-1]
			pos--
		}
		dists[pos] = cd
		count++
	}

	for i := 0; i < count; i++ {
		o.queryRayInternal(dists[i].index, origin, dir, maxDistance, result)
	}
}

// Clear resets the octree to a single empty root with the same bounds.
func (o *SparseOctree[T]) Clear() {
	o.mu.Lock()
	defer o.mu.Unlock()
	root := o.nodes[o.rootIndex].bounds
	o.nodes = []node{newNode(root)}
	o.objects = nil
	o.rootIndex = 0
}
