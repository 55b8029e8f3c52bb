package engine

import (
	"github.com/go-gl/mathgl/mgl32"

	"voxelcore/internal/block"
	"voxelcore/internal/uploader"
	"voxelcore/internal/voxel"
)

// faceRotations gives the fixed orientation of each cube face relative to a
// north-facing (+Z) canonical quad, the same composition of two
// around-an-axis rotations the asset importers in the pack build gizmo/voxel
// rotations from.
var faceRotations = [6]mgl32.Quat{
	block.FaceEast:  mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{0, 1, 0}),
	block.FaceWest:  mgl32.QuatRotate(mgl32.DegToRad(-90), mgl32.Vec3{0, 1, 0}),
	block.FaceUp:    mgl32.QuatRotate(mgl32.DegToRad(-90), mgl32.Vec3{1, 0, 0}),
	block.FaceDown:  mgl32.QuatRotate(mgl32.DegToRad(90), mgl32.Vec3{1, 0, 0}),
	block.FaceNorth: mgl32.QuatIdent(),
	block.FaceSouth: mgl32.QuatRotate(mgl32.DegToRad(180), mgl32.Vec3{0, 1, 0}),
}

// normalToFace maps a quad's winding-derived normal back to the face it was
// emitted for. The six entries are the only unit vectors cornerRule's
// winding order ever produces, so this is an exhaustive table rather than an
// approximation.
var normalToFace = map[[3]int]block.Face{
	{-1, 0, 0}: block.FaceEast,
	{1, 0, 0}:  block.FaceWest,
	{0, -1, 0}: block.FaceUp,
	{0, 1, 0}:  block.FaceDown,
	{0, 0, -1}: block.FaceNorth,
	{0, 0, 1}:  block.FaceSouth,
}

// quadsToFaceInstances repacks a render layer's vertex/index stream into
// instanced per-face records for AsyncUploader.
//
// ChunkManager.AggregateLayer (by way of mesher.stream.appendQuad) always
// emits vertices as a flat concatenation of 4-vertex quads, each group's
// winding matching mesher's cornerRule exactly. That makes the grouping
// here a safe structural assumption rather than a general mesh
// decomposition: vertices[4*i:4*i+4] is always one quad, for every producer
// in this codebase. indices is not consulted; it's redundant for quads in
// this fixed layout and exists for a conventional triangle-list consumer.
func quadsToFaceInstances(vertices []voxel.Vertex) []uploader.FaceInstance {
	if len(vertices)%4 != 0 {
		vertices = vertices[:len(vertices)-len(vertices)%4]
	}
	instances := make([]uploader.FaceInstance, 0, len(vertices)/4)
	for i := 0; i+4 <= len(vertices); i += 4 {
		quad := vertices[i : i+4]
		instances = append(instances, quadToFaceInstance(quad))
	}
	return instances
}

func quadToFaceInstance(quad []voxel.Vertex) uploader.FaceInstance {
	v0 := toVec3(quad[0].Position)
	tangent := toVec3(quad[1].Position).Sub(v0)
	bitangent := toVec3(quad[3].Position).Sub(v0)

	width := tangent.Len()
	height := bitangent.Len()

	centroid := mgl32.Vec3{}
	for _, v := range quad {
		centroid = centroid.Add(toVec3(v.Position))
	}
	centroid = centroid.Mul(0.25)

	normal := tangent.Normalize().Cross(bitangent.Normalize())
	face := faceFromNormal(normal)

	minU, minV := quad[0].UV[0], quad[0].UV[1]
	maxU, maxV := minU, minV
	for _, v := range quad[1:] {
		if v.UV[0] < minU {
			minU = v.UV[0]
		}
		if v.UV[0] > maxU {
			maxU = v.UV[0]
		}
		if v.UV[1] < minV {
			minV = v.UV[1]
		}
		if v.UV[1] > maxV {
			maxV = v.UV[1]
		}
	}

	return uploader.FaceInstance{
		Position:      centroid,
		Rotation:      faceRotations[face],
		Scale:         mgl32.Vec3{width, height, 0},
		FaceDirection: uint32(face),
		UV:            [4]float32{minU, minV, maxU, maxV},
		TextureLayer:  uint32(quad[0].TextureIndex),
	}
}

// faceFromNormal rounds a near-unit-axis normal to its signed integer form
// and resolves it through normalToFace. Falls back to FaceNorth (identity
// rotation) for a degenerate quad, which should never occur for geometry
// produced by this codebase's mesher.
func faceFromNormal(n mgl32.Vec3) block.Face {
	key := [3]int{roundAxis(n[0]), roundAxis(n[1]), roundAxis(n[2])}
	if f, ok := normalToFace[key]; ok {
		return f
	}
	return block.FaceNorth
}

func roundAxis(v float32) int {
	switch {
	case v > 0.5:
		return 1
	case v < -0.5:
		return -1
	default:
		return 0
	}
}

func toVec3(p [3]float32) mgl32.Vec3 {
	return mgl32.Vec3{p[0], p[1], p[2]}
}
