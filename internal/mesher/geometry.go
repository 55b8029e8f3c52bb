package mesher

import (
	"voxelcore/internal/block"
	"voxelcore/internal/blockmodel"
	"voxelcore/internal/voxel"
)

// cornerRule returns the four (localX, localY, localZ) corners of faceName
// within an element spanning [from,to], in fixed CCW-from-outside winding
// (spec §4.D): the two axes perpendicular to the face's normal are walked in
// a cyclic (X,Y,Z) order, mirroring the literal +X/-X pattern the spec
// states and extending it the same way to the Y and Z faces.
func cornerRule(faceName string, from, to [3]float32) [4][3]float32 {
	switch faceName {
	case "east": // +X
		return [4][3]float32{
			{to[0], to[1], from[2]},
			{to[0], from[1], from[2]},
			{to[0], from[1], to[2]},
			{to[0], to[1], to[2]},
		}
	case "west": // -X
		return [4][3]float32{
			{from[0], from[1], from[2]},
			{from[0], to[1], from[2]},
			{from[0], to[1], to[2]},
			{from[0], from[1], to[2]},
		}
	case "up": // +Y
		return [4][3]float32{
			{from[0], to[1], to[2]},
			{from[0], to[1], from[2]},
			{to[0], to[1], from[2]},
			{to[0], to[1], to[2]},
		}
	case "down": // -Y
		return [4][3]float32{
			{from[0], from[1], from[2]},
			{from[0], from[1], to[2]},
			{to[0], from[1], to[2]},
			{to[0], from[1], from[2]},
		}
	case "north": // +Z
		return [4][3]float32{
			{to[0], from[1], to[2]},
			{from[0], from[1], to[2]},
			{from[0], to[1], to[2]},
			{to[0], to[1], to[2]},
		}
	case "south": // -Z
		return [4][3]float32{
			{from[0], from[1], from[2]},
			{to[0], from[1], from[2]},
			{to[0], to[1], from[2]},
			{from[0], to[1], from[2]},
		}
	default:
		return [4][3]float32{}
	}
}

// uvCorners maps a Minecraft-style (minU,minV,maxU,maxV) face UV rectangle
// onto the four corners in the same winding order cornerRule produces.
func uvCorners(uv [4]float32) [4][2]float32 {
	minU, minV, maxU, maxV := uv[0], uv[1], uv[2], uv[3]
	return [4][2]float32{
		{maxU, minV},
		{minU, minV},
		{minU, maxV},
		{maxU, maxV},
	}
}

// emitFaceQuads builds one quad per model element that defines faceName,
// positioned at chunk-local (x,y,z) and offset into world space by
// (worldX,worldY,worldZ).
func emitFaceQuads(model *blockmodel.Model, faceName string, x, y, z int, worldX, worldY, worldZ int32, entry block.Entry, atlas *blockmodel.TextureAtlas, renderLayer int32) [][4]voxel.Vertex {
	var quads [][4]voxel.Vertex
	blockOriginX := float32(worldX) + float32(x)
	blockOriginY := float32(worldY) + float32(y)
	blockOriginZ := float32(worldZ) + float32(z)

	for _, el := range model.Elements {
		face, ok := el.Faces[faceName]
		if !ok {
			continue
		}
		corners := cornerRule(faceName, el.From, el.To)
		uvs := uvCorners(face.UV)

		var texIndex int32
		if atlas != nil {
			if idx := atlas.Index(face.Texture); idx >= 0 {
				texIndex = idx
			}
		}

		var quad [4]voxel.Vertex
		for i := 0; i < 4; i++ {
			quad[i] = voxel.Vertex{
				Position: [3]float32{
					blockOriginX + corners[i][0],
					blockOriginY + corners[i][1],
					blockOriginZ + corners[i][2],
				},
				Color:        entry.Tint,
				UV:           uvs[i],
				TextureIndex: texIndex,
				RenderLayer:  renderLayer,
			}
		}
		quads = append(quads, quad)
	}
	return quads
}
