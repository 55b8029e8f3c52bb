package uploader

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// FaceInstanceDataSize is the packed, 16-byte-aligned, little-endian size in
// bytes of a single FaceInstanceData record: four vec4<f32> fields (64
// bytes) plus a texture layer index and its alignment padding (16 bytes).
const FaceInstanceDataSize = 80

// FaceInstance is the host-side record the mesher/chunk manager produce: one
// per rendered quad face.
type FaceInstance struct {
	Position      mgl32.Vec3
	Rotation      mgl32.Quat
	Scale         mgl32.Vec3
	FaceDirection uint32
	UV            [4]float32 // minU, minV, maxU, maxV
	TextureLayer  uint32
}

// FaceInstanceData is the exact GPU-side layout FaceInstance is packed into.
// This is a hard external-interface contract with the shader: field order,
// 16-byte alignment and little-endian byte order must never change.
type FaceInstanceData struct {
	Position     [4]float32 // xyz, w = 1.0
	Rotation     [4]float32 // quaternion xyzw
	Scale        [4]float32 // width, height, depth, face_direction
	UV           [4]float32 // minU, minV, maxU, maxV
	TextureLayer uint32
	_pad         [3]uint32
}

// ToGPU packs a host-side instance into its GPU layout.
func (f FaceInstance) ToGPU() FaceInstanceData {
	return FaceInstanceData{
		Position:     [4]float32{f.Position[0], f.Position[1], f.Position[2], 1.0},
		Rotation:     [4]float32{f.Rotation.V[0], f.Rotation.V[1], f.Rotation.V[2], f.Rotation.W},
		Scale:        [4]float32{f.Scale[0], f.Scale[1], f.Scale[2], float32(f.FaceDirection)},
		UV:           f.UV,
		TextureLayer: f.TextureLayer,
	}
}

// Encode writes the little-endian, 16-byte-aligned packed representation of
// f into dst, which must be at least FaceInstanceDataSize bytes.
func (f FaceInstanceData) Encode(dst []byte) {
	if len(dst) < FaceInstanceDataSize {
		panic("uploader: Encode destination smaller than FaceInstanceDataSize")
	}
	offset := 0
	putVec4 := func(v [4]float32) {
		for _, c := range v {
			binary.LittleEndian.PutUint32(dst[offset:offset+4], math.Float32bits(c))
			offset += 4
		}
	}
	putVec4(f.Position)
	putVec4(f.Rotation)
	putVec4(f.Scale)
	putVec4(f.UV)
	binary.LittleEndian.PutUint32(dst[offset:offset+4], f.TextureLayer)
	offset += 4
	for i := 0; i < 3; i++ {
		binary.LittleEndian.PutUint32(dst[offset:offset+4], 0)
		offset += 4
	}
}
