package blockmodel

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeModel(t *testing.T, root, relPath string, m Model) {
	t.Helper()
	full := filepath.Join(root, "models", relPath+".json")
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0o755))
	data, err := json.Marshal(m)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(full, data, 0o644))
}

func fullCubeModel(texture string) Model {
	return Model{
		Textures: map[string]string{"all": texture},
		Elements: []Element{
			{
				From: [3]float32{0, 0, 0},
				To:   [3]float32{1, 1, 1},
				Faces: map[string]Face{
					"north": {Texture: "#all", UV: [4]float32{0, 0, 16, 16}},
					"south": {Texture: "#all", UV: [4]float32{0, 0, 16, 16}},
					"east":  {Texture: "#all", UV: [4]float32{0, 0, 16, 16}},
					"west":  {Texture: "#all", UV: [4]float32{0, 0, 16, 16}},
					"up":    {Texture: "#all", UV: [4]float32{0, 0, 16, 16}},
					"down":  {Texture: "#all", UV: [4]float32{0, 0, 16, 16}},
				},
			},
		},
	}
}

func TestLoadModelResolvesParentAndTextures(t *testing.T) {
	root := t.TempDir()
	writeModel(t, root, "block/cube_parent", fullCubeModel("stone_tex"))

	child := Model{Parent: "block/cube_parent"}
	writeModel(t, root, "block/stone", child)

	l := NewLoader(root)
	m, err := l.LoadModel("stone")
	require.NoError(t, err)
	require.Len(t, m.Elements, 1)
	require.Equal(t, "stone_tex", m.Elements[0].Faces["north"].Texture)
}

func TestIsFullFace(t *testing.T) {
	fullElem := Element{From: [3]float32{0, 0, 0}, To: [3]float32{1, 1, 1}}
	if !fullElem.IsFullFace("north", 0.01) {
		t.Fatalf("expected full cube's north face to be full-face")
	}

	slab := Element{From: [3]float32{0, 0, 0}, To: [3]float32{1, 0.5, 1}}
	if !slab.IsFullFace("up", 0.01) {
		t.Fatalf("expected slab's top face (spans full X/Z) to be full-face")
	}
	if slab.IsFullFace("east", 0.01) {
		t.Fatalf("expected slab's east face (half height) to NOT be full-face")
	}
}

func TestLoadVariantBakesRotation(t *testing.T) {
	root := t.TempDir()
	writeModel(t, root, "block/log", fullCubeModel("log_tex"))

	l := NewLoader(root)
	m, err := l.LoadVariant(VariantKey{BasePath: "log", RotX: 90, RotY: 0})
	require.NoError(t, err)

	// A 90-degree X rotation should move the "up" face to "north".
	_, hasNorthAsUp := m.Elements[0].Faces["north"]
	require.True(t, hasNorthAsUp)
}

func TestLoadVariantMirrorFallsBackToImplicitFlip(t *testing.T) {
	root := t.TempDir()
	writeModel(t, root, "block/stairs", fullCubeModel("stairs_tex"))

	l := NewLoader(root)
	m, err := l.LoadVariant(VariantKey{BasePath: "stairs", Mirrored: true})
	require.NoError(t, err)

	face := m.Elements[0].Faces["north"]
	require.Equal(t, [4]float32{16, 0, 0, 16}, face.UV)
}

func TestLoadVariantMirrorPrefersExplicitFile(t *testing.T) {
	root := t.TempDir()
	writeModel(t, root, "block/stairs", fullCubeModel("stairs_tex"))
	explicitMirrored := fullCubeModel("stairs_tex_explicit")
	writeModel(t, root, "block/stairs_mirrored", explicitMirrored)

	l := NewLoader(root)
	m, err := l.LoadVariant(VariantKey{BasePath: "stairs", Mirrored: true})
	require.NoError(t, err)

	require.Equal(t, "stairs_tex_explicit", m.Elements[0].Faces["north"].Texture)
	require.Equal(t, [4]float32{0, 0, 16, 16}, m.Elements[0].Faces["north"].UV)
}

func TestVariantCacheReturnsSameInstance(t *testing.T) {
	root := t.TempDir()
	writeModel(t, root, "block/cube", fullCubeModel("tex"))

	l := NewLoader(root)
	key := VariantKey{BasePath: "cube"}
	m1, err := l.LoadVariant(key)
	require.NoError(t, err)
	m2, err := l.LoadVariant(key)
	require.NoError(t, err)
	require.Same(t, m1, m2)
}
