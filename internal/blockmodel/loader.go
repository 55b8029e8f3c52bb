package blockmodel

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Loader reads block model JSON files from an assets directory and bakes
// rotated/mirrored variants on demand, caching both the raw per-file models
// and the baked per-VariantKey results.
type Loader struct {
	assetsPath string

	mu         sync.Mutex
	modelCache map[string]*Model
	variantCache map[VariantKey]*Model
}

// NewLoader creates a Loader rooted at assetsPath (expects
// assetsPath/models/*.json and assetsPath/blockstates/*.json).
func NewLoader(assetsPath string) *Loader {
	return &Loader{
		assetsPath:   assetsPath,
		modelCache:   make(map[string]*Model),
		variantCache: make(map[VariantKey]*Model),
	}
}

// LoadModel loads and parent-resolves the named model (e.g. "block/stone" or
// bare "stone", which is treated as "block/stone").
func (l *Loader) LoadModel(name string) (*Model, error) {
	if !strings.Contains(name, "/") {
		name = "block/" + name
	}

	l.mu.Lock()
	if m, ok := l.modelCache[name]; ok {
		l.mu.Unlock()
		return m, nil
	}
	l.mu.Unlock()

	model, err := l.readModel(name)
	if err != nil {
		return nil, err
	}

	if model.Parent != "" && !strings.HasPrefix(model.Parent, "builtin/") {
		parent, err := l.LoadModel(model.Parent)
		if err != nil {
			return nil, fmt.Errorf("could not load parent model %q: %w", model.Parent, err)
		}
		mergeParent(model, parent)
	}

	l.resolveTextures(model)

	l.mu.Lock()
	l.modelCache[name] = model
	l.mu.Unlock()
	return model, nil
}

func (l *Loader) readModel(name string) (*Model, error) {
	path := filepath.Join(l.assetsPath, "models", name+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read model file: %w", err)
	}
	var model Model
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, fmt.Errorf("could not unmarshal model json %q: %w", name, err)
	}
	return &model, nil
}

// modelFileExists reports whether the named model's backing JSON file is
// present, without loading or caching it.
func (l *Loader) modelFileExists(name string) bool {
	path := filepath.Join(l.assetsPath, "models", name+".json")
	_, err := os.Stat(path)
	return err == nil
}

func mergeParent(model, parent *Model) {
	if model.AmbientOcclusion == nil {
		model.AmbientOcclusion = parent.AmbientOcclusion
	}
	if len(model.Elements) == 0 {
		model.Elements = make([]Element, len(parent.Elements))
		for i, pe := range parent.Elements {
			ne := pe
			ne.Faces = make(map[string]Face, len(pe.Faces))
			for dir, f := range pe.Faces {
				ne.Faces[dir] = f
			}
			model.Elements[i] = ne
		}
	}
	if model.Textures == nil {
		model.Textures = make(map[string]string)
	}
	for k, v := range parent.Textures {
		if _, ok := model.Textures[k]; !ok {
			model.Textures[k] = v
		}
	}
	if len(model.Display) == 0 && len(parent.Display) > 0 {
		model.Display = make(map[string]Display)
		for k, v := range parent.Display {
			model.Display[k] = v
		}
	}
}

func (l *Loader) resolveTextures(m *Model) {
	for i := range m.Elements {
		for faceName, face := range m.Elements[i].Faces {
			resolved := l.ResolveTexture(face.Texture, m)
			if resolved != face.Texture {
				face.Texture = resolved
				m.Elements[i].Faces[faceName] = face
			}
		}
	}
}

// ResolveTexture follows up to 10 levels of "#variable" texture indirection.
func (l *Loader) ResolveTexture(textureName string, m *Model) string {
	for i := 0; i < 10 && strings.HasPrefix(textureName, "#"); i++ {
		key := strings.TrimPrefix(textureName, "#")
		resolved, ok := m.Textures[key]
		if !ok {
			break
		}
		textureName = resolved
	}
	return textureName
}

// LoadBlockState loads a blockstate JSON file describing variant -> model
// mappings.
func (l *Loader) LoadBlockState(name string) (*BlockState, error) {
	path := filepath.Join(l.assetsPath, "blockstates", name+".json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read blockstate file: %w", err)
	}
	var bs BlockState
	if err := json.Unmarshal(data, &bs); err != nil {
		return nil, fmt.Errorf("could not unmarshal blockstate json: %w", err)
	}
	return &bs, nil
}

// LoadVariant bakes (and caches) the model for the given VariantKey, applying
// rotation and mirroring to the base model's faces.
//
// Mirroring follows spec §9's resolved Open Question: if an explicit
// "<base_path>_mirrored" model file exists, it is loaded as-is in preference
// to any baked mirroring; only when that file is absent does key.Mirrored
// flip UVs on the base model.
func (l *Loader) LoadVariant(key VariantKey) (*Model, error) {
	l.mu.Lock()
	if m, ok := l.variantCache[key]; ok {
		l.mu.Unlock()
		return m, nil
	}
	l.mu.Unlock()

	var base *Model
	var err error

	if key.Mirrored {
		mirroredName := key.BasePath + "_mirrored"
		if !strings.Contains(mirroredName, "/") {
			mirroredName = "block/" + mirroredName
		}
		if l.modelFileExists(mirroredName) {
			base, err = l.LoadModel(mirroredName)
			if err != nil {
				return nil, err
			}
			baked := bakeRotation(base, key.RotX, key.RotY, key.UVLock)
			l.mu.Lock()
			l.variantCache[key] = baked
			l.mu.Unlock()
			return baked, nil
		}
	}

	base, err = l.LoadModel(key.BasePath)
	if err != nil {
		return nil, err
	}

	baked := base
	if key.Mirrored {
		baked = mirrorModel(baked)
	}
	baked = bakeRotation(baked, key.RotX, key.RotY, key.UVLock)

	l.mu.Lock()
	l.variantCache[key] = baked
	l.mu.Unlock()
	return baked, nil
}

// mirrorModel returns a copy of m with every face's U coordinates flipped
// (the implicit-mirror fallback, spec §9).
func mirrorModel(m *Model) *Model {
	out := *m
	out.Elements = make([]Element, len(m.Elements))
	for i, e := range m.Elements {
		ne := e
		ne.Faces = make(map[string]Face, len(e.Faces))
		for dir, f := range e.Faces {
			mf := f
			mf.UV = [4]float32{f.UV[2], f.UV[1], f.UV[0], f.UV[3]}
			ne.Faces[dir] = mf
		}
		out.Elements[i] = ne
	}
	return &out
}

// faceYawStep maps each face direction to the direction it rotates into
// under a single 90-degree step around the vertical (Y) axis.
var faceYawStep = map[string]string{
	"north": "east", "east": "south", "south": "west", "west": "north",
	"up": "up", "down": "down",
}

// facePitchStep maps each face direction to the direction it rotates into
// under a single 90-degree step around the horizontal (X) axis.
var facePitchStep = map[string]string{
	"up": "north", "north": "down", "down": "south", "south": "up",
	"east": "east", "west": "west",
}

// bakeRotation returns a copy of m with its element face maps remapped for
// rotX/rotY degrees (must be multiples of 90, as spec §4.D's blockstate
// variants always are). uvlock is accepted for parity with the blockstate
// schema and ignored: face UVs are kept as authored under every rotation,
// and the mesher emits them unchanged.
func bakeRotation(m *Model, rotX, rotY int, uvlock bool) *Model {
	_ = uvlock
	if rotX == 0 && rotY == 0 {
		return m
	}
	stepsY := (rotY / 90) % 4
	if stepsY < 0 {
		stepsY += 4
	}
	stepsX := (rotX / 90) % 4
	if stepsX < 0 {
		stepsX += 4
	}

	out := *m
	out.Elements = make([]Element, len(m.Elements))
	for i, e := range m.Elements {
		ne := e
		ne.Faces = make(map[string]Face, len(e.Faces))
		for dir, f := range e.Faces {
			d := dir
			for s := 0; s < stepsX; s++ {
				d = facePitchStep[d]
			}
			for s := 0; s < stepsY; s++ {
				d = faceYawStep[d]
			}
			ne.Faces[d] = f
		}
		out.Elements[i] = ne
	}
	return &out
}
