package blockmodel

import "sync"

// TextureAtlas assigns a dense, stable layer index to each distinct texture
// path referenced by block models. A mutex guards its maps, so registration
// and lookups are safe from any goroutine; after startup it is only read.
// Packing the referenced images into an actual GPU array texture
// is a renderer concern outside this module's boundary (spec §1); the atlas
// here only owns the name-to-layer-index contract the mesher depends on.
type TextureAtlas struct {
	mu      sync.Mutex
	index   map[string]int32
	ordered []string
}

// NewTextureAtlas creates an empty atlas.
func NewTextureAtlas() *TextureAtlas {
	return &TextureAtlas{index: make(map[string]int32)}
}

// Register assigns name a layer index if it doesn't already have one, and
// returns its index either way.
func (a *TextureAtlas) Register(name string) int32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if idx, ok := a.index[name]; ok {
		return idx
	}
	idx := int32(len(a.ordered))
	a.index[name] = idx
	a.ordered = append(a.ordered, name)
	return idx
}

// Index returns name's layer index, or -1 if it was never registered.
func (a *TextureAtlas) Index(name string) int32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	if idx, ok := a.index[name]; ok {
		return idx
	}
	return -1
}

// Names returns the registered texture paths in index order.
func (a *TextureAtlas) Names() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.ordered))
	copy(out, a.ordered)
	return out
}

// Len returns the number of registered textures.
func (a *TextureAtlas) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.ordered)
}
