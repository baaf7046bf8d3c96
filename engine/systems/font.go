package systems

import (
	"fmt"
	"path"

	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/renderer/text"
	"github.com/spaghettifunk/anima2d/engine/resources"
)

type BitmapFontLookup struct {
	ReferenceCount uint16
	Font           *text.Font
	// Texture holding page 0 of the font.
	Atlas *Texture
}

type FontSystemConfig struct {
	MaxBitmapFontCount uint8
}

type FontSystem struct {
	Config      *FontSystemConfig
	BitmapFonts map[string]*BitmapFontLookup
	// subsystems
	textureSystem *TextureSystem
	assetManager  AssetLoader
}

func NewFontSystem(config *FontSystemConfig, ts *TextureSystem, am AssetLoader) (*FontSystem, error) {
	if config.MaxBitmapFontCount == 0 {
		return nil, fmt.Errorf("func NewFontSystem - config.MaxBitmapFontCount must be > 0")
	}
	return &FontSystem{
		Config:        config,
		BitmapFonts:   make(map[string]*BitmapFontLookup),
		textureSystem: ts,
		assetManager:  am,
	}, nil
}

// Acquire returns the bitmap font described by the named .fnt asset. Its
// first page is loaded from the same directory through the texture system.
func (fs *FontSystem) Acquire(name string) (*text.Font, error) {
	if lookup, ok := fs.BitmapFonts[name]; ok {
		lookup.ReferenceCount++
		return lookup.Font, nil
	}
	if len(fs.BitmapFonts) >= int(fs.Config.MaxBitmapFontCount) {
		return nil, fmt.Errorf("no room for bitmap font '%s', %d already loaded", name, fs.Config.MaxBitmapFontCount)
	}

	res, err := fs.assetManager.LoadAsset(name, resources.ResourceTypeBitmapFont, nil)
	if err != nil {
		return nil, err
	}
	data, ok := res.Data.(*resources.BitmapFontResourceData)
	if !ok {
		return nil, fmt.Errorf("asset '%s' is not a bitmap font", name)
	}
	if len(data.Pages) == 0 {
		return nil, fmt.Errorf("bitmap font '%s' has no pages", name)
	}
	if len(data.Pages) > 1 {
		core.LogWarn("bitmap font '%s' has %d pages, only the first one is used", name, len(data.Pages))
	}

	atlasName := path.Join(path.Dir(name), data.Pages[0].File)
	atlas, err := fs.textureSystem.Acquire(atlasName, true)
	if err != nil {
		return nil, err
	}

	font, err := text.FromResource(data.Data, atlas)
	if err != nil {
		fs.textureSystem.Release(atlasName)
		return nil, err
	}
	fs.BitmapFonts[name] = &BitmapFontLookup{
		ReferenceCount: 1,
		Font:           font,
		Atlas:          atlas,
	}
	core.LogDebug("bitmap font '%s' (%s %dpx) loaded", name, font.Face, int(font.Size))
	return font, nil
}

// Atlas returns the page texture of a loaded font, for binding before drawing.
func (fs *FontSystem) Atlas(name string) (*Texture, bool) {
	lookup, ok := fs.BitmapFonts[name]
	if !ok {
		return nil, false
	}
	return lookup.Atlas, true
}

func (fs *FontSystem) Release(name string) {
	lookup, ok := fs.BitmapFonts[name]
	if !ok {
		core.LogWarn("tried to release non-existent bitmap font: '%s'", name)
		return
	}
	lookup.ReferenceCount--
	if lookup.ReferenceCount == 0 {
		fs.textureSystem.Release(lookup.Atlas.Name)
		delete(fs.BitmapFonts, name)
	}
}

func (fs *FontSystem) Shutdown() error {
	for name, lookup := range fs.BitmapFonts {
		fs.textureSystem.Release(lookup.Atlas.Name)
		delete(fs.BitmapFonts, name)
	}
	return nil
}
