package systems

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/spaghettifunk/anima2d/engine/core"
	"github.com/spaghettifunk/anima2d/engine/renderer"
	"github.com/spaghettifunk/anima2d/engine/resources"
)

const (
	DEFAULT_TEXTURE_NAME string = "default"
	// Side of the generated default checkerboard, in pixels.
	defaultTextureDimension = 64
	defaultTextureCell      = 8
)

// TextureCreator uploads RGBA8 pixels to the device.
type TextureCreator interface {
	CreateTexture(width, height int, pixels []uint8) (renderer.TextureHandle, error)
}

// AssetLoader is the part of the asset manager the systems load through.
type AssetLoader interface {
	LoadAsset(name string, resourceType resources.ResourceType, params interface{}) (*resources.Resource, error)
}

/**
 * @brief A texture registered in the texture system.
 */
type Texture struct {
	/** @brief Unique across the lifetime of the process. */
	ID uuid.UUID
	/** @brief The asset name, relative to the assets directory. */
	Name string
	/** @brief The device texture. */
	Handle renderer.TextureHandle
	/** @brief How many acquisitions are still outstanding. */
	ReferenceCount uint32
	/** @brief Destroy the texture when the count drops to zero. */
	AutoRelease bool
}

func (t *Texture) Width() int  { return t.Handle.Width() }
func (t *Texture) Height() int { return t.Handle.Height() }
func (t *Texture) Bind()       { t.Handle.Bind() }

type TextureSystemConfig struct {
	/** @brief The maximum number of textures that can be loaded at once. */
	MaxTextureCount uint32
}

type TextureSystem struct {
	Config         *TextureSystemConfig
	DefaultTexture *Texture
	// Hashtable for texture lookups.
	RegisteredTextureTable map[string]*Texture
	// sub systems
	assetManager AssetLoader
	device       TextureCreator
}

func NewTextureSystem(config *TextureSystemConfig, am AssetLoader, device TextureCreator) (*TextureSystem, error) {
	if config.MaxTextureCount == 0 {
		err := fmt.Errorf("func NewTextureSystem - config.MaxTextureCount must be > 0")
		core.LogError(err.Error())
		return nil, err
	}
	return &TextureSystem{
		Config:                 config,
		RegisteredTextureTable: make(map[string]*Texture),
		assetManager:           am,
		device:                 device,
	}, nil
}

// Initialize creates the default texture, a blue and white checkerboard
// generated in code so it never depends on an asset.
func (ts *TextureSystem) Initialize() error {
	handle, err := ts.device.CreateTexture(defaultTextureDimension, defaultTextureDimension, checkerboard(defaultTextureDimension, defaultTextureCell))
	if err != nil {
		return fmt.Errorf("failed to create the default texture: %w", err)
	}
	ts.DefaultTexture = &Texture{
		ID:     uuid.New(),
		Name:   DEFAULT_TEXTURE_NAME,
		Handle: handle,
	}
	return nil
}

func (ts *TextureSystem) Shutdown() error {
	// Destroy all loaded textures.
	for name, t := range ts.RegisteredTextureTable {
		t.Handle.Delete()
		delete(ts.RegisteredTextureTable, name)
	}
	if ts.DefaultTexture != nil {
		ts.DefaultTexture.Handle.Delete()
		ts.DefaultTexture = nil
	}
	return nil
}

func (ts *TextureSystem) GetDefaultTexture() *Texture {
	return ts.DefaultTexture
}

// Acquire returns the texture loaded from the named image asset, loading it
// on first use. Every Acquire must be paired with a Release.
func (ts *TextureSystem) Acquire(name string, autoRelease bool) (*Texture, error) {
	if name == DEFAULT_TEXTURE_NAME {
		core.LogWarn("func texture system Acquire called for default texture. Use GetDefaultTexture for texture 'default'")
		return ts.DefaultTexture, nil
	}

	if t, ok := ts.RegisteredTextureTable[name]; ok {
		t.ReferenceCount++
		return t, nil
	}

	if uint32(len(ts.RegisteredTextureTable)) >= ts.Config.MaxTextureCount {
		err := fmt.Errorf("func texture system Acquire - no room for '%s', %d textures already loaded", name, ts.Config.MaxTextureCount)
		core.LogError(err.Error())
		return nil, err
	}

	handle, err := ts.loadTexture(name)
	if err != nil {
		core.LogError("failed to load texture '%s': %s", name, err)
		return nil, err
	}

	t := &Texture{
		ID:             uuid.New(),
		Name:           name,
		Handle:         handle,
		ReferenceCount: 1,
		AutoRelease:    autoRelease,
	}
	ts.RegisteredTextureTable[name] = t
	core.LogDebug("texture '%s' loaded as %s (%dx%d)", name, t.ID, t.Width(), t.Height())
	return t, nil
}

// Release drops one reference, destroying auto-release textures that are
// no longer referenced.
func (ts *TextureSystem) Release(name string) {
	// Ignore release requests for the default texture.
	if name == DEFAULT_TEXTURE_NAME {
		return
	}
	t, ok := ts.RegisteredTextureTable[name]
	if !ok || t.ReferenceCount == 0 {
		core.LogWarn("tried to release non-existent texture: '%s'", name)
		return
	}
	t.ReferenceCount--
	if t.ReferenceCount == 0 && t.AutoRelease {
		t.Handle.Delete()
		delete(ts.RegisteredTextureTable, name)
		core.LogDebug("texture '%s' released and unloaded", name)
	}
}

func (ts *TextureSystem) loadTexture(name string) (renderer.TextureHandle, error) {
	res, err := ts.assetManager.LoadAsset(name, resources.ResourceTypeImage, &resources.ImageResourceParams{FlipY: true})
	if err != nil {
		return nil, err
	}
	image, ok := res.Data.(*resources.ImageResourceData)
	if !ok {
		return nil, fmt.Errorf("asset '%s' did not decode to an image", name)
	}
	return ts.device.CreateTexture(int(image.Width), int(image.Height), image.Pixels)
}

func checkerboard(dimension, cell int) []uint8 {
	pixels := make([]uint8, dimension*dimension*4)
	for row := 0; row < dimension; row++ {
		for col := 0; col < dimension; col++ {
			i := (row*dimension + col) * 4
			pixels[i+0], pixels[i+1], pixels[i+2], pixels[i+3] = 255, 255, 255, 255
			if (row/cell+col/cell)%2 != 0 {
				pixels[i+0] = 0
				pixels[i+1] = 0
			}
		}
	}
	return pixels
}
