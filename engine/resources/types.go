package resources

type ResourceType int

/** @brief Pre-defined resource types. */
const (
	/** @brief Files the engine does not know how to load. */
	ResourceTypeNone ResourceType = iota
	/** @brief Plain text, e.g. GLSL sources. */
	ResourceTypeShader
	/** @brief Decoded image, RGBA8. */
	ResourceTypeImage
	/** @brief Bitmap font descriptor (.fnt). */
	ResourceTypeBitmapFont
)

func (rt ResourceType) String() string {
	switch rt {
	case ResourceTypeShader:
		return "shader"
	case ResourceTypeImage:
		return "image"
	case ResourceTypeBitmapFont:
		return "bitmap font"
	default:
		return "none"
	}
}

/**
 * @brief A generic structure for a resource. All resource loaders
 * load data into these.
 */
type Resource struct {
	/** @brief The name of the resource, its path relative to the assets directory. */
	Name string
	/** @brief The full file path of the resource. */
	FullPath string
	/** @brief The resource type. */
	Type ResourceType
	/** @brief The size of the resource data in bytes. */
	DataSize uint64
	/** @brief The resource data. */
	Data interface{}
}

/** @brief Parameters for loading images. */
type ImageResourceParams struct {
	/** @brief Flip the rows so the first one ends up at the bottom. */
	FlipY bool
}

/**
 * @brief Pixel data of a decoded image.
 */
type ImageResourceData struct {
	/** @brief Always 4, the pixels are RGBA8. */
	ChannelCount uint8
	Width        uint32
	Height       uint32
	/** @brief Tightly packed rows. */
	Pixels []uint8
}

type FontGlyph struct {
	Codepoint int32
	X         uint16
	Y         uint16
	Width     uint16
	Height    uint16
	XOffset   int16
	YOffset   int16
	XAdvance  int16
	PageID    uint8
}

type FontKerning struct {
	Codepoint0 int32
	Codepoint1 int32
	Amount     int16
}

type FontData struct {
	Face        string
	Size        uint32
	LineHeight  int32
	Baseline    int32
	AtlasSizeX  int32
	AtlasSizeY  int32
	Glyphs      []FontGlyph
	Kernings    []FontKerning
	TabXAdvance float32
}

type BitmapFontPage struct {
	ID   int8
	File string
}

type BitmapFontResourceData struct {
	Data  *FontData
	Pages []BitmapFontPage
}
