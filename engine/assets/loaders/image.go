package loaders

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/spaghettifunk/anima2d/engine/resources"
)

// ImageLoader decodes png, jpeg, bmp and webp files into RGBA8 pixels.
type ImageLoader struct{}

func (il *ImageLoader) Load(path string, assetType resources.ResourceType, params interface{}) (*resources.Resource, error) {
	flipY := false
	if params != nil {
		typedParams, ok := params.(*resources.ImageResourceParams)
		if !ok {
			return nil, fmt.Errorf("failed to cast params in image loader")
		}
		flipY = typedParams.FlipY
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}

	rgba := ToRGBA(img)
	if flipY {
		FlipVertically(rgba)
	}
	bounds := rgba.Bounds()

	return &resources.Resource{
		Name:     format,
		FullPath: path,
		Type:     resources.ResourceTypeImage,
		DataSize: uint64(len(rgba.Pix)),
		Data: &resources.ImageResourceData{
			ChannelCount: 4,
			Width:        uint32(bounds.Dx()),
			Height:       uint32(bounds.Dy()),
			Pixels:       rgba.Pix,
		},
	}, nil
}

func (il *ImageLoader) Unload(resource *resources.Resource) error {
	resource.Data = nil
	resource.DataSize = 0
	return nil
}

// ToRGBA copies any image into a tightly packed, zero-origin RGBA image.
func ToRGBA(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	if rgba, ok := img.(*image.RGBA); ok && bounds.Min == (image.Point{}) && rgba.Stride == 4*bounds.Dx() {
		return rgba
	}
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return rgba
}

// FlipVertically swaps the rows in place so the first row ends up last.
func FlipVertically(img *image.RGBA) {
	height := img.Bounds().Dy()
	row := make([]uint8, img.Stride)
	for top, bottom := 0, height-1; top < bottom; top, bottom = top+1, bottom-1 {
		t := img.Pix[top*img.Stride : (top+1)*img.Stride]
		b := img.Pix[bottom*img.Stride : (bottom+1)*img.Stride]
		copy(row, t)
		copy(t, b)
		copy(b, row)
	}
}
