package loaders

import (
	"sort"

	"github.com/fzipp/bmfont"
	"github.com/spaghettifunk/anima2d/engine/resources"
)

// BitmapFontLoader imports AngelCode .fnt descriptors.
type BitmapFontLoader struct{}

func (fl *BitmapFontLoader) Load(path string, assetType resources.ResourceType, params interface{}) (*resources.Resource, error) {
	rd, err := fl.importFNTFile(path)
	if err != nil {
		return nil, err
	}
	return &resources.Resource{
		FullPath: path,
		Type:     resources.ResourceTypeBitmapFont,
		DataSize: uint64(len(rd.Data.Glyphs)),
		Data:     rd,
	}, nil
}

func (fl *BitmapFontLoader) Unload(resource *resources.Resource) error {
	if resource.Data != nil {
		data := resource.Data.(*resources.BitmapFontResourceData)
		data.Data.Glyphs = nil
		data.Data.Kernings = nil
		data.Pages = nil
		resource.Data = nil
		resource.DataSize = 0
		resource.FullPath = ""
	}
	return nil
}

func (fl *BitmapFontLoader) importFNTFile(fntFileName string) (*resources.BitmapFontResourceData, error) {
	font, err := bmfont.Load(fntFileName)
	if err != nil {
		return nil, err
	}

	outData := &resources.BitmapFontResourceData{
		Data: &resources.FontData{
			Face:       font.Descriptor.Info.Face,
			Size:       uint32(font.Descriptor.Info.Size),
			LineHeight: int32(font.Descriptor.Common.LineHeight),
			Baseline:   int32(font.Descriptor.Common.Base),
			AtlasSizeX: int32(font.Descriptor.Common.ScaleW),
			AtlasSizeY: int32(font.Descriptor.Common.ScaleH),
			Glyphs:     make([]resources.FontGlyph, 0, len(font.Descriptor.Chars)),
			Kernings:   make([]resources.FontKerning, 0, len(font.Descriptor.Kerning)),
		},
		Pages: make([]resources.BitmapFontPage, 0, len(font.Descriptor.Pages)),
	}

	for _, p := range font.Descriptor.Pages {
		outData.Pages = append(outData.Pages, resources.BitmapFontPage{
			ID:   int8(p.ID),
			File: p.File,
		})
	}

	for _, g := range font.Descriptor.Chars {
		outData.Data.Glyphs = append(outData.Data.Glyphs, resources.FontGlyph{
			Codepoint: g.ID,
			X:         uint16(g.X),
			Y:         uint16(g.Y),
			Width:     uint16(g.Width),
			Height:    uint16(g.Height),
			XOffset:   int16(g.XOffset),
			YOffset:   int16(g.YOffset),
			XAdvance:  int16(g.XAdvance),
			PageID:    uint8(g.Page),
		})
	}

	for p, k := range font.Descriptor.Kerning {
		outData.Data.Kernings = append(outData.Data.Kernings, resources.FontKerning{
			Codepoint0: p.First,
			Codepoint1: p.Second,
			Amount:     int16(k.Amount),
		})
	}

	// The descriptor keeps everything in maps.
	sort.Slice(outData.Pages, func(i, j int) bool { return outData.Pages[i].ID < outData.Pages[j].ID })
	sort.Slice(outData.Data.Glyphs, func(i, j int) bool {
		return outData.Data.Glyphs[i].Codepoint < outData.Data.Glyphs[j].Codepoint
	})
	sort.Slice(outData.Data.Kernings, func(i, j int) bool {
		a, b := outData.Data.Kernings[i], outData.Data.Kernings[j]
		if a.Codepoint0 != b.Codepoint0 {
			return a.Codepoint0 < b.Codepoint0
		}
		return a.Codepoint1 < b.Codepoint1
	})

	outData.Data.TabXAdvance = TabAdvance(outData.Data.Glyphs)
	return outData, nil
}

// TabAdvance is the advance of the tab glyph, or four spaces when the font has none.
func TabAdvance(glyphs []resources.FontGlyph) float32 {
	var space float32
	for _, g := range glyphs {
		switch g.Codepoint {
		case '\t':
			return float32(g.XAdvance)
		case ' ':
			space = float32(g.XAdvance)
		}
	}
	return space * 4
}
