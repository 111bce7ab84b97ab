// Package imaging renders the upload derivatives: a bounded main image, a
// square thumbnail, and a dominant-color palette.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"sort"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"lensfolio/api/internal/models"
)

type Options struct {
	MaxDimension int // bounding box for the main image
	Quality      int // jpeg quality for the main image
	ThumbSize    int // square thumbnail edge
	ThumbQuality int
	PaletteSize  int
	// paletteRaster is the edge of the sampling raster used for the color
	// histogram. Fixed; small enough to keep quantization cheap.
}

const paletteRaster = 48

func DefaultOptions() Options {
	return Options{
		MaxDimension: 2048,
		Quality:      85,
		ThumbSize:    400,
		ThumbQuality: 70,
		PaletteSize:  5,
	}
}

type Rendered struct {
	Data   []byte
	Width  int
	Height int
}

type Result struct {
	Main      Rendered
	Thumbnail Rendered
	Palette   []models.PaletteColor
	// Source dimensions before any scaling.
	SourceWidth  int
	SourceHeight int
	Format       string
}

type Processor struct {
	opts Options
}

func NewProcessor(opts Options) *Processor {
	if opts.MaxDimension <= 0 {
		opts.MaxDimension = 2048
	}
	if opts.Quality <= 0 {
		opts.Quality = 85
	}
	if opts.ThumbSize <= 0 {
		opts.ThumbSize = 400
	}
	if opts.ThumbQuality <= 0 {
		opts.ThumbQuality = 70
	}
	if opts.PaletteSize <= 0 {
		opts.PaletteSize = 5
	}
	return &Processor{opts: opts}
}

// Process decodes data and produces all derivatives. Any stage failing
// aborts the whole operation; nothing partial is returned.
func (p *Processor) Process(data []byte) (Result, error) {
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Result{}, fmt.Errorf("decode image: %w", err)
	}

	bounds := src.Bounds()
	srcW, srcH := bounds.Dx(), bounds.Dy()
	if srcW == 0 || srcH == 0 {
		return Result{}, fmt.Errorf("invalid image dimensions %dx%d", srcW, srcH)
	}

	main, err := p.renderMain(src, srcW, srcH)
	if err != nil {
		return Result{}, err
	}

	thumb, err := p.renderThumbnail(src, srcW, srcH)
	if err != nil {
		return Result{}, err
	}

	palette := p.extractPalette(src)

	return Result{
		Main:         main,
		Thumbnail:    thumb,
		Palette:      palette,
		SourceWidth:  srcW,
		SourceHeight: srcH,
		Format:       format,
	}, nil
}

func (p *Processor) renderMain(src image.Image, srcW, srcH int) (Rendered, error) {
	w, h := FitWithin(srcW, srcH, p.opts.MaxDimension)

	out := src
	if w != srcW || h != srcH {
		dst := image.NewRGBA(image.Rect(0, 0, w, h))
		draw.CatmullRom.Scale(dst, dst.Bounds(), src, src.Bounds(), draw.Over, nil)
		out = dst
	}

	data, err := encodeJPEG(out, p.opts.Quality)
	if err != nil {
		return Rendered{}, fmt.Errorf("encode main image: %w", err)
	}
	return Rendered{Data: data, Width: w, Height: h}, nil
}

// renderThumbnail scales the source so the shorter edge covers the thumbnail
// square, then crops the overflow centered.
func (p *Processor) renderThumbnail(src image.Image, srcW, srcH int) (Rendered, error) {
	size := p.opts.ThumbSize
	coverW, coverH := FitCover(srcW, srcH, size)

	scaled := image.NewRGBA(image.Rect(0, 0, coverW, coverH))
	draw.ApproxBiLinear.Scale(scaled, scaled.Bounds(), src, src.Bounds(), draw.Over, nil)

	offX := (coverW - size) / 2
	offY := (coverH - size) / 2
	crop := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.Draw(crop, crop.Bounds(), scaled, image.Pt(offX, offY), draw.Src)

	data, err := encodeJPEG(crop, p.opts.ThumbQuality)
	if err != nil {
		return Rendered{}, fmt.Errorf("encode thumbnail: %w", err)
	}
	return Rendered{Data: data, Width: size, Height: size}, nil
}

// extractPalette downsamples to a small fixed raster and counts exact RGB
// triples. A crude histogram, not perceptual clustering; similar shades
// split their counts. Known limitation.
func (p *Processor) extractPalette(src image.Image) []models.PaletteColor {
	raster := image.NewRGBA(image.Rect(0, 0, paletteRaster, paletteRaster))
	draw.ApproxBiLinear.Scale(raster, raster.Bounds(), src, src.Bounds(), draw.Over, nil)

	counts := make(map[uint32]int)
	total := paletteRaster * paletteRaster
	for y := 0; y < paletteRaster; y++ {
		for x := 0; x < paletteRaster; x++ {
			i := raster.PixOffset(x, y)
			r, g, b := raster.Pix[i], raster.Pix[i+1], raster.Pix[i+2]
			counts[uint32(r)<<16|uint32(g)<<8|uint32(b)]++
		}
	}

	type entry struct {
		rgb   uint32
		count int
	}
	entries := make([]entry, 0, len(counts))
	for rgb, count := range counts {
		entries = append(entries, entry{rgb: rgb, count: count})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].count != entries[j].count {
			return entries[i].count > entries[j].count
		}
		return entries[i].rgb < entries[j].rgb
	})

	limit := p.opts.PaletteSize
	if limit > len(entries) {
		limit = len(entries)
	}
	palette := make([]models.PaletteColor, 0, limit)
	for _, e := range entries[:limit] {
		palette = append(palette, models.PaletteColor{
			Hex:   fmt.Sprintf("#%06x", e.rgb),
			Share: float64(e.count) / float64(total),
		})
	}
	return palette
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// FitWithin shrinks width/height to fit a maxDim bounding box preserving
// aspect ratio. Never upscales.
func FitWithin(width, height, maxDim int) (int, int) {
	if width <= 0 || height <= 0 || maxDim <= 0 {
		return maxDim, maxDim
	}
	if width <= maxDim && height <= maxDim {
		return width, height
	}
	if width >= height {
		newH := int(float64(height) * float64(maxDim) / float64(width))
		if newH < 1 {
			newH = 1
		}
		return maxDim, newH
	}
	newW := int(float64(width) * float64(maxDim) / float64(height))
	if newW < 1 {
		newW = 1
	}
	return newW, maxDim
}

// FitCover scales width/height so both edges reach at least minDim,
// preserving aspect ratio. Upscales when the source is smaller.
func FitCover(width, height, minDim int) (int, int) {
	if width <= 0 || height <= 0 || minDim <= 0 {
		return minDim, minDim
	}
	if width <= height {
		newH := int(float64(height) * float64(minDim) / float64(width))
		if newH < minDim {
			newH = minDim
		}
		return minDim, newH
	}
	newW := int(float64(width) * float64(minDim) / float64(height))
	if newW < minDim {
		newW = minDim
	}
	return newW, minDim
}
