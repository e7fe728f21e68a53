package pdfreport

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // register GIF decoder
	_ "image/jpeg"
	"image/png"
	"io/fs"
	"os"

	_ "golang.org/x/image/bmp" // register BMP, TIFF and WebP decoders
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DefaultOverlayPlacement is the logo box in points from the top-left
// corner of each page.
var DefaultOverlayPlacement = Rect{X: 20, Y: 120, W: 60, H: 60}

// Image types understood by the stamper.
const (
	imageTypePNG  = "PNG"
	imageTypeJPEG = "JPG"
)

// OverlayAsset is a decoded logo ready to be stamped: image data, its
// placement in points from the top-left corner and an opaque backing color.
type OverlayAsset struct {
	Image      []byte
	ImageType  string // "PNG" or "JPG"
	Placement  Rect
	Background Color
}

// LoadOverlayAsset reads a logo file. A missing file returns nil and no
// error: stamping then copies the document unchanged. JPEG data is kept
// as is; PNG, GIF, BMP, TIFF and WebP are normalized to PNG. A zero
// placement selects DefaultOverlayPlacement.
func LoadOverlayAsset(path string, placement Rect, background Color) (*OverlayAsset, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- user-provided path
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading logo: %w", err)
	}
	return NewOverlayAsset(data, placement, background)
}

// NewOverlayAsset builds an asset from encoded image bytes.
func NewOverlayAsset(data []byte, placement Rect, background Color) (*OverlayAsset, error) {
	if placement == (Rect{}) {
		placement = DefaultOverlayPlacement
	}
	if placement.W <= 0 || placement.H <= 0 || placement.X < 0 || placement.Y < 0 {
		return nil, fmt.Errorf("%w: overlay placement %+v", ErrInvalidGeometry, placement)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLogoDecode, err)
	}

	asset := &OverlayAsset{Placement: placement, Background: background}
	if format == "jpeg" {
		asset.Image, asset.ImageType = data, imageTypeJPEG
		return asset, nil
	}

	// fpdf rejects interlaced and 16-bit PNGs; an 8-bit NRGBA re-encode
	// avoids both.
	b := img.Bounds()
	flat := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(flat, flat.Bounds(), img, b.Min, draw.Src)

	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, flat); err != nil {
		return nil, fmt.Errorf("%w: re-encoding %s as PNG: %v", ErrLogoDecode, format, err)
	}
	asset.Image, asset.ImageType = buf.Bytes(), imageTypePNG
	return asset, nil
}
