package qr

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/inconsolata"
	"golang.org/x/image/math/fixed"

	"github.com/mateconpizza/marklet/internal/sys/files"
)

const imgSize = 512

// Pos is a position on an image.
type Pos struct {
	x, y int
}

// Image returns the QR-Code as an RGBA image with label drawn centered below
// the code. An empty label draws nothing.
func (q *QRCode) Image(label string) (*image.RGBA, error) {
	if q.QR == nil {
		return nil, ErrQRNotGenerated
	}

	img := q.QR.Image(imgSize)
	rgba := image.NewRGBA(img.Bounds())
	draw.Draw(rgba, rgba.Bounds(), img, image.Point{}, draw.Src)

	if label != "" {
		face := inconsolata.Regular8x16
		label = fitLabel(label, face, rgba.Bounds().Dx())
		d := createFontDrawer(rgba, face, label)
		d.DrawString(label)
	}

	return rgba, nil
}

// EncodePNG writes the labeled QR-Code as PNG to w.
func (q *QRCode) EncodePNG(w io.Writer, label string) error {
	img, err := q.Image(label)
	if err != nil {
		return err
	}

	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encoding image: %w", err)
	}

	return nil
}

// WritePNG writes the labeled QR-Code as PNG to path, creating parent
// directories as needed.
func (q *QRCode) WritePNG(path, label string) error {
	if q.QR == nil {
		return ErrQRNotGenerated
	}

	if err := files.MkdirAll(filepath.Dir(path)); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			slog.Error("closing qr image", "file", path, "error", err)
		}
	}()

	return q.EncodePNG(f, label)
}

// createFontDrawer creates a black font drawer positioned for label.
func createFontDrawer(rgba *image.RGBA, face *basicfont.Face, label string) *font.Drawer {
	d := &font.Drawer{
		Dst:  rgba,
		Src:  image.NewUniform(color.RGBA{0, 0, 0, 255}),
		Face: face,
	}

	pos := calcBottomPos(rgba, d, label, face)
	d.Dot = fixed.Point26_6{X: fixed.I(pos.x), Y: fixed.I(pos.y)}

	return d
}

// calcBottomPos centers label horizontally inside the bottom quiet zone.
func calcBottomPos(rgba *image.RGBA, d *font.Drawer, s string, face *basicfont.Face) Pos {
	w := d.MeasureString(s).Ceil()
	h := face.Metrics().Height.Ceil()

	x := (rgba.Bounds().Dx() - w) / 2
	y := rgba.Bounds().Dy() - h

	return Pos{x, y}
}

// fitLabel shortens s with an ellipsis until it fits in width pixels.
func fitLabel(s string, face *basicfont.Face, width int) string {
	n := width / face.Advance
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}

	return string(r[:n-3]) + "..."
}
