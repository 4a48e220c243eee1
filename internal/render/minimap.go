// Package render draws arena snapshots as PNG images.
package render

import (
	"bytes"
	"fmt"
	"image/color"
	"io"

	"github.com/fogleman/gg"
	"github.com/skip2/go-qrcode"

	"bomb-arena/internal/game"
)

// DefaultCellSize is the pixel size of one arena cell
const DefaultCellSize = 16

var (
	floorColor     = color.RGBA{12, 12, 28, 255}
	wallColor      = color.RGBA{70, 70, 90, 255}
	bombColor      = color.RGBA{20, 20, 20, 255}
	fuseColor      = color.RGBA{255, 200, 40, 255}
	explosionColor = color.RGBA{255, 120, 30, 200}
	deadColor      = color.RGBA{120, 120, 120, 160}
)

// Minimap renders a field and an optional snapshot on top of it
type Minimap struct {
	field    *game.Field
	cellSize int
}

// NewMinimap creates a renderer for field. A cellSize <= 0 uses DefaultCellSize.
func NewMinimap(field *game.Field, cellSize int) *Minimap {
	if cellSize <= 0 {
		cellSize = DefaultCellSize
	}
	return &Minimap{field: field, cellSize: cellSize}
}

// Size returns the image dimensions in pixels
func (m *Minimap) Size() (int, int) {
	return m.field.Width() * m.cellSize, m.field.Height() * m.cellSize
}

// Draw renders snap into a new context. snap may be nil to draw the bare field.
func (m *Minimap) Draw(snap *game.ArenaSnapshot) *gg.Context {
	w, h := m.Size()
	dc := gg.NewContext(w, h)
	cs := float64(m.cellSize)

	dc.SetColor(floorColor)
	dc.DrawRectangle(0, 0, float64(w), float64(h))
	dc.Fill()

	dc.SetColor(wallColor)
	for y, row := range m.field.Rows() {
		for x, ch := range row {
			if ch != ' ' {
				dc.DrawRectangle(float64(x)*cs, float64(y)*cs, cs, cs)
			}
		}
	}
	dc.Fill()

	if snap == nil {
		return dc
	}

	for _, b := range snap.Bombs {
		m.drawBomb(dc, b)
	}
	for _, p := range snap.Players {
		m.drawPlayer(dc, p)
	}

	return dc
}

func (m *Minimap) drawBomb(dc *gg.Context, b game.BombSnapshot) {
	cs := float64(m.cellSize)

	if b.Exploded {
		dc.SetColor(explosionColor)
		for x := b.Range.MinX; x <= b.Range.MaxX; x++ {
			dc.DrawRectangle(float64(x)*cs, float64(b.Y)*cs, cs, cs)
		}
		for y := b.Range.MinY; y <= b.Range.MaxY; y++ {
			if y != b.Y {
				dc.DrawRectangle(float64(b.X)*cs, float64(y)*cs, cs, cs)
			}
		}
		dc.Fill()
		return
	}

	cx, cy := (float64(b.X)+0.5)*cs, (float64(b.Y)+0.5)*cs
	dc.SetColor(bombColor)
	dc.DrawCircle(cx, cy, cs*0.4)
	dc.Fill()
	dc.SetColor(fuseColor)
	dc.DrawCircle(cx+cs*0.25, cy-cs*0.25, cs*0.1)
	dc.Fill()
}

func (m *Minimap) drawPlayer(dc *gg.Context, p game.PlayerSnapshot) {
	cs := float64(m.cellSize)
	cx, cy := (p.X+0.5)*cs, (p.Y+0.5)*cs

	if p.Died {
		dc.SetColor(deadColor)
	} else {
		dc.SetHexColor(p.Color)
	}
	dc.DrawRectangle(cx-cs*0.35, cy-cs*0.35, cs*0.7, cs*0.7)
	dc.Fill()

	if p.IsAI {
		dc.SetColor(color.White)
		dc.SetLineWidth(1)
		dc.DrawRectangle(cx-cs*0.35, cy-cs*0.35, cs*0.7, cs*0.7)
		dc.Stroke()
	}
}

// WritePNG renders snap and encodes it as PNG to w
func (m *Minimap) WritePNG(w io.Writer, snap *game.ArenaSnapshot) error {
	if err := m.Draw(snap).EncodePNG(w); err != nil {
		return fmt.Errorf("encode minimap: %w", err)
	}
	return nil
}

// PNG renders snap to an in-memory PNG
func (m *Minimap) PNG(snap *game.ArenaSnapshot) ([]byte, error) {
	var buf bytes.Buffer
	if err := m.WritePNG(&buf, snap); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// JoinQR encodes url as a square QR code PNG of size pixels
func JoinQR(url string, size int) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("join qr: empty url")
	}
	png, err := qrcode.Encode(url, qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("join qr: %w", err)
	}
	return png, nil
}
