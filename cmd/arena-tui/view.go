package main

import (
	"fmt"
	"math"
	"sync"

	"github.com/gdamore/tcell/v2"

	"bomb-arena/internal/game"
)

const (
	cellWidth = 2 // terminal columns per arena cell
	maxLog    = 8
	panelGap  = 3
)

var (
	wallStyle      = tcell.StyleDefault.Foreground(tcell.ColorGray).Background(tcell.ColorGray)
	floorStyle     = tcell.StyleDefault.Background(tcell.ColorBlack)
	bombStyle      = tcell.StyleDefault.Foreground(tcell.ColorYellow).Background(tcell.ColorBlack)
	explosionStyle = tcell.StyleDefault.Foreground(tcell.ColorRed).Background(tcell.ColorOrange)
	deadStyle      = tcell.StyleDefault.Foreground(tcell.ColorDarkGray).Background(tcell.ColorBlack)
	headerStyle    = tcell.StyleDefault.Foreground(tcell.ColorWhite).Bold(true)
	textStyle      = tcell.StyleDefault.Foreground(tcell.ColorSilver)
)

// logBuffer keeps the last maxLog arena log lines. Append runs inside the
// engine callback, so it only takes its own lock.
type logBuffer struct {
	mu      sync.Mutex
	entries []game.LogEntry
}

func (lb *logBuffer) Append(e game.LogEntry) {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	lb.entries = append(lb.entries, e)
	if len(lb.entries) > maxLog {
		lb.entries = lb.entries[len(lb.entries)-maxLog:]
	}
}

func (lb *logBuffer) Lines() []game.LogEntry {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	return append([]game.LogEntry(nil), lb.entries...)
}

// view draws a snapshot onto a screen
type view struct {
	screen tcell.Screen
	field  *game.Field
	selfID string
}

func colorStyle(hex string) tcell.Style {
	return tcell.StyleDefault.Foreground(tcell.GetColor(hex)).Background(tcell.ColorBlack)
}

func (v *view) put(x, y int, s string, style tcell.Style) {
	for _, r := range s {
		v.screen.SetContent(x, y, r, nil, style)
		x++
	}
}

func (v *view) putCell(cx, cy int, r rune, style tcell.Style) {
	v.screen.SetContent(cx*cellWidth, cy, r, nil, style)
	v.screen.SetContent(cx*cellWidth+1, cy, ' ', nil, style)
}

func (v *view) draw(snap *game.ArenaSnapshot, highScores []game.ScoreRow, logs []game.LogEntry) {
	v.screen.Clear()

	for y, row := range v.field.Rows() {
		for x, ch := range row {
			if ch == ' ' {
				v.putCell(x, y, ' ', floorStyle)
			} else {
				v.putCell(x, y, ' ', wallStyle)
			}
		}
	}

	for _, b := range snap.Bombs {
		if b.Exploded {
			for x := b.Range.MinX; x <= b.Range.MaxX; x++ {
				v.putCell(x, b.Y, '*', explosionStyle)
			}
			for y := b.Range.MinY; y <= b.Range.MaxY; y++ {
				v.putCell(b.X, y, '*', explosionStyle)
			}
			continue
		}
		v.putCell(b.X, b.Y, 'o', bombStyle)
	}

	for _, p := range snap.Players {
		x, y := int(math.Floor(p.X+0.5)), int(math.Floor(p.Y+0.5))
		switch {
		case p.Died:
			v.putCell(x, y, 'x', deadStyle)
		case p.ID == v.selfID:
			v.putCell(x, y, '@', colorStyle(p.Color).Bold(true))
		default:
			v.putCell(x, y, initial(p.Name), colorStyle(p.Color))
		}
	}

	v.drawPanel(snap, highScores)
	v.drawLog(logs)
	v.screen.Show()
}

func (v *view) drawPanel(snap *game.ArenaSnapshot, highScores []game.ScoreRow) {
	px := v.field.Width()*cellWidth + panelGap
	y := 0

	v.put(px, y, "HIGH SCORE", headerStyle)
	y++
	for _, row := range highScores {
		if row.Points <= 0 {
			continue
		}
		v.put(px, y, fmt.Sprintf("%-16s %4d", row.Name, row.Points), colorStyle(row.Color))
		y++
	}

	y++
	v.put(px, y, "IN GAME", headerStyle)
	y++
	for _, p := range snap.Players {
		line := fmt.Sprintf("%-16s %4d", p.Name, p.Points)
		if p.Died {
			line += " †"
		}
		v.put(px, y, line, colorStyle(p.Color))
		y++
	}
}

func (v *view) drawLog(logs []game.LogEntry) {
	y := v.field.Height() + 1
	for _, e := range logs {
		v.put(0, y, e.Text, colorStyle(e.Color))
		y++
	}
	v.put(0, y+1, "arrows/WASD move  space bomb  x stop  r rejoin  q quit", textStyle)
}

func initial(name string) rune {
	for _, r := range name {
		return r
	}
	return '?'
}
