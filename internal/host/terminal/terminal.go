// Package terminal is a host backed by a tcell screen. Keystrokes become raw
// key notifications, resizes become geometry changes, and the "virtual
// keyboard" is an indicator drawn in the status line.
package terminal

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/rivo/uniseg"

	"github.com/dshills/keybridge/internal/geometry"
	"github.com/dshills/keybridge/internal/input/key"
)

// DefaultIndicatorColor is the keyboard indicator background.
const DefaultIndicatorColor = "#2e8b57"

// Handler receives host notifications from Run.
type Handler interface {
	SubmitKey(raw key.RawEvent) bool
	OnGeometryChanged()
}

// Terminal is a host over a tcell screen. The top row is the title bar and
// the bottom row the status line; both are reported as insets.
type Terminal struct {
	screen    tcell.Screen
	title     string
	density   float64
	quitKey   tcell.Key
	indicator tcell.Style
	colorHex  string

	mu       sync.Mutex
	keyboard bool
	status   string
	pasting  bool
	paste    strings.Builder
}

// Option configures a Terminal.
type Option func(*Terminal)

// WithTitle sets the title bar text.
func WithTitle(title string) Option {
	return func(t *Terminal) {
		t.title = title
	}
}

// WithIndicatorColor sets the keyboard indicator colour as a hex string.
func WithIndicatorColor(hex string) Option {
	return func(t *Terminal) {
		t.colorHex = hex
	}
}

// WithDensity sets the density reported for the terminal. Cells have no
// physical size, so this is whatever the runtime should scale by.
func WithDensity(d float64) Option {
	return func(t *Terminal) {
		t.density = d
	}
}

// WithQuitKey sets the key that ends Run. It is never delivered to the
// handler.
func WithQuitKey(k tcell.Key) Option {
	return func(t *Terminal) {
		t.quitKey = k
	}
}

// New wraps screen. The screen is not initialized until Init.
func New(screen tcell.Screen, opts ...Option) (*Terminal, error) {
	t := &Terminal{
		screen:   screen,
		title:    "keybridge",
		density:  1,
		quitKey:  tcell.KeyCtrlC,
		colorHex: DefaultIndicatorColor,
	}
	for _, opt := range opts {
		opt(t)
	}

	c, err := colorful.Hex(t.colorHex)
	if err != nil {
		return nil, fmt.Errorf("indicator color %q: %w", t.colorHex, err)
	}
	r, g, b := c.RGB255()
	t.indicator = tcell.StyleDefault.
		Background(tcell.NewRGBColor(int32(r), int32(g), int32(b))).
		Foreground(indicatorForeground(c))
	return t, nil
}

// indicatorForeground picks black or white text for legibility on bg.
func indicatorForeground(bg colorful.Color) tcell.Color {
	_, _, l := bg.Hcl()
	if l > 0.6 {
		return tcell.ColorBlack
	}
	return tcell.ColorWhite
}

// Init initializes the screen and draws the chrome.
func (t *Terminal) Init() error {
	if err := t.screen.Init(); err != nil {
		return err
	}
	t.screen.EnablePaste()
	t.screen.HideCursor()
	t.mu.Lock()
	t.drawLocked()
	t.mu.Unlock()
	return nil
}

// Close restores the terminal.
func (t *Terminal) Close() {
	t.screen.Fini()
}

// Show implements focus.Keyboard.
func (t *Terminal) Show(done func(error)) {
	t.setKeyboard(true)
	done(nil)
}

// Hide implements focus.Keyboard.
func (t *Terminal) Hide(done func(error)) {
	t.setKeyboard(false)
	done(nil)
}

func (t *Terminal) setKeyboard(shown bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.keyboard = shown
	t.drawLocked()
}

// KeyboardShown reports the indicator state.
func (t *Terminal) KeyboardShown() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.keyboard
}

// SetStatus replaces the status line text.
func (t *Terminal) SetStatus(s string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = s
	t.drawLocked()
}

// InsetsByCategory implements geometry.TypedHost. The title row is the
// status bar and the status line the navigation bar.
func (t *Terminal) InsetsByCategory() (map[geometry.Category]geometry.Edges, error) {
	w, h := t.screen.Size()
	if w <= 0 || h <= 0 {
		return nil, geometry.ErrInsetUnavailable
	}
	return map[geometry.Category]geometry.Edges{
		geometry.CategoryStatusBars:     {Top: 1},
		geometry.CategoryNavigationBars: {Bottom: 1},
	}, nil
}

// DisplayMetrics implements geometry.TypedHost.
func (t *Terminal) DisplayMetrics() (geometry.DisplayMetrics, error) {
	w, h := t.screen.Size()
	if w <= 0 || h <= 0 {
		return geometry.DisplayMetrics{}, geometry.ErrInsetUnavailable
	}
	return geometry.DisplayMetrics{Density: t.density, Width: w, Height: h}, nil
}

// Run delivers screen events to h until the quit key, ctx cancellation or
// Close.
func (t *Terminal) Run(ctx context.Context, h Handler) error {
	stop := context.AfterFunc(ctx, func() {
		_ = t.screen.PostEvent(tcell.NewEventInterrupt(nil))
	})
	defer stop()

	for {
		ev := t.screen.PollEvent()
		if ev == nil {
			return nil
		}
		if _, ok := ev.(*tcell.EventInterrupt); ok && ctx.Err() != nil {
			return ctx.Err()
		}
		if t.dispatch(ev, h) {
			return nil
		}
	}
}

// dispatch handles one event and reports whether Run should return.
func (t *Terminal) dispatch(ev tcell.Event, h Handler) bool {
	switch e := ev.(type) {
	case *tcell.EventKey:
		if e.Key() == t.quitKey && !t.inPaste() {
			return true
		}
		if t.collectPaste(e) {
			return false
		}
		for _, raw := range translateKey(e) {
			h.SubmitKey(raw)
		}
	case *tcell.EventPaste:
		if text, done := t.pasteEdge(e.Start()); done && text != "" {
			h.SubmitKey(key.RawEvent{
				Action:     key.ActionMultiple,
				Code:       key.CodeUnknown,
				Characters: text,
				Timestamp:  e.When(),
			})
		}
	case *tcell.EventResize:
		t.screen.Sync()
		t.mu.Lock()
		t.drawLocked()
		t.mu.Unlock()
		h.OnGeometryChanged()
	}
	return false
}

func (t *Terminal) inPaste() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pasting
}

// collectPaste buffers keys inside a bracketed paste.
func (t *Terminal) collectPaste(e *tcell.EventKey) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.pasting {
		return false
	}
	if r, ok := pasteRune(e); ok {
		t.paste.WriteRune(r)
	}
	return true
}

// pasteEdge starts or finishes a paste. On finish it returns the text.
func (t *Terminal) pasteEdge(start bool) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if start {
		t.pasting = true
		t.paste.Reset()
		return "", false
	}
	if !t.pasting {
		return "", false
	}
	t.pasting = false
	text := t.paste.String()
	t.paste.Reset()
	return text, true
}

func (t *Terminal) drawLocked() {
	w, h := t.screen.Size()
	if w <= 0 || h <= 0 {
		return
	}
	t.screen.Clear()

	bar := tcell.StyleDefault.Reverse(true)
	fillRow(t.screen, 0, w, bar)
	drawText(t.screen, 1, 0, w-1, t.title, bar)

	if h > 1 {
		x := 0
		if t.keyboard {
			x = drawText(t.screen, 0, h-1, w, " KBD ", t.indicator)
			x++
		}
		drawText(t.screen, x, h-1, w, t.status, tcell.StyleDefault)
	}
	t.screen.Show()
}

func fillRow(s tcell.Screen, y, w int, style tcell.Style) {
	for x := 0; x < w; x++ {
		s.SetContent(x, y, ' ', nil, style)
	}
}

// drawText draws text from x up to limit, one grapheme cluster per cell
// run, and returns the column after the last cluster drawn. A cluster that
// would cross limit is not drawn.
func drawText(s tcell.Screen, x, y, limit int, text string, style tcell.Style) int {
	state := -1
	rest := text
	for rest != "" {
		var cluster string
		var width int
		cluster, rest, width, state = uniseg.FirstGraphemeClusterInString(rest, state)
		if width == 0 {
			continue
		}
		if x+width > limit {
			break
		}
		runes := []rune(cluster)
		s.SetContent(x, y, runes[0], runes[1:], style)
		x += width
	}
	return x
}
