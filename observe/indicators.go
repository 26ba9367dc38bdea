package observe

import (
	"fmt"
	"strings"
	"sync"
)

// Bar renders a linear progress bar from the current position.
type Bar struct {
	mu    sync.Mutex
	width int
	view  string
}

// NewBar creates a bar of the given character width (minimum 4).
func NewBar(width int) *Bar {
	if width < 4 {
		width = 4
	}
	return &Bar{width: width}
}

func (b *Bar) OnCommit(pos Position) { b.render(pos) }
func (b *Bar) OnSettle(pos Position) { b.render(pos) }

func (b *Bar) render(pos Position) {
	filled := 0
	percent := 0
	if pos.Total > 0 {
		filled = (pos.Current + 1) * b.width / pos.Total
		percent = (pos.Current + 1) * 100 / pos.Total
	}
	b.mu.Lock()
	b.view = fmt.Sprintf("[%s%s] %d%%",
		strings.Repeat("█", filled),
		strings.Repeat("░", b.width-filled),
		percent)
	b.mu.Unlock()
}

// View returns the last rendered bar.
func (b *Bar) View() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.view
}

// Donut renders a circular-indicator glyph plus percentage. Progress uses
// MaxVisited, so stepping backwards does not shrink the donut.
type Donut struct {
	mu   sync.Mutex
	view string
}

// NewDonut creates a donut indicator.
func NewDonut() *Donut { return &Donut{} }

var donutPhases = []rune{'○', '◔', '◑', '◕', '●'}

func (d *Donut) OnCommit(pos Position) { d.render(pos) }
func (d *Donut) OnSettle(pos Position) { d.render(pos) }

func (d *Donut) render(pos Position) {
	percent := 0
	if pos.Total > 0 {
		visited := pos.MaxVisited + 1
		if visited > pos.Total {
			visited = pos.Total
		}
		percent = visited * 100 / pos.Total
	}
	phase := donutPhases[len(donutPhases)-1]
	if percent < 100 {
		phase = donutPhases[percent*len(donutPhases)/100]
	}
	d.mu.Lock()
	d.view = fmt.Sprintf("%c %d%%", phase, percent)
	d.mu.Unlock()
}

// View returns the last rendered donut.
func (d *Donut) View() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.view
}

// Dots renders one dot per slide: filled for the current slide, ringed for
// visited ones, hollow for the rest.
type Dots struct {
	mu   sync.Mutex
	view string
}

// NewDots creates a dot-list indicator.
func NewDots() *Dots { return &Dots{} }

func (d *Dots) OnCommit(pos Position) { d.render(pos) }
func (d *Dots) OnSettle(pos Position) { d.render(pos) }

func (d *Dots) render(pos Position) {
	var b strings.Builder
	for i := 0; i < pos.Total; i++ {
		if i > 0 {
			b.WriteByte(' ')
		}
		switch {
		case i == pos.Current:
			b.WriteRune('●')
		case i <= pos.MaxVisited:
			b.WriteRune('◉')
		default:
			b.WriteRune('○')
		}
	}
	d.mu.Lock()
	d.view = b.String()
	d.mu.Unlock()
}

// View returns the last rendered dot list.
func (d *Dots) View() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.view
}

// Counter renders the "step m of n" label.
type Counter struct {
	mu   sync.Mutex
	view string
}

// NewCounter creates a step counter.
func NewCounter() *Counter { return &Counter{} }

func (c *Counter) OnCommit(pos Position) { c.render(pos) }
func (c *Counter) OnSettle(pos Position) { c.render(pos) }

func (c *Counter) render(pos Position) {
	c.mu.Lock()
	c.view = fmt.Sprintf("%d/%d", pos.Current+1, pos.Total)
	c.mu.Unlock()
}

// View returns the last rendered counter.
func (c *Counter) View() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

// FocusTarget is the host capability the focus adapter drives: pointing
// keyboard focus (or a focus trap) at the current slide.
type FocusTarget interface {
	SetFocus(slideID string)
}

// FocusAdapter forwards focus to the host only at settle, keeping
// mid-transition state away from assistive technology.
type FocusAdapter struct {
	target FocusTarget
}

// NewFocusAdapter wraps a host focus target.
func NewFocusAdapter(target FocusTarget) *FocusAdapter {
	return &FocusAdapter{target: target}
}

// OnCommit is deliberately a no-op.
func (f *FocusAdapter) OnCommit(Position) {}

func (f *FocusAdapter) OnSettle(pos Position) {
	if f.target != nil && pos.SlideID != "" {
		f.target.SetFocus(pos.SlideID)
	}
}
