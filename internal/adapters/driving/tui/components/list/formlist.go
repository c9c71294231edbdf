// Package list provides the forms list component for the TUI.
package list

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/patientforms/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/patientforms/internal/core/listing"
)

type itemKind int

const (
	kindHeader itemKind = iota
	kindNote
	kindRow
	kindSentinel
	kindEnd
)

type item struct {
	kind itemKind
	text string
	row  listing.Row
}

// FormList renders a list view as scrollable lines. When more pages exist
// it ends with a sentinel line whose visibility is reported to the viewport.
type FormList struct {
	styles   *styles.Styles
	viewport *Viewport

	items      []item
	selectable []int
	selected   int
	offset     int

	width  int
	height int

	sentinel    listing.Sentinel
	sentinelIdx int
	generation  int
	layoutKey   string
}

// NewFormList creates a list that reports sentinel visibility to vp.
func NewFormList(s *styles.Styles, vp *Viewport) *FormList {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if vp == nil {
		vp = NewViewport()
	}
	return &FormList{
		styles:      s,
		viewport:    vp,
		sentinelIdx: -1,
		width:       80,
		height:      10,
	}
}

// SetView rebuilds the lines from view. The selection follows the selected
// form when it is still listed. A new sentinel is issued whenever the rows
// change, so a sentinel that stays on screen after a page loads is seen as
// newly visible.
func (l *FormList) SetView(view listing.ListView, infinite bool) {
	prev, hadPrev := l.SelectedRow()

	l.items = l.items[:0]
	if view.Sectioned {
		for _, section := range view.Sections {
			l.items = append(l.items, item{kind: kindHeader, text: fmt.Sprintf("%s (%d)", section.Name, len(section.Rows))})
			if len(section.Rows) == 0 {
				l.items = append(l.items, item{kind: kindNote, text: "No forms in this section"})
			}
			for _, r := range section.Rows {
				l.items = append(l.items, item{kind: kindRow, row: r})
			}
		}
	} else {
		for _, r := range view.Rows {
			l.items = append(l.items, item{kind: kindRow, row: r})
		}
	}

	key := fmt.Sprintf("%s|%d", view.Search.CommittedTerm, len(view.Rows))
	if key != l.layoutKey {
		l.layoutKey = key
		l.generation++
	}

	l.sentinel = ""
	l.sentinelIdx = -1
	switch {
	case len(view.Rows) == 0:
	case infinite && view.Pagination.HasMore:
		text := "Scroll for more forms"
		if view.Pagination.LoadInFlight {
			text = "Loading more..."
		}
		l.sentinel = listing.Sentinel(fmt.Sprintf("forms-end-%d", l.generation))
		l.sentinelIdx = len(l.items)
		l.items = append(l.items, item{kind: kindSentinel, text: text})
	case !view.Pagination.HasMore:
		l.items = append(l.items, item{kind: kindEnd, text: fmt.Sprintf("End of list (%d forms)", len(view.Rows))})
	}

	l.selectable = l.selectable[:0]
	for i, it := range l.items {
		if it.kind == kindRow {
			l.selectable = append(l.selectable, i)
		}
	}

	l.selected = 0
	if hadPrev {
		for i, idx := range l.selectable {
			if l.items[idx].row.Identifier == prev.Identifier {
				l.selected = i
				break
			}
		}
	}
	l.scrollToSelection()
}

// Sentinel returns the current sentinel, or "" when the list has none.
func (l *FormList) Sentinel() listing.Sentinel {
	return l.sentinel
}

// SentinelVisible reports whether the sentinel line is on screen.
func (l *FormList) SentinelVisible() bool {
	return l.sentinelIdx >= 0 && l.sentinelIdx >= l.offset && l.sentinelIdx < l.offset+l.height
}

// ReportVisibility tells the viewport which sentinel is on screen.
func (l *FormList) ReportVisibility() {
	visible := make(map[listing.Sentinel]float64, 1)
	if l.SentinelVisible() {
		visible[l.sentinel] = 1
	}
	l.viewport.Report(visible)
}

// SelectedRow returns the selected row.
func (l *FormList) SelectedRow() (listing.Row, bool) {
	if len(l.selectable) == 0 || l.selected < 0 || l.selected >= len(l.selectable) {
		return listing.Row{}, false
	}
	return l.items[l.selectable[l.selected]].row, true
}

// Selected returns the index of the selected row.
func (l *FormList) Selected() int {
	return l.selected
}

// Count returns the number of selectable rows.
func (l *FormList) Count() int {
	return len(l.selectable)
}

// IsEmpty reports whether the list has no rows.
func (l *FormList) IsEmpty() bool {
	return len(l.selectable) == 0
}

// Offset returns the first visible line.
func (l *FormList) Offset() int {
	return l.offset
}

// MoveUp moves selection up.
func (l *FormList) MoveUp() {
	l.moveTo(l.selected - 1)
}

// MoveDown moves selection down.
func (l *FormList) MoveDown() {
	l.moveTo(l.selected + 1)
}

// PageUp moves selection up by one screen.
func (l *FormList) PageUp() {
	l.moveTo(l.selected - max(l.height-1, 1))
}

// PageDown moves selection down by one screen.
func (l *FormList) PageDown() {
	l.moveTo(l.selected + max(l.height-1, 1))
}

// Top selects the first row.
func (l *FormList) Top() {
	l.moveTo(0)
}

// Bottom selects the last row.
func (l *FormList) Bottom() {
	l.moveTo(len(l.selectable) - 1)
}

func (l *FormList) moveTo(i int) {
	if len(l.selectable) == 0 {
		return
	}
	l.selected = min(max(i, 0), len(l.selectable)-1)
	l.scrollToSelection()
}

// scrollToSelection keeps the selected line on screen. On the last row the
// trailing marker is brought into view as well.
func (l *FormList) scrollToSelection() {
	if len(l.selectable) == 0 {
		l.offset = 0
		return
	}
	line := l.selectable[l.selected]
	top := line
	if line > 0 && l.items[line-1].kind == kindHeader {
		top = line - 1
	}
	bottom := line
	if l.selected == len(l.selectable)-1 {
		bottom = len(l.items) - 1
	}

	if top < l.offset {
		l.offset = top
	}
	if bottom >= l.offset+l.height {
		l.offset = bottom - l.height + 1
	}
	l.offset = min(max(l.offset, 0), max(len(l.items)-l.height, 0))
}

// View renders the visible lines.
func (l *FormList) View() string {
	if len(l.items) == 0 {
		return ""
	}
	end := min(l.offset+l.height, len(l.items))
	selectedLine := -1
	if len(l.selectable) > 0 {
		selectedLine = l.selectable[l.selected]
	}

	lines := make([]string, 0, end-l.offset)
	for i := l.offset; i < end; i++ {
		it := l.items[i]
		switch it.kind {
		case kindHeader:
			lines = append(lines, l.styles.Section.Render(it.text))
		case kindNote:
			lines = append(lines, l.styles.Muted.Render("  "+it.text))
		case kindRow:
			lines = append(lines, l.renderRow(it.row, i == selectedLine))
		case kindSentinel, kindEnd:
			lines = append(lines, l.styles.Marker.Render("  "+it.text))
		}
	}
	return strings.Join(lines, "\n")
}

func (l *FormList) renderRow(r listing.Row, selected bool) string {
	indicator := "  "
	if selected {
		indicator = "> "
	}
	date := r.LastCompletedFormatted
	if date == "" {
		date = "never"
	}
	nameWidth := max(l.width-lipgloss.Width(date)-6, 10)
	name := truncate(r.DisplayName, nameWidth)
	if name == "" {
		name = "(unnamed form)"
	}

	if selected {
		return l.styles.Selected.Render(fmt.Sprintf("%s%-*s  %s", indicator, nameWidth, name, date))
	}
	return l.styles.Normal.Render(fmt.Sprintf("%s%-*s  ", indicator, nameWidth, name)) +
		l.styles.Date.Render(date)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 3 {
		return string(runes[:n])
	}
	return string(runes[:n-3]) + "..."
}

// SetDimensions sets the component dimensions and re-clamps scrolling.
func (l *FormList) SetDimensions(width, height int) {
	l.width = width
	l.height = max(height, 1)
	l.scrollToSelection()
}

// Width returns the current width.
func (l *FormList) Width() int {
	return l.width
}

// Height returns the current height.
func (l *FormList) Height() int {
	return l.height
}
