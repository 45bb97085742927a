package app

import (
	"bytes"
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	chromastyles "github.com/alecthomas/chroma/v2/styles"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/marcus/filer/internal/editor"
	"github.com/marcus/filer/internal/item"
	"github.com/marcus/filer/internal/keymap"
	"github.com/marcus/filer/internal/styles"
	"github.com/marcus/filer/internal/ui"
)

// maxHighlightLines bounds how much of a buffer is syntax highlighted.
const maxHighlightLines = 2000

type rect struct{ x, y, w, h int }

// View renders the editor windows, the footer and any open modal.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	titleRows, height := m.screen()
	var b strings.Builder
	if titleRows > 0 {
		title, _ := m.fw.ed.Title(context.Background())
		b.WriteString(styles.BarTitle.Width(m.width).MaxWidth(m.width).Render(title))
		b.WriteString("\n")
	}
	b.WriteString(m.renderWindows(m.width, height))
	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	content := b.String()

	switch {
	case m.fw.prompt != nil:
		return ui.OverlayModal(content, m.fw.prompt.view(), m.width, m.height)
	case m.fw.chooser != nil:
		return ui.OverlayModal(content, m.fw.chooser.chooser.View(), m.width, m.height)
	}
	return content
}

// screen returns the rows taken by the title bar and the height left for
// windows.
func (m Model) screen() (titleRows, height int) {
	height = max(m.height-footerHeight, 1)
	if title, _ := m.fw.ed.Title(context.Background()); title != "" {
		return 1, max(height-1, 1)
	}
	return 0, height
}

// placement is where a window lands on the window area.
type placement struct {
	win     editor.Window
	outer   rect
	content rect
	tiled   bool
}

// placeWindows positions tiled windows first and then the floating ones,
// lowest zindex first, in paint order.
func placeWindows(wins []editor.Window, width, height int) []placement {
	rects := layoutWindows(wins, width, height)
	var out []placement
	for _, w := range wins {
		r, ok := rects[w.ID]
		if !ok {
			continue
		}
		out = append(out, placement{
			win:     w,
			outer:   r,
			content: rect{r.x, r.y, r.w, max(r.h-1, 0)},
			tiled:   true,
		})
	}

	var floating []editor.Window
	for _, w := range wins {
		if w.Layout.Floating() {
			floating = append(floating, w)
		}
	}
	slices.SortStableFunc(floating, func(a, b editor.Window) int {
		return cmp.Compare(a.Layout.Zindex, b.Layout.Zindex)
	})
	for _, w := range floating {
		l := w.Layout
		cw := cmp.Or(l.Width, width/2)
		ch := cmp.Or(l.Height, height/2)
		edge := 0
		if _, ok := styles.Border(l.Border); ok {
			cw = max(min(cw, width-2), 1)
			ch = max(min(ch, height-2), 1)
			edge = 1
		}
		out = append(out, placement{
			win:     w,
			outer:   rect{l.Col, l.Row, cw + 2*edge, ch + 2*edge},
			content: rect{l.Col + edge, l.Row + edge, cw, ch},
		})
	}
	return out
}

// renderWindows draws every placed window onto a blank canvas.
func (m Model) renderWindows(width, height int) string {
	canvas := strings.TrimSuffix(strings.Repeat(strings.Repeat(" ", width)+"\n", height), "\n")
	for _, p := range placeWindows(m.fw.ed.Windows(), width, height) {
		if p.tiled {
			box := m.renderWindow(p.win, p.outer.w, p.outer.h, true)
			canvas = ui.Place(canvas, box, p.outer.x, p.outer.y, width, height)
			continue
		}
		hl := parseWinHighlight(p.win.Highlight)
		box := m.renderWindow(p.win, p.content.w, p.content.h, false)
		box = styles.Group(cmp.Or(hl["Normal"], "NormalFloat")).Render(box)
		if border, ok := styles.Border(p.win.Layout.Border); ok {
			box = lipgloss.NewStyle().
				Border(border).
				BorderForeground(styles.Group(cmp.Or(hl["FloatBorder"], "FloatBorder")).GetForeground()).
				Render(box)
		}
		canvas = ui.Place(canvas, box, p.outer.x, p.outer.y, width, height)
	}
	return canvas
}

// layoutWindows splits the screen between the non-floating windows in
// creation order: each split takes its size from what is left, on the
// side its direction names, and windows without a split get the rest.
// Heights include the status line.
func layoutWindows(wins []editor.Window, width, height int) map[editor.WinID]rect {
	out := make(map[editor.WinID]rect)
	rem := rect{0, 0, width, height}
	var rest []editor.WinID
	for _, w := range wins {
		l := w.Layout
		switch l.Split {
		case "floating":
			continue
		case "horizontal":
			h := min(cmp.Or(l.Height, rem.h/2)+1, rem.h-2)
			if h < 2 {
				continue
			}
			if l.Direction == "topleft" {
				out[w.ID] = rect{rem.x, rem.y, rem.w, h}
				rem.y += h
			} else {
				out[w.ID] = rect{rem.x, rem.y + rem.h - h, rem.w, h}
			}
			rem.h -= h
		case "vertical":
			wd := min(cmp.Or(l.Width, rem.w/2), rem.w-10)
			if wd < 1 {
				continue
			}
			if l.Direction == "topleft" {
				out[w.ID] = rect{rem.x, rem.y, wd, rem.h}
				rem.x += wd
			} else {
				out[w.ID] = rect{rem.x + rem.w - wd, rem.y, wd, rem.h}
			}
			rem.w -= wd
		default:
			rest = append(rest, w.ID)
		}
	}
	for _, id := range rest {
		out[id] = rem
	}
	return out
}

// renderWindow draws a window's buffer into exactly width x height cells,
// the last row being the status line when tiled.
func (m Model) renderWindow(w editor.Window, width, height int, tiled bool) string {
	buf, _ := m.fw.ed.Buffer(w.Buf)
	contentH := height
	if tiled {
		contentH = max(height-1, 0)
	}

	top := visibleTop(w, contentH)
	lines := m.styledLines(buf, top, contentH)
	isList := w.Role == editor.RoleList
	rows := make([]string, 0, height)
	for i := 0; i < contentH; i++ {
		row := top + i
		if row > len(buf.Lines) {
			rows = append(rows, pad("", width))
			continue
		}
		line := lines[i]
		switch {
		case isList && row == w.Cursor:
			line = styles.Group("CursorLine").Render(pad(ansi.Strip(line), width))
		case slices.Contains(buf.Selected, row):
			line = styles.Group("Visual").Render(pad(ansi.Strip(line), width))
		}
		rows = append(rows, pad(line, width))
	}

	if tiled {
		status := w.Statusline
		if status == "" {
			status = buf.Name
		}
		rows = append(rows, styles.Group("StatusLine").Render(pad(ansi.Strip(status), width)))
	}
	return strings.Join(rows, "\n")
}

// visibleTop returns the first buffer row shown in a window with
// contentH rows, scrolled so the cursor stays in view.
func visibleTop(w editor.Window, contentH int) int {
	top := max(w.TopLine, 1)
	if contentH > 0 && w.Cursor >= top+contentH {
		top = w.Cursor - contentH + 1
	}
	return top
}

// styledLines returns n lines of buf starting at row top, styled by
// highlight spans, syntax or passed through as ANSI.
func (m Model) styledLines(buf editor.Buffer, top, n int) []string {
	out := make([]string, n)
	var syntax []string
	if buf.Syntax != "ansi" && buf.Filetype != "" && buf.Filetype != "filer" {
		syntax = m.fw.highlightBuffer(buf)
	}

	spans := make(map[int][]item.Highlight, len(buf.Highlights))
	for _, rh := range buf.Highlights {
		spans[rh.Row] = rh.Spans
	}

	for i := range n {
		row := top + i
		if row > len(buf.Lines) {
			break
		}
		text := buf.Lines[row-1]
		switch {
		case buf.Syntax == "ansi":
			out[i] = text
		case row <= len(syntax):
			out[i] = syntax[row-1]
		case len(spans[row]) > 0:
			out[i] = applySpans(text, spans[row])
		default:
			out[i] = strings.ReplaceAll(text, "\t", "    ")
		}
	}
	return out
}

// applySpans styles the byte ranges of text named by spans with their
// highlight group.
func applySpans(text string, spans []item.Highlight) string {
	sorted := slices.Clone(spans)
	slices.SortFunc(sorted, func(a, b item.Highlight) int { return cmp.Compare(a.Col, b.Col) })

	var b strings.Builder
	pos := 0
	for _, s := range sorted {
		start := min(max(s.Col-1, pos), len(text))
		end := min(start+s.Width, len(text))
		if end <= start {
			continue
		}
		b.WriteString(text[pos:start])
		b.WriteString(styles.Group(s.Group).Render(text[start:end]))
		pos = end
	}
	b.WriteString(text[pos:])
	return b.String()
}

type highlighted struct {
	filetype string
	count    int
	lines    []string
}

// highlightBuffer returns the buffer's lines colored for its filetype,
// caching the result until the buffer's filetype or length changes.
func (f *Framework) highlightBuffer(buf editor.Buffer) []string {
	if f.syntaxCache == nil {
		f.syntaxCache = make(map[editor.BufNr]highlighted)
	}
	if h, ok := f.syntaxCache[buf.Nr]; ok && h.filetype == buf.Filetype && h.count == len(buf.Lines) {
		return h.lines
	}

	lines := buf.Lines[:min(len(buf.Lines), maxHighlightLines)]
	out := highlightLines(buf.Filetype, lines)
	f.syntaxCache[buf.Nr] = highlighted{filetype: buf.Filetype, count: len(buf.Lines), lines: out}
	return out
}

func highlightLines(filetype string, lines []string) []string {
	lexer := lexers.Get(filetype)
	if lexer == nil {
		return nil
	}
	style := chromastyles.Get(styles.CurrentSyntaxTheme)
	if style == nil {
		style = chromastyles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		formatter = formatters.Fallback
	}

	text := strings.ReplaceAll(strings.Join(lines, "\n"), "\t", "    ")
	tokens, err := chroma.Tokenise(lexer, nil, text)
	if err != nil {
		return nil
	}
	split := chroma.SplitTokensIntoLines(tokens)
	if len(split) < len(lines) {
		return nil
	}

	out := make([]string, len(lines))
	var buf bytes.Buffer
	for i := range lines {
		line := split[i]
		for j := range line {
			line[j].Value = strings.TrimSuffix(line[j].Value, "\n")
		}
		buf.Reset()
		if err := formatter.Format(&buf, style, chroma.Literator(line...)); err != nil {
			return nil
		}
		out[i] = buf.String()
	}
	return out
}

// parseWinHighlight splits "Normal:NormalFloat,FloatBorder:FloatBorder"
// into its pairs.
func parseWinHighlight(s string) map[string]string {
	out := make(map[string]string)
	for _, pair := range strings.Split(s, ",") {
		if from, to, ok := strings.Cut(pair, ":"); ok {
			out[from] = to
		}
	}
	return out
}

// pad truncates or space-fills s to exactly width cells.
func pad(s string, width int) string {
	s = ansi.Truncate(s, width, "")
	if w := ansi.StringWidth(s); w < width {
		s += strings.Repeat(" ", width-w)
	}
	return s
}

// renderFooter shows the toast, a pending key sequence or key hints.
func (m Model) renderFooter() string {
	switch {
	case m.statusMsg != "" && m.statusIsError:
		return styles.ToastError.Width(m.width).MaxWidth(m.width).Render(m.statusMsg)
	case m.statusMsg != "":
		return styles.ToastSuccess.Width(m.width).MaxWidth(m.width).Render(m.statusMsg)
	case m.keymap.Pending() != "":
		return styles.Muted.Render(m.keymap.Pending() + " …")
	}

	var hints []string
	for _, kb := range m.keymap.KeyBindings(keymap.ContextList) {
		h := kb.Help()
		hints = append(hints, styles.KeyHint.Render(h.Key)+" "+styles.Muted.Render(h.Desc))
	}
	return ansi.Truncate(strings.Join(hints, "  "), m.width, "…")
}
