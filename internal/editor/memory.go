package editor

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
)

type window struct {
	id         WinID
	buf        BufNr
	role       Role
	layout     Layout
	cursor     int
	topLine    int
	options    map[string]any
	highlight  string
	statusline string
}

type buffer struct {
	nr         BufNr
	name       string
	lines      []string
	filetype   string
	syntax     string
	scratch    bool
	terminal   bool
	highlights []RowHighlight
	selected   []int
	vars       map[string]any
}

// Memory is the in-memory editor. It is safe for concurrent use; terminal
// output arrives from other goroutines.
type Memory struct {
	mu         sync.Mutex
	wins       map[WinID]*window
	order      []WinID
	bufs       map[BufNr]*buffer
	current    WinID
	nextWin    WinID
	nextBuf    BufNr
	lines      int
	columns    int
	title      string
	savedTitle *string
	runner     TerminalRunner
	callbacks  map[string]func(payload any) error
	onChange   func()
}

// Option configures a Memory editor.
type Option func(*Memory)

// WithTerminalRunner sets the process runner used by OpenTerminal.
func WithTerminalRunner(r TerminalRunner) Option {
	return func(m *Memory) { m.runner = r }
}

// WithOnChange registers a function called after asynchronous buffer
// updates, such as terminal output.
func WithOnChange(fn func()) Option {
	return func(m *Memory) { m.onChange = fn }
}

// NewMemory returns an editor with a single main window showing an empty
// buffer, sized lines x columns.
func NewMemory(lines, columns int, opts ...Option) *Memory {
	m := &Memory{
		wins:      make(map[WinID]*window),
		bufs:      make(map[BufNr]*buffer),
		nextWin:   1000,
		nextBuf:   1,
		lines:     lines,
		columns:   columns,
		callbacks: make(map[string]func(payload any) error),
	}
	for _, opt := range opts {
		opt(m)
	}
	b := m.newBuffer("")
	w := m.newWindow(b.nr, RoleMain, Layout{Split: "no"})
	m.current = w.id
	return m
}

// Resize updates the screen size.
func (m *Memory) Resize(lines, columns int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines, m.columns = lines, columns
}

// RegisterCallback makes fn callable by name through CallCallback.
func (m *Memory) RegisterCallback(name string, fn func(payload any) error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callbacks[name] = fn
}

func (m *Memory) newBuffer(name string) *buffer {
	b := &buffer{nr: m.nextBuf, name: name, lines: []string{""}, vars: make(map[string]any)}
	m.nextBuf++
	m.bufs[b.nr] = b
	return b
}

func (m *Memory) newWindow(buf BufNr, role Role, layout Layout) *window {
	w := &window{id: m.nextWin, buf: buf, role: role, layout: layout, cursor: 1, topLine: 1, options: make(map[string]any)}
	m.nextWin++
	m.wins[w.id] = w
	m.order = append(m.order, w.id)
	return w
}

func (m *Memory) win(id WinID) (*window, error) {
	w, ok := m.wins[id]
	if !ok {
		return nil, fmt.Errorf("window %d: %w", id, ErrNoSuchWindow)
	}
	return w, nil
}

func (m *Memory) buf(nr BufNr) (*buffer, error) {
	b, ok := m.bufs[nr]
	if !ok {
		return nil, fmt.Errorf("buffer %d: %w", nr, ErrNoSuchBuffer)
	}
	return b, nil
}

func (m *Memory) bufByName(name string) *buffer {
	for _, b := range m.bufs {
		if b.name == name {
			return b
		}
	}
	return nil
}

// ScreenSize returns the screen height and width.
func (m *Memory) ScreenSize(ctx context.Context) (lines, columns int, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lines, m.columns, nil
}

// CurrentWindow returns the focused window.
func (m *Memory) CurrentWindow(ctx context.Context) (WinID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current, nil
}

// GotoWindow focuses a window.
func (m *Memory) GotoWindow(ctx context.Context, id WinID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.win(id); err != nil {
		return err
	}
	m.current = id
	return nil
}

// WindowCount returns the number of windows.
func (m *Memory) WindowCount(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.order), nil
}

// WindowExists reports whether id names an open window.
func (m *Memory) WindowExists(ctx context.Context, id WinID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.wins[id]
	return ok, nil
}

// CloseWindow closes a window. The last window cannot be closed.
func (m *Memory) CloseWindow(ctx context.Context, id WinID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.win(id); err != nil {
		return err
	}
	if len(m.order) == 1 {
		return ErrLastWindow
	}
	delete(m.wins, id)
	m.order = slices.DeleteFunc(m.order, func(w WinID) bool { return w == id })
	if m.current == id {
		m.current = m.order[0]
	}
	return nil
}

// WindowBuffer returns the buffer shown in a window.
func (m *Memory) WindowBuffer(ctx context.Context, id WinID) (BufNr, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, err := m.win(id)
	if err != nil {
		return NoBuffer, err
	}
	return w.buf, nil
}

// BufferWindows returns the windows showing a buffer.
func (m *Memory) BufferWindows(ctx context.Context, nr BufNr) ([]WinID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []WinID
	for _, id := range m.order {
		if m.wins[id].buf == nr {
			out = append(out, id)
		}
	}
	return out, nil
}

// ShowBuffer displays a buffer in a window.
func (m *Memory) ShowBuffer(ctx context.Context, id WinID, nr BufNr) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, err := m.win(id)
	if err != nil {
		return err
	}
	if _, err := m.buf(nr); err != nil {
		return err
	}
	w.buf = nr
	w.cursor, w.topLine = 1, 1
	return nil
}

// ShowEmpty displays a new unnamed buffer in a window.
func (m *Memory) ShowEmpty(ctx context.Context, id WinID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, err := m.win(id)
	if err != nil {
		return err
	}
	w.buf = m.newBuffer("").nr
	w.cursor, w.topLine = 1, 1
	return nil
}

// BufferByName looks a buffer up by name.
func (m *Memory) BufferByName(ctx context.Context, name string) (BufNr, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b := m.bufByName(name); b != nil {
		return b.nr, true, nil
	}
	return NoBuffer, false, nil
}

// BufferName returns a buffer's name.
func (m *Memory) BufferName(ctx context.Context, nr BufNr) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, err := m.buf(nr)
	if err != nil {
		return "", err
	}
	return b.name, nil
}

// BufferExists reports whether nr names a buffer.
func (m *Memory) BufferExists(ctx context.Context, nr BufNr) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.bufs[nr]
	return ok, nil
}

// BufferLines returns a copy of a buffer's lines.
func (m *Memory) BufferLines(ctx context.Context, nr BufNr) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, err := m.buf(nr)
	if err != nil {
		return nil, err
	}
	return slices.Clone(b.lines), nil
}

// AddBuffer returns the buffer named name, creating it when missing.
func (m *Memory) AddBuffer(ctx context.Context, name string) (BufNr, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if b := m.bufByName(name); b != nil {
		return b.nr, nil
	}
	return m.newBuffer(name).nr, nil
}

// CreateScratchBuffer returns a scratch buffer named name holding lines.
// An existing buffer of that name is reused and its contents replaced.
func (m *Memory) CreateScratchBuffer(ctx context.Context, name string, lines []string) (BufNr, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := m.bufByName(name)
	if b == nil {
		b = m.newBuffer(name)
	}
	b.scratch = true
	b.terminal = false
	b.lines = slices.Clone(lines)
	if len(b.lines) == 0 {
		b.lines = []string{""}
	}
	return b.nr, nil
}

// SetLines replaces a buffer's contents.
func (m *Memory) SetLines(ctx context.Context, nr BufNr, lines []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, err := m.buf(nr)
	if err != nil {
		return err
	}
	b.lines = slices.Clone(lines)
	if len(b.lines) == 0 {
		b.lines = []string{""}
	}
	for _, w := range m.wins {
		if w.buf == nr {
			w.cursor = clamp(w.cursor, 1, len(b.lines))
		}
	}
	return nil
}

// SetHighlights stores row highlights and selected rows for rendering.
func (m *Memory) SetHighlights(ctx context.Context, nr BufNr, rows []RowHighlight, selected []int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, err := m.buf(nr)
	if err != nil {
		return err
	}
	b.highlights = slices.Clone(rows)
	b.selected = slices.Clone(selected)
	return nil
}

// SetFiletype sets a buffer's filetype.
func (m *Memory) SetFiletype(ctx context.Context, nr BufNr, ft string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, err := m.buf(nr)
	if err != nil {
		return err
	}
	b.filetype = ft
	return nil
}

// SetSyntax sets a buffer's syntax name.
func (m *Memory) SetSyntax(ctx context.Context, nr BufNr, syntax string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, err := m.buf(nr)
	if err != nil {
		return err
	}
	b.syntax = syntax
	return nil
}

// SetBufferVar sets a buffer-local variable.
func (m *Memory) SetBufferVar(ctx context.Context, nr BufNr, name string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, err := m.buf(nr)
	if err != nil {
		return err
	}
	b.vars[name] = value
	return nil
}

// BufferVar reads a buffer-local variable.
func (m *Memory) BufferVar(ctx context.Context, nr BufNr, name string) (any, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, err := m.buf(nr)
	if err != nil {
		return nil, false, err
	}
	v, ok := b.vars[name]
	return v, ok, nil
}

// WipeBufferIfHidden deletes a buffer that no window shows.
func (m *Memory) WipeBufferIfHidden(ctx context.Context, nr BufNr) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.bufs[nr]; !ok {
		return nil
	}
	for _, w := range m.wins {
		if w.buf == nr {
			return nil
		}
	}
	delete(m.bufs, nr)
	return nil
}

// OpenWindow splits a new window showing buf and focuses it. Layout "no"
// reuses the current window.
func (m *Memory) OpenWindow(ctx context.Context, buf BufNr, role Role, layout Layout) (WinID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := m.buf(buf); err != nil {
		return NoWindow, err
	}
	switch layout.Split {
	case "no":
		w := m.wins[m.current]
		w.buf = buf
		w.role = role
		w.cursor, w.topLine = 1, 1
		return w.id, nil
	case "horizontal", "vertical", "floating":
		w := m.newWindow(buf, role, layout)
		m.current = w.id
		return w.id, nil
	default:
		return NoWindow, fmt.Errorf("split %q: %w", layout.Split, ErrInvalidLayout)
	}
}

// OpenPreviewWindow shows previewBuf in the preview window, reusing
// existing when it is still open. The preview window becomes current.
func (m *Memory) OpenPreviewWindow(ctx context.Context, layout Layout, previewBuf BufNr, existing WinID) (WinID, error) {
	m.mu.Lock()
	if w, ok := m.wins[existing]; ok {
		if _, err := m.buf(previewBuf); err != nil {
			m.mu.Unlock()
			return NoWindow, err
		}
		w.buf = previewBuf
		w.cursor, w.topLine = 1, 1
		w.layout = layout
		m.current = w.id
		m.mu.Unlock()
		return w.id, nil
	}
	m.mu.Unlock()
	return m.OpenWindow(ctx, previewBuf, RolePreview, layout)
}

// SetWindowOptions applies window-local options.
func (m *Memory) SetWindowOptions(ctx context.Context, id WinID, opts []WindowOption) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, err := m.win(id)
	if err != nil {
		return err
	}
	for _, o := range opts {
		w.options[o.Name] = o.Value
	}
	return nil
}

// SetWindowHighlight sets the window's highlight mapping.
func (m *Memory) SetWindowHighlight(ctx context.Context, id WinID, hl string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, err := m.win(id)
	if err != nil {
		return err
	}
	w.highlight = hl
	return nil
}

// SetStatusline sets the window's status line.
func (m *Memory) SetStatusline(ctx context.Context, id WinID, s string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, err := m.win(id)
	if err != nil {
		return err
	}
	w.statusline = s
	return nil
}

// Cursor returns the window's cursor line.
func (m *Memory) Cursor(ctx context.Context, id WinID) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, err := m.win(id)
	if err != nil {
		return 0, err
	}
	return w.cursor, nil
}

// SetCursor moves the window's cursor, clamped to the buffer.
func (m *Memory) SetCursor(ctx context.Context, id WinID, line int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, err := m.win(id)
	if err != nil {
		return err
	}
	m.moveCursor(w, line)
	return nil
}

// CenterCursor scrolls so the cursor line is in the middle of the window.
func (m *Memory) CenterCursor(ctx context.Context, id WinID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, err := m.win(id)
	if err != nil {
		return err
	}
	m.center(w)
	return nil
}

func (m *Memory) moveCursor(w *window, line int) {
	n := 1
	if b, ok := m.bufs[w.buf]; ok {
		n = len(b.lines)
	}
	w.cursor = clamp(line, 1, n)
	h := m.height(w)
	if w.cursor < w.topLine {
		w.topLine = w.cursor
	} else if h > 0 && w.cursor >= w.topLine+h {
		w.topLine = w.cursor - h + 1
	}
}

func (m *Memory) center(w *window) {
	h := m.height(w)
	top := w.cursor - h/2
	if top < 1 {
		top = 1
	}
	w.topLine = top
}

func (m *Memory) height(w *window) int {
	if w.layout.Height > 0 {
		return w.layout.Height
	}
	return m.lines
}

// Title returns the terminal title.
func (m *Memory) Title(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.title, nil
}

// SetTitle sets the terminal title.
func (m *Memory) SetTitle(ctx context.Context, title string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.title = title
	return nil
}

// SaveTitle remembers the current title unless one is already saved.
func (m *Memory) SaveTitle(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.savedTitle == nil {
		t := m.title
		m.savedTitle = &t
	}
	return nil
}

// RestoreTitle puts back the saved title, if any, and forgets it.
func (m *Memory) RestoreTitle(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.savedTitle != nil {
		m.title = *m.savedTitle
		m.savedTitle = nil
	}
	return nil
}

// CallCallback invokes a callback registered under name.
func (m *Memory) CallCallback(ctx context.Context, name string, payload any) error {
	m.mu.Lock()
	fn, ok := m.callbacks[name]
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("callback %q: %w", name, ErrUnknownCmd)
	}
	return fn(payload)
}

// OpenTerminal replaces the window's buffer with a new terminal buffer and
// starts cmds in it.
func (m *Memory) OpenTerminal(ctx context.Context, id WinID, cmds []string, cwd string) (BufNr, error) {
	m.mu.Lock()
	w, err := m.win(id)
	if err != nil {
		m.mu.Unlock()
		return NoBuffer, err
	}
	b := m.newBuffer(fmt.Sprintf("term://%d", m.nextBuf))
	b.terminal = true
	b.scratch = true
	b.lines = nil
	w.buf = b.nr
	w.cursor, w.topLine = 1, 1
	runner := m.runner
	m.mu.Unlock()

	if runner != nil {
		runner(cmds, cwd, func(lines ...string) { m.appendLines(b.nr, lines) })
	}
	return b.nr, nil
}

func (m *Memory) appendLines(nr BufNr, lines []string) {
	m.mu.Lock()
	b, ok := m.bufs[nr]
	if ok {
		b.lines = append(b.lines, lines...)
	}
	notify := m.onChange
	m.mu.Unlock()
	if ok && notify != nil {
		notify()
	}
}

// Windows returns the windows in creation order.
func (m *Memory) Windows() []Window {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Window, 0, len(m.order))
	for _, id := range m.order {
		w := m.wins[id]
		out = append(out, Window{
			ID: w.id, Buf: w.buf, Role: w.role, Layout: w.layout,
			Cursor: w.cursor, TopLine: w.topLine, Options: maps.Clone(w.options),
			Highlight: w.highlight, Statusline: w.statusline,
		})
	}
	return out
}

// Buffer returns a copy of a buffer's state.
func (m *Memory) Buffer(nr BufNr) (Buffer, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bufs[nr]
	if !ok {
		return Buffer{}, false
	}
	return Buffer{
		Nr: b.nr, Name: b.name, Lines: slices.Clone(b.lines), Filetype: b.filetype,
		Syntax: b.syntax, Scratch: b.scratch, Terminal: b.terminal,
		Highlights: slices.Clone(b.highlights), Selected: slices.Clone(b.selected),
		Vars: maps.Clone(b.vars),
	}, true
}

// Current returns the focused window id without a context.
func (m *Memory) Current() WinID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
