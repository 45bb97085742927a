package editor

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dlclark/regexp2"
)

// Jump moves the window's cursor to the first line matching pattern and
// then to lineNr, when given, and centers the view.
func (m *Memory) Jump(ctx context.Context, id WinID, pattern string, lineNr int) error {
	var re *regexp2.Regexp
	if pattern != "" {
		var err error
		re, err = regexp2.Compile(pattern, regexp2.ECMAScript)
		if err != nil {
			return fmt.Errorf("jump pattern: %w", err)
		}
		re.MatchTimeout = 100 * time.Millisecond
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	w, err := m.win(id)
	if err != nil {
		return err
	}
	b, err := m.buf(w.buf)
	if err != nil {
		return err
	}

	if re != nil {
		for i, line := range b.lines {
			if ok, _ := re.MatchString(line); ok {
				m.moveCursor(w, i+1)
				break
			}
		}
	}
	if lineNr > 0 {
		m.moveCursor(w, lineNr)
	}
	m.center(w)
	return nil
}

// Execute runs a small ex-style command in a window. Supported forms:
//
//	normal! gg | normal! G | normal! zz | <number> | setlocal name[=value]
func (m *Memory) Execute(ctx context.Context, id WinID, cmd string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	w, err := m.win(id)
	if err != nil {
		return err
	}
	n := 1
	if b, ok := m.bufs[w.buf]; ok {
		n = len(b.lines)
	}

	cmd = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(cmd), ":"))
	switch {
	case cmd == "normal! gg" || cmd == "normal gg":
		m.moveCursor(w, 1)
	case cmd == "normal! G" || cmd == "normal G":
		m.moveCursor(w, n)
	case cmd == "normal! zz" || cmd == "normal zz":
		m.center(w)
	case strings.HasPrefix(cmd, "setlocal "):
		for _, opt := range strings.Fields(strings.TrimPrefix(cmd, "setlocal ")) {
			name, value, found := strings.Cut(opt, "=")
			switch {
			case found:
				w.options[name] = value
			case strings.HasPrefix(name, "no"):
				w.options[strings.TrimPrefix(name, "no")] = false
			default:
				w.options[name] = true
			}
		}
	default:
		line, err := strconv.Atoi(cmd)
		if err != nil {
			return fmt.Errorf("%q: %w", cmd, ErrUnknownCmd)
		}
		m.moveCursor(w, line)
	}
	return nil
}
