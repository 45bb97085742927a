package app

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"sync/atomic"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/marcus/filer/internal/editor"
)

// BufferChangedMsg is sent when a buffer changed outside the update loop,
// e.g. terminal output arrived.
type BufferChangedMsg struct{}

// ProgramRef hands messages to the running program once it exists. The
// editor is created before the program, so its change callback goes
// through this.
type ProgramRef struct {
	p atomic.Pointer[tea.Program]
}

// Set stores the running program.
func (r *ProgramRef) Set(p *tea.Program) { r.p.Store(p) }

// Send delivers msg to the program, dropping it when there is none yet.
func (r *ProgramRef) Send(msg tea.Msg) {
	if p := r.p.Load(); p != nil {
		p.Send(msg)
	}
}

// NotifyChanged is an editor change callback.
func (r *ProgramRef) NotifyChanged() { r.Send(BufferChangedMsg{}) }

// TerminalRunner runs terminal preview commands with os/exec, streaming
// combined output into the terminal buffer line by line.
func TerminalRunner(log *slog.Logger) editor.TerminalRunner {
	if log == nil {
		log = slog.Default()
	}
	return func(cmds []string, cwd string, appendLines func(lines ...string)) {
		if len(cmds) == 0 {
			return
		}
		c := exec.Command(cmds[0], cmds[1:]...)
		c.Dir = cwd
		pr, pw := io.Pipe()
		c.Stdout = pw
		c.Stderr = pw
		if err := c.Start(); err != nil {
			log.Error("terminal: start", "cmd", cmds[0], "error", err)
			appendLines(err.Error())
			return
		}

		go func() {
			_ = pw.CloseWithError(c.Wait())
		}()
		go func() {
			sc := bufio.NewScanner(pr)
			for sc.Scan() {
				appendLines(sc.Text())
			}
			code := 0
			if err := sc.Err(); err != nil {
				var exitErr *exec.ExitError
				if !errors.As(err, &exitErr) {
					log.Error("terminal: read output", "cmd", cmds[0], "error", err)
				}
				code = c.ProcessState.ExitCode()
			}
			appendLines("", fmt.Sprintf("[Process exited %d]", code))
		}()
	}
}
