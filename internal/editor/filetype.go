package editor

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
)

// DetectFiletype guesses a filetype for the buffer from its name and, when
// the name is inconclusive, from its contents. It returns "" when nothing
// matches.
func (m *Memory) DetectFiletype(ctx context.Context, nr BufNr) (string, error) {
	m.mu.Lock()
	b, err := m.buf(nr)
	if err != nil {
		m.mu.Unlock()
		return "", err
	}
	name := strings.TrimPrefix(b.name, "filer-preview:")
	text := strings.Join(b.lines, "\n")
	m.mu.Unlock()

	return Filetype(name, text), nil
}

// Filetype returns the lowercase lexer name for a file name and contents.
func Filetype(name, text string) string {
	var lexer chroma.Lexer
	if name != "" {
		lexer = lexers.Match(filepath.Base(name))
	}
	if lexer == nil && text != "" {
		lexer = lexers.Analyse(text)
	}
	if lexer == nil {
		return ""
	}
	return strings.ToLower(lexer.Config().Name)
}
