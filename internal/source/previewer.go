package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/marcus/filer/internal/editor"
	"github.com/marcus/filer/internal/item"
	"github.com/marcus/filer/internal/plugin"
	"github.com/marcus/filer/internal/preview"
)

// SyntaxANSI marks preview contents that already carry terminal styling.
const SyntaxANSI = "ansi"

const defaultMarkdownWidth = 80

var markdownExtensions = map[string]struct{}{
	".md": {}, ".markdown": {}, ".mdown": {}, ".mkd": {},
}

// Previewer classifies items for the preview window: directories list
// their entries, binaries get a one-line summary, markdown is rendered and
// everything else is shown as the file itself.
type Previewer struct {
	log        *slog.Logger
	ShowHidden bool

	mu        sync.Mutex
	renderers map[int]*glamour.TermRenderer
}

// NewPreviewer returns a Previewer.
func NewPreviewer(log *slog.Logger) *Previewer {
	if log == nil {
		log = slog.Default()
	}
	return &Previewer{log: log, renderers: make(map[int]*glamour.TermRenderer)}
}

// ResolvePreviewer implements preview.Resolver.
//
// Action params: "terminal" runs the listed commands instead, "markdown"
// set to false shows markdown as source, "pattern" and "lineNr" position
// the preview cursor.
func (p *Previewer) ResolvePreviewer(ctx context.Context, it *item.Item, params plugin.ActionParams, pctx preview.Context) (preview.Previewer, error) {
	path := it.Action.Path
	if path == "" {
		path = it.TreePath
	}
	if cmds := stringList(params["terminal"]); len(cmds) > 0 {
		cwd := path
		if !it.Action.IsDirectory {
			cwd = filepath.Dir(path)
		}
		return &preview.TerminalPreviewer{Cmds: cmds, Cwd: cwd}, nil
	}
	if path == "" {
		return nil, nil
	}

	fi, err := os.Stat(path)
	if err != nil {
		// The controller reports unreadable paths itself.
		return &preview.BufferPreviewer{Path: path}, nil
	}
	if fi.IsDir() {
		return p.directory(path)
	}

	sample, err := readHead(path, textSampleSize)
	if err != nil {
		return &preview.BufferPreviewer{Path: path}, nil
	}
	if !IsText(path, sample) {
		return &preview.NoFilePreviewer{Contents: []string{
			"Binary file",
			fmt.Sprintf("%s, %s", filepath.Base(path), formatSize(fi.Size())),
		}}, nil
	}

	if hasUTF16BOM(sample) {
		return p.utf16(path)
	}

	if _, ok := markdownExtensions[strings.ToLower(filepath.Ext(path))]; ok && params.Bool("markdown", true) {
		pv, err := p.markdown(path, pctx.Width)
		if err == nil {
			return pv, nil
		}
		p.log.Warn("source: markdown render failed", "path", path, "error", err)
	}

	return &preview.BufferPreviewer{
		Path:    path,
		Pattern: params.String("pattern", ""),
		LineNr:  params.Int("lineNr", 0),
	}, nil
}

func (p *Previewer) directory(path string) (preview.Previewer, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return &preview.NoFilePreviewer{Contents: []string{"Error", err.Error()}}, nil
	}
	var dirs, files []string
	for _, e := range entries {
		if !p.ShowHidden && strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if e.IsDir() {
			dirs = append(dirs, e.Name()+string(filepath.Separator))
		} else {
			files = append(files, e.Name())
		}
	}
	sort.Strings(dirs)
	sort.Strings(files)
	lines := append(dirs, files...)
	if len(lines) == 0 {
		lines = []string{"(empty)"}
	}
	return &preview.NoFilePreviewer{Contents: lines}, nil
}

func (p *Previewer) utf16(path string) (preview.Previewer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return &preview.BufferPreviewer{Path: path}, nil
	}
	text, err := decodeUTF16(data)
	if err != nil {
		return &preview.NoFilePreviewer{Contents: []string{"Error", err.Error()}}, nil
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return &preview.NoFilePreviewer{
		Contents: strings.Split(strings.TrimSuffix(text, "\n"), "\n"),
		Filetype: editor.Filetype(path, text),
	}, nil
}

func (p *Previewer) markdown(path string, width int) (preview.Previewer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	r, err := p.renderer(width)
	if err != nil {
		return nil, err
	}
	out, err := r.Render(string(data))
	if err != nil {
		return nil, err
	}
	return &preview.NoFilePreviewer{
		Contents: strings.Split(strings.TrimRight(out, "\n"), "\n"),
		Syntax:   SyntaxANSI,
	}, nil
}

func (p *Previewer) renderer(width int) (*glamour.TermRenderer, error) {
	if width <= 0 {
		width = defaultMarkdownWidth
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if r, ok := p.renderers[width]; ok {
		return r, nil
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	p.renderers[width] = r
	return r, nil
}

func stringList(v any) []string {
	switch v := v.(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, s := range v {
			if s, ok := s.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		if v != "" {
			return []string{v}
		}
	}
	return nil
}

// formatSize formats a file size in human-readable form.
func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%dB", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f%cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
