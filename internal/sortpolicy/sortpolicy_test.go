package sortpolicy

import (
	"math/rand"
	"testing"

	"github.com/marcus/filer/internal/item"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func words(items []*item.Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Word
	}
	return out
}

func file(word string, size int64) *item.Item {
	return &item.Item{Word: word, Status: &item.Status{Size: size, Time: size * 10}}
}

func dir(word string) *item.Item {
	return &item.Item{Word: word, IsTree: true}
}

func TestParseMode(t *testing.T) {
	tests := []struct {
		in   string
		want Mode
	}{
		{"filename", ModeFilename},
		{"Filename", ModeFilename},
		{"EXTENSION", ModeExtension},
		{"size", ModeSize},
		{"Time", ModeTime},
		{"none", ModeNone},
		{"bogus", ModeNone},
		{"", ModeNone},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseMode(tt.in))
		})
	}
}

func TestSort_Modes(t *testing.T) {
	in := []*item.Item{file("b.txt", 3), file("a.go", 1), file("c.md", 2), {Word: "d"}}

	tests := []struct {
		name   string
		policy Policy
		want   []string
	}{
		{"none keeps order", Policy{Mode: ModeNone}, []string{"b.txt", "a.go", "c.md", "d"}},
		{"filename", Policy{Mode: ModeFilename}, []string{"a.go", "b.txt", "c.md", "d"}},
		{"filename reversed", Policy{Mode: ModeFilename, Reverse: true}, []string{"d", "c.md", "b.txt", "a.go"}},
		{"extension", Policy{Mode: ModeExtension}, []string{"d", "a.go", "c.md", "b.txt"}},
		{"size missing first", Policy{Mode: ModeSize}, []string{"d", "a.go", "c.md", "b.txt"}},
		{"time", Policy{Mode: ModeTime}, []string{"d", "a.go", "c.md", "b.txt"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Items(tt.policy, in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, words(got))
		})
	}
	assert.Equal(t, []string{"b.txt", "a.go", "c.md", "d"}, words(in), "input must not be reordered")
}

func TestSort_TreesFirst(t *testing.T) {
	in := []*item.Item{file("z", 1), dir("y"), file("a", 1), dir("b")}
	got, err := Items(Policy{Mode: ModeNone, TreesFirst: true}, in)
	require.NoError(t, err)
	assert.Equal(t, []string{"y", "b", "z", "a"}, words(got), "partition keeps relative order")
}

func TestSort_TreesFirstNeverFileBeforeDirAndIdempotent(t *testing.T) {
	base := []*item.Item{
		file("/r/a.txt", 5), dir("/r/sub"), file("/r/b.go", 2),
		dir("/r/alpha"), file("/r/.hidden", 0), dir("/r/zeta"), file("/r/c", 9),
	}
	rng := rand.New(rand.NewSource(1))
	for _, mode := range []Mode{ModeNone, ModeFilename, ModeExtension, ModeSize, ModeTime} {
		for n := 0; n < 20; n++ {
			in := append([]*item.Item(nil), base...)
			rng.Shuffle(len(in), func(i, j int) { in[i], in[j] = in[j], in[i] })

			p := Policy{Mode: mode, TreesFirst: true}
			once, err := Items(p, in)
			require.NoError(t, err)

			seenFile := false
			for _, it := range once {
				if !it.IsTree {
					seenFile = true
				} else {
					require.False(t, seenFile, "mode %s: directory %s after a file", mode, it.Word)
				}
			}

			twice, err := Items(p, once)
			require.NoError(t, err)
			assert.Equal(t, words(once), words(twice), "mode %s not idempotent", mode)
		}
	}
}

func TestSort_FileFilter(t *testing.T) {
	in := []*item.Item{file("/r/a.go", 1), dir("/r/pkg"), file("/r/b.txt", 1), file("/r/c_test.go", 1)}
	got, err := Items(Policy{FileFilter: `\.go$`}, in)
	require.NoError(t, err)
	assert.Equal(t, []string{"/r/a.go", "/r/pkg", "/r/c_test.go"}, words(got))
}

func TestNew_InvalidFilter(t *testing.T) {
	_, err := New(Policy{FileFilter: "("})
	assert.Error(t, err)
}

func TestExtname(t *testing.T) {
	tests := map[string]string{
		"/r/a.go":        ".go",
		"/r/archive.tar": ".tar",
		"/r/.gitignore":  "",
		"/r/Makefile":    "",
		"/r/dir.d/":      ".d",
	}
	for in, want := range tests {
		assert.Equal(t, want, extname(in), in)
	}
}
