package source

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

const (
	textSampleSize        = 4096
	nonPrintableThreshold = 30 // percent
)

var binaryExtensions = map[string]struct{}{
	".7z": {}, ".bin": {}, ".bmp": {}, ".bz2": {}, ".class": {}, ".dll": {},
	".dylib": {}, ".exe": {}, ".gif": {}, ".gz": {}, ".ico": {}, ".iso": {},
	".jar": {}, ".jpeg": {}, ".jpg": {}, ".mp3": {}, ".mp4": {}, ".o": {},
	".pdf": {}, ".png": {}, ".so": {}, ".tar": {}, ".tgz": {}, ".ttf": {},
	".wasm": {}, ".woff": {}, ".woff2": {}, ".xz": {}, ".zip": {},
}

// IsText reports whether content sampled from path looks like text.
func IsText(path string, sample []byte) bool {
	if _, ok := binaryExtensions[strings.ToLower(filepath.Ext(path))]; ok {
		return false
	}
	if len(sample) == 0 {
		return true
	}
	if len(sample) > textSampleSize {
		sample = sample[:textSampleSize]
	}
	if hasUTF16BOM(sample) || bytes.HasPrefix(sample, []byte{0xEF, 0xBB, 0xBF}) {
		return true
	}
	if bytes.IndexByte(sample, 0) != -1 {
		return false
	}
	if utf8.Valid(sample) {
		return true
	}

	nonPrintable := 0
	for _, b := range sample {
		if b < 0x20 && b != '\t' && b != '\n' && b != '\r' && b != 0x1B {
			nonPrintable++
		}
	}
	return nonPrintable*100/len(sample) < nonPrintableThreshold
}

func hasUTF16BOM(b []byte) bool {
	return len(b) >= 2 && ((b[0] == 0xFF && b[1] == 0xFE) || (b[0] == 0xFE && b[1] == 0xFF))
}

// readHead returns up to limit bytes from the start of path.
func readHead(path string, limit int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return io.ReadAll(io.LimitReader(f, limit))
}

// decodeUTF16 converts BOM-prefixed UTF-16 content to UTF-8.
func decodeUTF16(content []byte) (string, error) {
	endian := unicode.LittleEndian
	if content[0] == 0xFE {
		endian = unicode.BigEndian
	}
	out, err := unicode.UTF16(endian, unicode.ExpectBOM).NewDecoder().Bytes(content)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
