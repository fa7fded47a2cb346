package kif

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/transform"
)

// DecodeInput returns data as UTF-8 text. A UTF-8 BOM is dropped and
// anything that is not valid UTF-8 is read as Shift-JIS.
func DecodeInput(data []byte) (string, error) {
	if bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}) {
		data = data[3:]
	}
	if utf8.Valid(data) {
		return string(data), nil
	}
	reader := transform.NewReader(bytes.NewReader(data), japanese.ShiftJIS.NewDecoder())
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	if !utf8.Valid(decoded) {
		return "", errors.New("failed to decode Shift-JIS input")
	}
	return string(decoded), nil
}

// EncodeOutput converts UTF-8 text to the named output encoding.
func EncodeOutput(text []byte, encoding string) ([]byte, error) {
	switch normalizeEncoding(encoding) {
	case "utf-8":
		return text, nil
	case "shift_jis":
		out, _, err := transform.Bytes(japanese.ShiftJIS.NewEncoder(), text)
		if err != nil {
			return nil, fmt.Errorf("encode shift_jis: %w", err)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported output encoding %q", encoding)
	}
}

func normalizeEncoding(name string) string {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8":
		return "utf-8"
	case "shift_jis", "shift-jis", "sjis", "cp932":
		return "shift_jis"
	default:
		return name
	}
}

// WriteFileAtomic writes data next to path and renames it into place, so
// a failed run never leaves a truncated file behind.
func WriteFileAtomic(path string, data []byte, perm os.FileMode) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	defer os.Remove(name)
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(name, path)
}
