package uploads

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrUnsupportedType = errors.New("unsupported image type")

	// allowedExtensions is the upload allow-list; anything else is rejected
	// before a byte touches disk.
	allowedExtensions = map[string]bool{
		"jpg":  true,
		"jpeg": true,
		"png":  true,
		"gif":  true,
		"webp": true,
		"avif": true,
	}
)

// LocalStore keeps uploaded product images as flat files in one directory.
// Filenames are opaque server-generated tokens; the original client filename
// only contributes its extension.
type LocalStore struct {
	dir string
}

func NewLocal(dir string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{dir: dir}, nil
}

func (s *LocalStore) Dir() string { return s.dir }

// Save validates the upload and streams it into the store, returning the
// generated filename token. The extension allow-list is the contract; the MIME
// sniff of the first 512 bytes is a second guard against mislabeled content.
func (s *LocalStore) Save(src io.ReadSeeker, originalName string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filepath.Base(originalName)), "."))
	if !allowedExtensions[ext] {
		return "", ErrUnsupportedType
	}

	mime, err := sniffMIME(src)
	if err != nil {
		return "", err
	}
	// DetectContentType has no signature for every allowed format (avif falls
	// through to octet-stream), so only reject clearly non-image content.
	if !strings.HasPrefix(mime, "image/") && mime != "application/octet-stream" {
		return "", ErrUnsupportedType
	}

	name := fmt.Sprintf("product_%x_%s.%s", time.Now().UnixNano(), uuid.NewString()[:8], ext)

	dst, err := os.Create(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("create upload: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("write upload: %w", err)
	}
	return name, nil
}

// Remove deletes a stored file by its token. A file that is already gone is
// not an error: delete cleanup must tolerate dangling references.
func (s *LocalStore) Remove(name string) error {
	name = filepath.Base(name)
	if name == "." || name == string(filepath.Separator) {
		return nil
	}
	if err := os.Remove(filepath.Join(s.dir, name)); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// sniffMIME reads the first 512 bytes and resets the reader.
func sniffMIME(src io.ReadSeeker) (string, error) {
	buf := make([]byte, 512)
	n, err := src.Read(buf)
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("read: %w", err)
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return "", fmt.Errorf("seek reset: %w", err)
	}
	return http.DetectContentType(buf[:n]), nil
}
