package templates

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"
)

// DefaultExt is the file extension of template sources.
const DefaultExt = ".hbs"

var idPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.-]*$`)

// Store resolves a template identifier to its source text.
type Store interface {
	Resolve(ctx context.Context, id string) (string, error)
}

// FileStore reads template sources from <root>/<id><ext>.
type FileStore struct {
	root string
	ext  string
}

// NewFileStore creates a store rooted at root. An empty ext falls back to DefaultExt.
func NewFileStore(root, ext string) *FileStore {
	if ext == "" {
		ext = DefaultExt
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return &FileStore{root: root, ext: ext}
}

// Root returns the directory the store reads from.
func (s *FileStore) Root() string { return s.root }

// Ext returns the template file extension, including the leading dot.
func (s *FileStore) Ext() string { return s.ext }

// Path maps an identifier to its source location.
func (s *FileStore) Path(id string) string {
	return filepath.Join(s.root, id+s.ext)
}

// Resolve returns the full, unmodified source of the template.
func (s *FileStore) Resolve(ctx context.Context, id string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %q: %w", ErrTemplateReadFailure, id, err)
	}
	if !ValidID(id) {
		return "", fmt.Errorf("%w: invalid identifier %q", ErrTemplateNotFound, id)
	}

	path := s.Path(id)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %q (%s)", ErrTemplateNotFound, id, path)
		}
		return "", fmt.Errorf("%w: %q: %w", ErrTemplateReadFailure, id, err)
	}
	if !utf8.Valid(b) {
		return "", fmt.Errorf("%w: %q: source is not valid UTF-8", ErrTemplateReadFailure, id)
	}

	return string(b), nil
}

// ValidID reports whether id is a filesystem-safe template identifier.
func ValidID(id string) bool {
	return idPattern.MatchString(id) && !strings.Contains(id, "..")
}
