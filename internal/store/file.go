package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/phrasecrawl/internal/model"
)

// ErrCorrupt is returned (wrapped) by Load when the store exists but cannot be
// read or decoded. The collection returned alongside it is empty.
var ErrCorrupt = errors.New("store is unreadable")

// indent is the indentation of the persisted JSON document.
const indent = "    "

// File is a JSON file holding the phrase collection.
type File struct {
	// Path is the location of the JSON document.
	Path string
}

// NewFile returns a store backed by the file at path.
func NewFile(path string) *File {
	return &File{Path: path}
}

// Load reads the collection.
//
// A missing file yields an empty collection and a nil error. A file that
// cannot be read or parsed yields an empty collection and an error wrapping
// ErrCorrupt; callers are expected to log it and continue.
// Records with an empty id are ignored. When an id repeats, the last record
// wins and keeps the position of the first.
func (f *File) Load() (*model.Collection, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return model.NewCollection(), nil
		}
		return model.NewCollection(), fmt.Errorf("%w: %s: %w", ErrCorrupt, f.Path, err)
	}

	var phrases []*model.Phrase
	if err := json.Unmarshal(data, &phrases); err != nil {
		return model.NewCollection(), fmt.Errorf("%w: %s: %w", ErrCorrupt, f.Path, err)
	}

	c := model.NewCollection()
	for _, p := range phrases {
		if p == nil || p.ID == "" {
			continue
		}
		c.Put(p)
	}
	return c, nil
}

// Save replaces the stored collection with phrases, in order.
func (f *File) Save(phrases []*model.Phrase) error {
	data, err := Encode(phrases)
	if err != nil {
		return err
	}
	return writeAtomic(f.Path, data)
}

// Encode renders phrases as the store document: a JSON array indented with
// four spaces, HTML left unescaped, ending with a newline.
func Encode(phrases []*model.Phrase) ([]byte, error) {
	if phrases == nil {
		phrases = []*model.Phrase{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	if err := enc.Encode(phrases); err != nil {
		return nil, fmt.Errorf("failed to encode phrases: %w", err)
	}
	return buf.Bytes(), nil
}

// writeAtomic writes data to a sibling temporary file, syncs it and renames
// it over path.
func writeAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary store file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write store: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync store: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close store: %w", err)
	}
	if err = os.Chmod(tmpName, 0o644); err != nil { //nolint:gosec // The store is a plain data file meant to be shared.
		return fmt.Errorf("failed to set store permissions: %w", err)
	}
	if err = os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("failed to replace store: %w", err)
	}
	return nil
}
