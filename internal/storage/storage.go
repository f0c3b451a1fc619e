package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

var (
	ErrNotFound = errors.New("document not found")
	ErrReadOnly = errors.New("storage is read-only")
)

// Storage holds static calendar documents under slash-separated names such as
// "mosques/example-mosque/march.json".
type Storage interface {
	Read(ctx context.Context, name string) ([]byte, error)
	// List returns the immediate child names of dir.
	List(ctx context.Context, dir string) ([]string, error)
	Write(ctx context.Context, name string, data []byte) error
}

// MonthlyDocument is the conventional name of a mosque's monthly calendar.
func MonthlyDocument(slug, month string) string {
	return path.Join("mosques", slug, month+".json")
}

// RamadanDocument is the conventional name of a mosque's Ramadan calendar.
func RamadanDocument(slug string) string {
	return path.Join("mosques", slug, "ramadan.json")
}

// cleanName rejects names that would escape the storage root.
func cleanName(name string) (string, error) {
	clean := path.Clean("/" + name)[1:]
	if clean == "" || clean != strings.Trim(name, "/") || strings.Contains(clean, "..") {
		return "", fmt.Errorf("invalid document name %q", name)
	}
	return clean, nil
}

type LocalStorage struct {
	dir string
}

func NewLocalStorage(dir string) *LocalStorage {
	return &LocalStorage{dir: dir}
}

func (ls *LocalStorage) Read(_ context.Context, name string) ([]byte, error) {
	clean, err := cleanName(name)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(ls.dir, filepath.FromSlash(clean)))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, clean)
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", clean, err)
	}
	return data, nil
}

func (ls *LocalStorage) List(_ context.Context, dir string) ([]string, error) {
	clean, err := cleanName(dir)
	if err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(filepath.Join(ls.dir, filepath.FromSlash(clean)))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", clean, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names, nil
}

func (ls *LocalStorage) Write(_ context.Context, name string, data []byte) error {
	clean, err := cleanName(name)
	if err != nil {
		return err
	}
	full := filepath.Join(ls.dir, filepath.FromSlash(clean))
	if err := os.MkdirAll(filepath.Dir(full), 0755); err != nil {
		return fmt.Errorf("failed to create document directory: %w", err)
	}

	// Write to a sibling then rename so readers never see a partial document.
	tmp, err := os.CreateTemp(filepath.Dir(full), ".upload-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to save document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to save document: %w", err)
	}
	if err := os.Rename(tmp.Name(), full); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("failed to save document: %w", err)
	}
	log.Debug().Str("name", clean).Int("bytes", len(data)).Msg("calendar document saved")
	return nil
}
