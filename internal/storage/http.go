package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/Nixie-Tech-LLC/iqamah/internal/fetch"
)

// HTTPStorage reads documents published under a base URL, e.g. a CDN in front
// of the site's /data directory. Directories are listed through an index.json
// holding an array of child names.
type HTTPStorage struct {
	baseURL string
	client  *fetch.Client
}

func NewHTTPStorage(baseURL string, client *fetch.Client) *HTTPStorage {
	return &HTTPStorage{baseURL: strings.TrimSuffix(baseURL, "/"), client: client}
}

func (hs *HTTPStorage) url(name string) (string, error) {
	clean, err := cleanName(name)
	if err != nil {
		return "", err
	}
	return hs.baseURL + "/" + clean, nil
}

func (hs *HTTPStorage) Read(ctx context.Context, name string) ([]byte, error) {
	u, err := hs.url(name)
	if err != nil {
		return nil, err
	}
	data, err := hs.client.Get(ctx, u)
	if fetch.IsNotFound(err) {
		return nil, fmt.Errorf("%w: %s: %w", ErrNotFound, name, err)
	}
	return data, err
}

func (hs *HTTPStorage) List(ctx context.Context, dir string) ([]string, error) {
	data, err := hs.Read(ctx, strings.TrimSuffix(dir, "/")+"/index.json")
	if err != nil {
		return nil, err
	}
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return nil, fmt.Errorf("decode %s index: %w", dir, err)
	}
	return names, nil
}

func (hs *HTTPStorage) Write(context.Context, string, []byte) error {
	return ErrReadOnly
}
