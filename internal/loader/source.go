package loader

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// Source fetches the raw bytes of one layer file.
type Source interface {
	Fetch(ctx context.Context, file string) ([]byte, error)
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, file string) ([]byte, error)

// Fetch calls f.
func (f SourceFunc) Fetch(ctx context.Context, file string) ([]byte, error) {
	return f(ctx, file)
}

// HTTPSource fetches GET <BaseURL>/data/<file>.
type HTTPSource struct {
	BaseURL string
	Client  *http.Client
}

// NewHTTPSource creates a source rooted at baseURL.
func NewHTTPSource(baseURL string, client *http.Client) *HTTPSource {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPSource{BaseURL: strings.TrimRight(baseURL, "/"), Client: client}
}

// Fetch downloads a layer file. Non-2xx responses are errors carrying the
// status and the start of the body.
func (s *HTTPSource) Fetch(ctx context.Context, file string) ([]byte, error) {
	u := s.BaseURL + "/data/" + url.PathEscape(file)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", file, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", file, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := body
		if len(snippet) > 100 {
			snippet = snippet[:100]
		}
		return nil, fmt.Errorf("failed to load %s: %s. Response: %s", file, resp.Status, snippet)
	}
	return body, nil
}

// DirSource reads layer files from a directory on disk.
type DirSource struct {
	Dir string
}

// NewDirSource creates a source reading from dir.
func NewDirSource(dir string) *DirSource {
	return &DirSource{Dir: dir}
}

// Fetch reads a layer file after checking its name.
func (s *DirSource) Fetch(ctx context.Context, file string) ([]byte, error) {
	if err := ValidateFileName(file); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.Dir, file))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("file not found: %s", file)
		}
		return nil, err
	}
	return data, nil
}

// ValidateFileName rejects path traversal and non-GeoJSON extensions.
func ValidateFileName(name string) error {
	if name == "" || strings.Contains(name, "/") || strings.Contains(name, "\\") || strings.Contains(name, "..") {
		return fmt.Errorf("invalid filename %q", name)
	}
	ext := strings.ToLower(filepath.Ext(name))
	if ext != ".geojson" && ext != ".json" {
		return fmt.Errorf("unsupported file type: %s", ext)
	}
	return nil
}
