package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/tailscale/hujson"
	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultCatalog []byte

// Default returns the built-in project-graph catalog.
func Default() Catalog {
	c, err := Parse(defaultCatalog, FormatYAML)
	if err != nil {
		panic(fmt.Sprintf("parsing built-in catalog: %s", err))
	}
	return c
}

type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatOf guesses the encoding of a catalog from its file name.
// JSON files may carry comments and trailing commas.
func FormatOf(fileOrURL string) Format {
	switch strings.ToLower(filepath.Ext(fileOrURL)) {
	case ".json", ".jsonc", ".hujson":
		return FormatJSON
	default:
		return FormatYAML
	}
}

// Load reads a catalog from a local file or an http(s) URL.
func Load(ctx context.Context, fileOrURL string) (Catalog, error) {
	buf, err := readFileOrURL(ctx, fileOrURL)
	if err != nil {
		return Catalog{}, err
	}

	c, err := Parse(buf, FormatOf(fileOrURL))
	if err != nil {
		return Catalog{}, fmt.Errorf("parsing catalog %s: %w", fileOrURL, err)
	}

	return c, nil
}

// Parse decodes a catalog. YAML documents are first converted to JSON so that
// tool schemas go through the jsonschema decoder in both formats.
func Parse(buf []byte, format Format) (Catalog, error) {
	var (
		jsonBuf []byte
		err     error
	)

	switch format {
	case FormatJSON:
		jsonBuf, err = hujson.Standardize(buf)
		if err != nil {
			return Catalog{}, err
		}
	default:
		var doc any
		if err := yaml.Unmarshal(buf, &doc); err != nil {
			return Catalog{}, err
		}
		if doc == nil {
			return Catalog{}, nil
		}
		jsonBuf, err = json.Marshal(doc)
		if err != nil {
			return Catalog{}, err
		}
	}

	var c Catalog
	decoder := json.NewDecoder(bytes.NewReader(jsonBuf))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&c); err != nil {
		return Catalog{}, err
	}

	if err := c.validate(); err != nil {
		return Catalog{}, err
	}

	return c, nil
}

func (c *Catalog) validate() error {
	uris := map[string]bool{}
	for _, r := range c.Resources {
		if r.URI == "" {
			return fmt.Errorf("resource %q has no uri", r.Name)
		}
		if uris[r.URI] {
			return fmt.Errorf("duplicate resource %q", r.URI)
		}
		uris[r.URI] = true
	}

	tools := map[string]bool{}
	for _, t := range c.Tools {
		if t.Name == "" {
			return fmt.Errorf("tool without a name")
		}
		if tools[t.Name] {
			return fmt.Errorf("duplicate tool %q", t.Name)
		}
		tools[t.Name] = true
	}

	prompts := map[string]bool{}
	for _, p := range c.Prompts {
		if p.Name == "" {
			return fmt.Errorf("prompt without a name")
		}
		if prompts[p.Name] {
			return fmt.Errorf("duplicate prompt %q", p.Name)
		}
		prompts[p.Name] = true
	}

	return nil
}

func readFileOrURL(ctx context.Context, fileOrURL string) ([]byte, error) {
	if !isURL(fileOrURL) {
		return os.ReadFile(fileOrURL)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileOrURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch URL: %s, status: %s", fileOrURL, resp.Status)
	}

	return io.ReadAll(resp.Body)
}

func isURL(fileOrURL string) bool {
	return strings.HasPrefix(fileOrURL, "http://") || strings.HasPrefix(fileOrURL, "https://")
}
