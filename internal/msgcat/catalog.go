package msgcat

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
	"text/template"

	yaml "gopkg.in/yaml.v3"
)

//go:embed messages.en.yaml
var embedded embed.FS

// Catalog holds parsed message templates keyed by dotted path ("cricket.help").
// It is immutable after New and safe for concurrent use.
type Catalog struct {
	tpls map[string]*template.Template
}

var (
	defaultOnce sync.Once
	defaultCat  *Catalog
)

// Default returns the embedded catalog without overrides.
func Default() *Catalog {
	defaultOnce.Do(func() {
		c, err := New("")
		if err != nil {
			c = &Catalog{tpls: map[string]*template.Template{}}
		}
		defaultCat = c
	})
	return defaultCat
}

// New loads the embedded messages, then every *.yaml / *.yml file of overrideDir in name order.
// A key may be overridden once; the same key in two override files is an error.
func New(overrideDir string) (*Catalog, error) {
	texts := make(map[string]string)
	if err := loadFS(embedded, texts, nil); err != nil {
		return nil, fmt.Errorf("embedded messages: %w", err)
	}
	if dir := strings.TrimSpace(overrideDir); dir != "" {
		if err := loadFS(os.DirFS(dir), texts, map[string]string{}); err != nil {
			return nil, fmt.Errorf("messages dir %s: %w", dir, err)
		}
	}

	c := &Catalog{tpls: make(map[string]*template.Template, len(texts))}
	for key, src := range texts {
		if strings.TrimSpace(src) == "" {
			continue
		}
		t, err := template.New(key).Option("missingkey=error").Parse(src)
		if err != nil {
			return nil, fmt.Errorf("template %s: %w", key, err)
		}
		c.tpls[key] = t
	}
	return c, nil
}

// loadFS merges the yaml files at the root of fsys into texts. With owners non-nil, a key defined by
// two files fails.
func loadFS(fsys fs.FS, texts, owners map[string]string) error {
	names, err := yamlFiles(fsys)
	if err != nil {
		return err
	}
	for _, name := range names {
		raw, err := fs.ReadFile(fsys, name)
		if err != nil {
			return err
		}
		var doc map[string]any
		if err := yaml.Unmarshal(raw, &doc); err != nil {
			return fmt.Errorf("parse %s: %w", name, err)
		}
		flat := make(map[string]string)
		if err := flatten(doc, "", flat); err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		for k, v := range flat {
			if owners != nil {
				if prev, dup := owners[k]; dup {
					return fmt.Errorf("duplicate override key %q in %s and %s", k, prev, name)
				}
				owners[k] = name
			}
			texts[k] = v
		}
	}
	return nil
}

func yamlFiles(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		switch strings.ToLower(path.Ext(e.Name())) {
		case ".yaml", ".yml":
			if !e.IsDir() {
				names = append(names, e.Name())
			}
		}
	}
	sort.Strings(names)
	return names, nil
}

// flatten writes string leaves under dotted keys. Any other leaf type is rejected.
func flatten(node any, prefix string, out map[string]string) error {
	switch v := node.(type) {
	case nil:
		return nil
	case map[string]any:
		for k, child := range v {
			key := k
			if prefix != "" {
				key = prefix + "." + k
			}
			if err := flatten(child, key, out); err != nil {
				return err
			}
		}
		return nil
	case string:
		if prefix == "" {
			return errors.New("top-level string has no key")
		}
		out[prefix] = v
		return nil
	default:
		return fmt.Errorf("unsupported value at %s: %T", prefix, v)
	}
}

// Has reports whether key has a template.
func (c *Catalog) Has(key string) bool {
	_, ok := c.tpls[strings.TrimSpace(key)]
	return ok
}

// Keys lists the loaded keys in sorted order.
func (c *Catalog) Keys() []string {
	out := make([]string, 0, len(c.tpls))
	for k := range c.tpls {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Render executes the template for key. Unknown keys and missing data fields are errors.
func (c *Catalog) Render(key string, data any) (string, error) {
	t, ok := c.tpls[strings.TrimSpace(key)]
	if !ok {
		return "", fmt.Errorf("template not found: %s", key)
	}
	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", err
	}
	return b.String(), nil
}
