// Package catalog serves the marketplace listing: models, datasets, model API
// docs and landing content.
package catalog

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/modelhub/portal/internal/model"
)

//go:embed catalog.yaml
var embedded []byte

// ErrNotFound is returned when a model or dataset does not exist.
var ErrNotFound = errors.New("catalog entry not found")

// Catalog is an immutable, in-memory marketplace listing.
type Catalog struct {
	landing  model.Landing
	models   []model.CatalogModel
	datasets []model.Dataset
}

type document struct {
	Landing  model.Landing        `yaml:"landing"`
	Models   []model.CatalogModel `yaml:"models"`
	Datasets []model.Dataset      `yaml:"datasets"`
}

// Load reads the catalog from path, or the built-in catalog when path is empty.
func Load(path string) (*Catalog, error) {
	if path == "" {
		return Parse(bytes.NewReader(embedded))
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	return Parse(f)
}

// Parse decodes and validates a catalog document.
func Parse(r io.Reader) (*Catalog, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	if err := validate(&doc); err != nil {
		return nil, err
	}

	for i := range doc.Models {
		if doc.Models[i].Docs != nil {
			doc.Models[i].Docs.ModelID = doc.Models[i].ID
		}
	}

	return &Catalog{
		landing:  doc.Landing,
		models:   doc.Models,
		datasets: doc.Datasets,
	}, nil
}

func validate(doc *document) error {
	var errs []error

	seen := make(map[string]bool)
	for _, m := range doc.Models {
		if m.ID == "" {
			errs = append(errs, fmt.Errorf("model %q has no id", m.Name))
			continue
		}
		if seen["m:"+m.ID] {
			errs = append(errs, fmt.Errorf("duplicate model id %q", m.ID))
		}
		seen["m:"+m.ID] = true
		if len(m.Plans) == 0 {
			errs = append(errs, fmt.Errorf("model %q has no plans", m.ID))
		}
		plans := make(map[string]bool, len(m.Plans))
		for _, p := range m.Plans {
			if p.ID == "" || plans[p.ID] {
				errs = append(errs, fmt.Errorf("model %q has a missing or duplicate plan id %q", m.ID, p.ID))
			}
			plans[p.ID] = true
		}
	}
	for _, d := range doc.Datasets {
		if d.ID == "" {
			errs = append(errs, fmt.Errorf("dataset %q has no id", d.Name))
			continue
		}
		if seen["d:"+d.ID] {
			errs = append(errs, fmt.Errorf("duplicate dataset id %q", d.ID))
		}
		seen["d:"+d.ID] = true
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid catalog: %w", err)
	}
	return nil
}

// Query filters listings. Empty fields match everything.
type Query struct {
	Category string
	Tag      string
	Text     string // case-insensitive match on name, description and provider
}

func (q Query) match(name, provider, category, description string, tags []string) bool {
	if q.Category != "" && !strings.EqualFold(q.Category, category) {
		return false
	}
	if q.Tag != "" && !slices.ContainsFunc(tags, func(t string) bool { return strings.EqualFold(t, q.Tag) }) {
		return false
	}
	if text := strings.ToLower(strings.TrimSpace(q.Text)); text != "" {
		haystack := strings.ToLower(name + "\n" + provider + "\n" + description)
		if !strings.Contains(haystack, text) {
			return false
		}
	}
	return true
}

// Landing returns the landing page sections.
func (c *Catalog) Landing() model.Landing {
	l := c.landing
	l.Community.Models = int64(len(c.models))
	l.Community.Datasets = int64(len(c.datasets))
	return l
}

// Models lists models matching q in catalog order.
func (c *Catalog) Models(q Query) []model.CatalogModel {
	out := make([]model.CatalogModel, 0, len(c.models))
	for _, m := range c.models {
		if q.match(m.Name, m.Provider, m.Category, m.Description, m.Tags) {
			out = append(out, m)
		}
	}
	return out
}

// Model returns one model by id.
func (c *Catalog) Model(id string) (*model.CatalogModel, error) {
	for i := range c.models {
		if c.models[i].ID == id {
			m := c.models[i]
			return &m, nil
		}
	}
	return nil, fmt.Errorf("%w: model %q", ErrNotFound, id)
}

// ModelDocs returns the API documentation of a model.
func (c *Catalog) ModelDocs(id string) (*model.ModelAPIDoc, error) {
	m, err := c.Model(id)
	if err != nil {
		return nil, err
	}
	if m.Docs == nil {
		return nil, fmt.Errorf("%w: docs for model %q", ErrNotFound, id)
	}
	return m.Docs, nil
}

// Datasets lists datasets matching q in catalog order.
func (c *Catalog) Datasets(q Query) []model.Dataset {
	out := make([]model.Dataset, 0, len(c.datasets))
	for _, d := range c.datasets {
		if q.match(d.Name, d.Provider, d.Category, d.Description, d.Tags) {
			out = append(out, d)
		}
	}
	return out
}

// Dataset returns one dataset by id.
func (c *Catalog) Dataset(id string) (*model.Dataset, error) {
	for i := range c.datasets {
		if c.datasets[i].ID == id {
			d := c.datasets[i]
			return &d, nil
		}
	}
	return nil, fmt.Errorf("%w: dataset %q", ErrNotFound, id)
}

// Categories returns the distinct model and dataset categories, sorted.
func (c *Catalog) Categories() []string {
	var cats []string
	for _, m := range c.models {
		cats = append(cats, m.Category)
	}
	for _, d := range c.datasets {
		cats = append(cats, d.Category)
	}
	slices.Sort(cats)
	return slices.Compact(cats)
}
