package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_Embedded(t *testing.T) {
	t.Parallel()

	c, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(c.Models(Query{})) == 0 {
		t.Error("expected embedded models")
	}
	if len(c.Datasets(Query{})) == 0 {
		t.Error("expected embedded datasets")
	}

	l := c.Landing()
	if l.Hero.Title == "" {
		t.Error("expected hero title")
	}
	if l.Community.Models != int64(len(c.Models(Query{}))) {
		t.Errorf("expected community model count %d, got %d", len(c.Models(Query{})), l.Community.Models)
	}
}

func TestCatalog_ModelFilters(t *testing.T) {
	t.Parallel()

	c, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	testCases := []struct {
		name  string
		query Query
		want  []string
	}{
		{"category", Query{Category: "audio"}, []string{"speech-transcribe"}},
		{"category case-insensitive", Query{Category: "AUDIO"}, []string{"speech-transcribe"}},
		{"tag", Query{Tag: "embeddings"}, []string{"embed-small"}},
		{"text in provider", Query{Text: "lumen"}, []string{"vision-detect", "image-gen"}},
		{"text and category", Query{Text: "generation", Category: "nlp"}, []string{"text-gen-xl"}},
		{"no match", Query{Text: "quantum"}, []string{}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := c.Models(tc.query)
			if len(got) != len(tc.want) {
				t.Fatalf("expected %d models, got %d", len(tc.want), len(got))
			}
			for i, m := range got {
				if m.ID != tc.want[i] {
					t.Errorf("model %d: expected %s, got %s", i, tc.want[i], m.ID)
				}
			}
		})
	}
}

func TestCatalog_Lookups(t *testing.T) {
	t.Parallel()

	c, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	m, err := c.Model("text-gen-xl")
	if err != nil {
		t.Fatalf("Model() error = %v", err)
	}
	if _, ok := m.Plan("pro"); !ok {
		t.Error("expected pro plan")
	}

	docs, err := c.ModelDocs("text-gen-xl")
	if err != nil {
		t.Fatalf("ModelDocs() error = %v", err)
	}
	if docs.ModelID != "text-gen-xl" || len(docs.Endpoints) == 0 {
		t.Errorf("unexpected docs %+v", docs)
	}

	if _, err := c.Model("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := c.Dataset("nope"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if d, err := c.Dataset("street-scenes"); err != nil || d.Category != "vision" {
		t.Errorf("unexpected dataset %+v, err %v", d, err)
	}
}

func TestCatalog_Categories(t *testing.T) {
	t.Parallel()

	c, _ := Load("")
	cats := c.Categories()
	want := []string{"audio", "nlp", "tabular", "vision"}
	if strings.Join(cats, ",") != strings.Join(want, ",") {
		t.Errorf("expected %v, got %v", want, cats)
	}
}

func TestParse_Invalid(t *testing.T) {
	testCases := []struct {
		name string
		doc  string
	}{
		{"unknown field", "models:\n  - id: a\n    colour: red\n"},
		{"no plans", "models:\n  - id: a\n    name: A\n"},
		{"duplicate model", "models:\n  - id: a\n    plans: [{id: p}]\n  - id: a\n    plans: [{id: p}]\n"},
		{"duplicate plan", "models:\n  - id: a\n    plans: [{id: p}, {id: p}]\n"},
		{"dataset without id", "datasets:\n  - name: D\n"},
		{"not yaml", "models: [\n"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if _, err := Parse(strings.NewReader(tc.doc)); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestLoad_FromPath(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "catalog.yaml")
	doc := "models:\n  - id: only\n    name: Only One\n    category: nlp\n    plans:\n      - id: basic\n        monthly_price: 5\n        currency: USD\n"
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatalf("write catalog: %v", err)
	}

	c, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := c.Models(Query{}); len(got) != 1 || got[0].ID != "only" {
		t.Errorf("unexpected models %+v", got)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}
