package matching

import (
	_ "embed"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/jonathan/resume-tracker/internal/types"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var catalogYAML []byte

var (
	catalogOnce sync.Once
	catalog     []types.SamplePosting
	catalogErr  error
)

// catalogFile mirrors the layout of catalog.yaml.
type catalogFile struct {
	Postings []types.SamplePosting `yaml:"postings"`
}

// ParseCatalog parses a catalog YAML document and checks that every posting
// has an id, a title and at least one skill.
func ParseCatalog(data []byte) ([]types.SamplePosting, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse catalog: %w", err)
	}
	ids := make(map[string]bool, len(file.Postings))
	for i, p := range file.Postings {
		if p.ID == "" || strings.TrimSpace(p.Title) == "" {
			return nil, fmt.Errorf("catalog posting %d: id and title are required", i)
		}
		if len(p.Skills) == 0 {
			return nil, fmt.Errorf("catalog posting %s: at least one skill is required", p.ID)
		}
		if ids[p.ID] {
			return nil, fmt.Errorf("catalog posting %s: duplicate id", p.ID)
		}
		ids[p.ID] = true
	}
	return file.Postings, nil
}

// Catalog returns a copy of the embedded sample postings.
func Catalog() ([]types.SamplePosting, error) {
	catalogOnce.Do(func() {
		catalog, catalogErr = ParseCatalog(catalogYAML)
	})
	if catalogErr != nil {
		return nil, catalogErr
	}
	out := make([]types.SamplePosting, len(catalog))
	for i, p := range catalog {
		p.Skills = slices.Clone(p.Skills)
		out[i] = p
	}
	return out, nil
}

// FindPosting returns the catalog posting with the given id.
func FindPosting(postings []types.SamplePosting, id string) (types.SamplePosting, bool) {
	for _, p := range postings {
		if p.ID == id {
			return p, true
		}
	}
	return types.SamplePosting{}, false
}
