// Package keywords finds known skill terms in free-form job description text.
package keywords

import (
	_ "embed"
	"fmt"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed vocabulary.yaml
var vocabularyYAML []byte

// vocabularyFile mirrors the layout of vocabulary.yaml.
type vocabularyFile struct {
	Technical []string `yaml:"technical"`
	Soft      []string `yaml:"soft"`
}

var (
	defaultOnce      sync.Once
	defaultExtractor *Extractor
	defaultErr       error
)

// Extractor scans text for a fixed list of vocabulary terms.
type Extractor struct {
	terms []string
}

// NewExtractor builds an extractor over terms. Terms are lowercased, trimmed
// and deduplicated while keeping their first-seen order.
func NewExtractor(terms []string) *Extractor {
	seen := make(map[string]bool, len(terms))
	cleaned := make([]string, 0, len(terms))
	for _, term := range terms {
		term = strings.ToLower(strings.TrimSpace(term))
		if term == "" || seen[term] {
			continue
		}
		seen[term] = true
		cleaned = append(cleaned, term)
	}
	return &Extractor{terms: cleaned}
}

// ParseVocabulary parses a vocabulary YAML document into an ordered term list.
func ParseVocabulary(data []byte) ([]string, error) {
	var file vocabularyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse vocabulary: %w", err)
	}
	terms := make([]string, 0, len(file.Technical)+len(file.Soft))
	terms = append(terms, file.Technical...)
	terms = append(terms, file.Soft...)
	if len(terms) == 0 {
		return nil, fmt.Errorf("vocabulary is empty")
	}
	return terms, nil
}

// Default returns the extractor over the embedded vocabulary.
func Default() (*Extractor, error) {
	defaultOnce.Do(func() {
		terms, err := ParseVocabulary(vocabularyYAML)
		if err != nil {
			defaultErr = err
			return
		}
		defaultExtractor = NewExtractor(terms)
	})
	return defaultExtractor, defaultErr
}

// MustDefault is Default for callers that treat a broken embedded vocabulary as fatal.
func MustDefault() *Extractor {
	e, err := Default()
	if err != nil {
		panic(fmt.Sprintf("failed to load keyword vocabulary: %v", err))
	}
	return e
}

// Terms returns a copy of the vocabulary.
func (e *Extractor) Terms() []string {
	out := make([]string, len(e.terms))
	copy(out, e.terms)
	return out
}

// Extract returns the vocabulary terms that occur in text as case-insensitive
// substrings, in vocabulary order. Empty text yields an empty slice.
func (e *Extractor) Extract(text string) []string {
	found := []string{}
	if strings.TrimSpace(text) == "" {
		return found
	}
	lower := strings.ToLower(text)
	for _, term := range e.terms {
		if strings.Contains(lower, term) {
			found = append(found, term)
		}
	}
	return found
}

// Extract runs the default extractor over text.
func Extract(text string) []string {
	return MustDefault().Extract(text)
}
