// Package classify maps free-text task content to a task type label.
//
// Classification asks the inference gateway to pick one category from an
// ordered category -> keywords mapping and falls back to deterministic
// keyword matching when the answer is not a known category.
package classify

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/ShayCichocki/hive/pkg/models"
)

// ErrMalformedMapping is returned when a mapping document is not a mapping
// of category names to lists of strings.
var ErrMalformedMapping = errors.New("malformed classification mapping")

// Category is one entry of a Mapping.
type Category struct {
	Name     string
	Keywords []string
}

// Mapping is an ordered, read-only category -> keywords table.
type Mapping struct {
	categories []Category
	index      map[string]int
}

// NewMapping builds a Mapping from categories in the given order.
// Later duplicates of a name are ignored.
func NewMapping(categories ...Category) *Mapping {
	m := &Mapping{index: make(map[string]int, len(categories))}
	for _, c := range categories {
		if _, dup := m.index[c.Name]; dup {
			continue
		}
		m.index[c.Name] = len(m.categories)
		m.categories = append(m.categories, Category{
			Name:     c.Name,
			Keywords: append([]string(nil), c.Keywords...),
		})
	}
	return m
}

// LoadMapping reads and validates a mapping file.
func LoadMapping(path string) (*Mapping, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read mapping %s: %w", path, err)
	}
	m, err := ParseMapping(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

// ParseMapping parses a YAML mapping document, preserving key order.
// Every value must be a sequence of strings; a null value is an empty list.
func ParseMapping(data []byte) (*Mapping, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedMapping, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) != 1 {
		return nil, fmt.Errorf("%w: document is empty", ErrMalformedMapping)
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: top level must be a mapping of task_type -> list of keywords", ErrMalformedMapping)
	}

	seen := make(map[string]bool, len(root.Content)/2)
	categories := make([]Category, 0, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		keyNode, valNode := root.Content[i], root.Content[i+1]
		if keyNode.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("%w: line %d: category name must be a scalar", ErrMalformedMapping, keyNode.Line)
		}
		name := keyNode.Value
		if seen[name] {
			return nil, fmt.Errorf("%w: line %d: duplicate category %q", ErrMalformedMapping, keyNode.Line, name)
		}
		seen[name] = true

		keywords, err := keywordList(name, valNode)
		if err != nil {
			return nil, err
		}
		categories = append(categories, Category{Name: name, Keywords: keywords})
	}
	return NewMapping(categories...), nil
}

func keywordList(category string, n *yaml.Node) ([]string, error) {
	if n.Kind == yaml.ScalarNode && n.ShortTag() == "!!null" {
		return nil, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, fmt.Errorf("%w: line %d: invalid keyword list for task type %q", ErrMalformedMapping, n.Line, category)
	}
	keywords := make([]string, 0, len(n.Content))
	for _, item := range n.Content {
		if item.Kind != yaml.ScalarNode || item.ShortTag() != "!!str" {
			return nil, fmt.Errorf("%w: line %d: keyword for task type %q must be a string", ErrMalformedMapping, item.Line, category)
		}
		keywords = append(keywords, item.Value)
	}
	return keywords, nil
}

// Len returns the number of categories.
func (m *Mapping) Len() int { return len(m.categories) }

// Has reports whether name is a category.
func (m *Mapping) Has(name string) bool {
	_, ok := m.index[name]
	return ok
}

// Names returns the category names in mapping order.
func (m *Mapping) Names() []string {
	names := make([]string, len(m.categories))
	for i, c := range m.categories {
		names[i] = c.Name
	}
	return names
}

// Keywords returns the keywords of name, or nil.
func (m *Mapping) Keywords(name string) []string {
	i, ok := m.index[name]
	if !ok {
		return nil
	}
	return append([]string(nil), m.categories[i].Keywords...)
}

// Categories returns a copy of the categories in mapping order.
func (m *Mapping) Categories() []Category {
	out := make([]Category, len(m.categories))
	for i, c := range m.categories {
		out[i] = Category{Name: c.Name, Keywords: append([]string(nil), c.Keywords...)}
	}
	return out
}

// FindTypeFor returns the first category, in mapping order, with a keyword
// that is a case-insensitive substring of content. It returns
// models.TaskTypeGeneric when nothing matches.
func (m *Mapping) FindTypeFor(content string) string {
	lower := strings.ToLower(content)
	for _, c := range m.categories {
		for _, kw := range c.Keywords {
			if kw == "" {
				continue
			}
			if strings.Contains(lower, strings.ToLower(kw)) {
				return c.Name
			}
		}
	}
	return models.TaskTypeGeneric
}
