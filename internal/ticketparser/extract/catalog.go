package extract

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"regexp"
	"sync"

	"github.com/goccy/go-yaml"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// DefaultCatalogVersion identifies the built-in rule tables. Bump it whenever a default
// table changes so stored scans get re-extracted.
const DefaultCatalogVersion = "2025.08.1"

// DateRuleSpec is the uncompiled form of a date rule.
type DateRuleSpec struct {
	Name    string `json:"name" yaml:"name"`
	Pattern string `json:"pattern" yaml:"pattern"`
}

// Catalog holds the ordered rule tables the extractors consume. A nil table means "use the
// default"; an empty one disables that rule set.
type Catalog struct {
	Version       string         `json:"version" yaml:"version"`
	DateRules     []DateRuleSpec `json:"date_rules,omitempty" yaml:"date_rules,omitempty"`
	Venues        []string       `json:"venues,omitempty" yaml:"venues,omitempty"`
	TitleKeywords []string       `json:"title_keywords,omitempty" yaml:"title_keywords,omitempty"`
	StopPatterns  []string       `json:"stop_patterns,omitempty" yaml:"stop_patterns,omitempty"`
}

// DefaultCatalog returns a copy of the built-in tables.
func DefaultCatalog() Catalog {
	return Catalog{
		Version:       DefaultCatalogVersion,
		DateRules:     append([]DateRuleSpec(nil), defaultDateRules...),
		Venues:        append([]string(nil), defaultVenues...),
		TitleKeywords: append([]string(nil), defaultTitleKeywords...),
		StopPatterns:  append([]string(nil), defaultStopPatterns...),
	}
}

func (c Catalog) withDefaults() Catalog {
	def := DefaultCatalog()
	if c.Version == "" {
		c.Version = def.Version
	}
	if c.DateRules == nil {
		c.DateRules = def.DateRules
	}
	if c.Venues == nil {
		c.Venues = def.Venues
	}
	if c.TitleKeywords == nil {
		c.TitleKeywords = def.TitleKeywords
	}
	if c.StopPatterns == nil {
		c.StopPatterns = def.StopPatterns
	}
	return c
}

// Extractor runs the date, venue and title rules of one compiled catalog. It holds no
// mutable state and is safe for concurrent use.
type Extractor struct {
	version       string
	dateRules     []*DateRule
	venues        []string
	titleKeywords []string
	stop          *regexp.Regexp
}

// New compiles c. Nil tables fall back to the defaults.
func New(c Catalog) (*Extractor, error) {
	c = c.withDefaults()
	rules := make([]*DateRule, 0, len(c.DateRules))
	for _, spec := range c.DateRules {
		rule, err := CompileDateRule(spec)
		if err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	stop, err := compileStopPatterns(c.StopPatterns)
	if err != nil {
		return nil, fmt.Errorf("stop patterns: %w", err)
	}
	return &Extractor{
		version:       c.Version,
		dateRules:     rules,
		venues:        append([]string(nil), c.Venues...),
		titleKeywords: append([]string(nil), c.TitleKeywords...),
		stop:          stop,
	}, nil
}

var (
	defaultOnce      sync.Once
	defaultExtractor *Extractor
)

// Default returns the extractor for the built-in catalog.
func Default() *Extractor {
	defaultOnce.Do(func() {
		e, err := New(DefaultCatalog())
		if err != nil {
			panic(fmt.Sprintf("default catalog: %v", err))
		}
		defaultExtractor = e
	})
	return defaultExtractor
}

// Version reports the catalog version the extractor was compiled from.
func (e *Extractor) Version() string {
	return e.version
}

// ExtractEventDate runs the default date rules.
func ExtractEventDate(text string) *Date {
	return Default().EventDate(text)
}

// ExtractVenue runs the default venue catalog.
func ExtractVenue(text string) *string {
	return Default().Venue(text)
}

// ExtractTitle runs the default title rules.
func ExtractTitle(text string) *string {
	return Default().Title(text)
}

//go:embed catalog.schema.json
var catalogSchemaJSON []byte

var (
	catalogSchemaOnce sync.Once
	catalogSchema     *jsonschema.Schema
	catalogSchemaErr  error
)

func compiledCatalogSchema() (*jsonschema.Schema, error) {
	catalogSchemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource("catalog.schema.json", bytes.NewReader(catalogSchemaJSON)); err != nil {
			catalogSchemaErr = fmt.Errorf("add catalog schema: %w", err)
			return
		}
		catalogSchema, catalogSchemaErr = compiler.Compile("catalog.schema.json")
	})
	return catalogSchema, catalogSchemaErr
}

// ParseCatalog decodes a YAML (or JSON) catalog and validates its shape. Omitted tables
// keep their defaults.
func ParseCatalog(data []byte) (Catalog, error) {
	raw, err := yaml.YAMLToJSON(data)
	if err != nil {
		return Catalog{}, fmt.Errorf("catalog yaml: %w", err)
	}
	schema, err := compiledCatalogSchema()
	if err != nil {
		return Catalog{}, err
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return Catalog{}, fmt.Errorf("catalog json: %w", err)
	}
	if err := schema.Validate(doc); err != nil {
		return Catalog{}, fmt.Errorf("catalog does not match schema: %w", err)
	}
	var c Catalog
	if err := json.Unmarshal(raw, &c); err != nil {
		return Catalog{}, fmt.Errorf("catalog decode: %w", err)
	}
	return c.withDefaults(), nil
}

// LoadCatalog reads and parses the catalog file at path.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, fmt.Errorf("read catalog: %w", err)
	}
	return ParseCatalog(data)
}

// NewFromFile loads the catalog at path and compiles it. An empty path yields Default().
func NewFromFile(path string) (*Extractor, error) {
	if path == "" {
		return Default(), nil
	}
	c, err := LoadCatalog(path)
	if err != nil {
		return nil, err
	}
	return New(c)
}
