package docupdater

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// FallbackCategoryKey in the categories table names the label of files that
// match no other entry. LoadConfig moves it into DefaultCategory.
const FallbackCategoryKey = "na"

type Config struct {
	Pattern         string       `yaml:"pattern"`
	ExcludeDirs     []string     `yaml:"exclude_dirs"`
	ExcludePatterns []string     `yaml:"exclude_patterns"`
	MaxLines        int          `yaml:"max_lines"`
	TagWidth        int          `yaml:"tag_width"`
	RealMode        bool         `yaml:"real_mode"`
	DefaultCategory string       `yaml:"default_category"`
	Categories      OrderedTable `yaml:"categories"`
	Tags            OrderedTable `yaml:"tags"`
	LogFile         string       `yaml:"log_file"`
}

// TableEntry is one row of an OrderedTable. A null YAML value decodes to an
// empty Value.
type TableEntry struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// OrderedTable is a string mapping that keeps the order of its YAML source.
// Both the category table and the tag rules depend on that order.
type OrderedTable []TableEntry

func (t *OrderedTable) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping", node.Line)
	}

	table := make(OrderedTable, 0, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		var entry TableEntry
		if err := node.Content[i].Decode(&entry.Key); err != nil {
			return err
		}
		if err := node.Content[i+1].Decode(&entry.Value); err != nil {
			return fmt.Errorf("line %d: value of %q: %w", node.Content[i+1].Line, entry.Key, err)
		}
		table = append(table, entry)
	}
	*t = table
	return nil
}

func (t OrderedTable) MarshalYAML() (any, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, entry := range t {
		value := &yaml.Node{Kind: yaml.ScalarNode, Value: entry.Value}
		if entry.Value == "" {
			value.Tag = "!!null"
			value.Value = "null"
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Value: entry.Key},
			value,
		)
	}
	return node, nil
}

// Without returns a copy of the table with every entry for key removed.
func (t OrderedTable) Without(key string) OrderedTable {
	return slices.DeleteFunc(slices.Clone(t), func(entry TableEntry) bool {
		return entry.Key == key
	})
}

// Get returns the value for key. Missing keys and null values both yield "".
func (t OrderedTable) Get(key string) (string, bool) {
	for _, entry := range t {
		if entry.Key == key {
			return entry.Value, true
		}
	}
	return "", false
}

func DefaultConfig() *Config {
	return &Config{
		Pattern:         "*.php",
		ExcludeDirs:     []string{".git", "vendor", "cache"},
		MaxLines:        DefaultMaxLines,
		TagWidth:        DefaultTagWidth,
		RealMode:        true,
		DefaultCategory: "other",
		Categories: OrderedTable{
			{Key: "model", Value: "Model"},
			{Key: "form", Value: "Form"},
			{Key: "filter", Value: "Filter"},
			{Key: "actions", Value: "Action"},
			{Key: "validator", Value: "Validator"},
			{Key: "helper", Value: "Helper"},
		},
	}
}

// LoadConfig reads a YAML config from path on top of DefaultConfig. An empty
// path returns the defaults. Tables in the file replace the default tables.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if label, ok := config.Categories.Get(FallbackCategoryKey); ok {
		if label != "" {
			config.DefaultCategory = label
		}
		config.Categories = config.Categories.Without(FallbackCategoryKey)
	}

	return config, nil
}
