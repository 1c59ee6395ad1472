package populate

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/edutaxonomy-backend/internal/domain/catalog"
)

//go:embed rules.yaml
var defaultRulesYAML []byte

const defaultMaxLength = 200

type KindRules struct {
	MaxLength int      `yaml:"max_length"`
	Prompt    string   `yaml:"prompt"`
	Disallow  []string `yaml:"disallow"`
}

type Rules struct {
	Version int    `yaml:"version"`
	System  string `yaml:"system"`
	Common  struct {
		Disallow []string `yaml:"disallow"`
	} `yaml:"common"`
	Kinds map[string]KindRules `yaml:"kinds"`
}

// LoadRules reads rules from path, or the embedded defaults when path is empty.
func LoadRules(path string) (*Rules, error) {
	data := defaultRulesYAML
	if p := strings.TrimSpace(path); p != "" {
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read rules %s: %w", p, err)
		}
		data = b
	}
	return ParseRules(data)
}

func ParseRules(data []byte) (*Rules, error) {
	var r Rules
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	for name, k := range r.Kinds {
		if _, ok := catalog.Lookup(catalog.Kind(name)); !ok {
			return nil, fmt.Errorf("rules: unknown kind %q", name)
		}
		if k.MaxLength < 0 {
			return nil, fmt.Errorf("rules: %s max_length must not be negative", name)
		}
		for i := range k.Disallow {
			k.Disallow[i] = strings.ToLower(strings.TrimSpace(k.Disallow[i]))
		}
		r.Kinds[name] = k
	}
	for i := range r.Common.Disallow {
		r.Common.Disallow[i] = strings.ToLower(strings.TrimSpace(r.Common.Disallow[i]))
	}
	return &r, nil
}

// DefaultRules panics if the embedded rules are broken.
func DefaultRules() *Rules {
	r, err := ParseRules(defaultRulesYAML)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Rules) For(kind catalog.Kind) KindRules {
	k := r.Kinds[string(kind)]
	if k.MaxLength == 0 {
		k.MaxLength = defaultMaxLength
	}
	return k
}
