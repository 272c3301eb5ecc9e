package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// RulesFileName is the repo-local rules file consulted at review time. It
// lives in the repository under review, not next to the application config,
// so teams can commit review guidance alongside their code.
const RulesFileName = ".patchlens.yaml"

// Rules carries repo-local review guidance.
type Rules struct {
	Instructions string                  `yaml:"instructions"`
	ExcludePaths []string                `yaml:"excludePaths"`
	Categories   map[string]CategoryRule `yaml:"categories"`
}

// CategoryRule enables a review category and weights its importance.
type CategoryRule struct {
	Enabled bool    `yaml:"enabled"`
	Weight  float64 `yaml:"weight"`
}

// DefaultRules returns the built-in category set used when a repository
// carries no rules file.
func DefaultRules() Rules {
	return Rules{
		Categories: map[string]CategoryRule{
			"security":       {Enabled: true, Weight: 1.0},
			"bugs":           {Enabled: true, Weight: 1.0},
			"best_practices": {Enabled: true, Weight: 0.9},
			"performance":    {Enabled: true, Weight: 0.8},
			"code_quality":   {Enabled: true, Weight: 0.7},
			"testing":        {Enabled: true, Weight: 0.6},
			"documentation":  {Enabled: true, Weight: 0.5},
			"style":          {Enabled: true, Weight: 0.4},
		},
	}
}

// LoadRules reads the rules file from dir. A missing file yields the
// defaults; a malformed file is an error.
func LoadRules(dir string) (Rules, error) {
	path := filepath.Join(dir, RulesFileName)
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return DefaultRules(), nil
	}
	if err != nil {
		return Rules{}, fmt.Errorf("read rules %s: %w", path, err)
	}

	rules := DefaultRules()
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return Rules{}, fmt.Errorf("parse rules %s: %w", path, err)
	}
	return rules, nil
}

// EnabledCategories returns enabled category names ordered by descending
// weight, ties broken by name, so prompts stay stable across runs.
func (r Rules) EnabledCategories() []string {
	names := make([]string, 0, len(r.Categories))
	for name, rule := range r.Categories {
		if rule.Enabled {
			names = append(names, name)
		}
	}
	sort.Slice(names, func(i, j int) bool {
		wi, wj := r.Categories[names[i]].Weight, r.Categories[names[j]].Weight
		if wi != wj {
			return wi > wj
		}
		return names[i] < names[j]
	})
	return names
}
