package testsuite

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"eunomia-hq/eunomia/pkg/policy/module"
)

// Fixture is a declarative test case: set input (and optional overlay
// data), evaluate the policy's entrypoint, compare to expected outcome.
type Fixture struct {
	Name             string         `json:"name" yaml:"name"`
	Description      string         `json:"description,omitempty" yaml:"description,omitempty"`
	Package          string         `json:"package" yaml:"package"`
	Input            map[string]any `json:"input" yaml:"input"`
	Data             map[string]any `json:"data,omitempty" yaml:"data,omitempty"`
	ExpectedAllow    bool           `json:"expected_allow" yaml:"expected_allow"`
	ExpectedDecision any            `json:"expected_decision,omitempty" yaml:"expected_decision,omitempty"`
}

// fixtureFile is the on-disk shape of a *_fixtures.{json,yaml} file: a
// package-keyed map of fixture lists.
type fixtureFile map[string][]Fixture

// Suite is the result of Discover: every policy and test module found,
// every fixture, every static data document, plus any non-fatal errors
// encountered along the way.
type Suite struct {
	Modules  []module.Module
	Fixtures []Fixture
	Data     map[string]any
	Errors   []error
}

// DiscoverOptions configures a Discover walk.
type DiscoverOptions struct {
	Recursive  bool
	ExcludeDir []string
}

var defaultExcludeDirs = []string{".git", "node_modules", "vendor"}

// Discover walks root producing a Suite. Per-file errors (unreadable
// file, malformed fixture YAML/JSON) are collected in Suite.Errors and
// are non-fatal; only an empty suite combined with any error is fatal,
// signaled by a non-nil returned error.
func Discover(root string, opts DiscoverOptions) (*Suite, error) {
	exclude := append(append([]string(nil), defaultExcludeDirs...), opts.ExcludeDir...)
	suite := &Suite{Data: map[string]any{}}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			suite.Errors = append(suite.Errors, fmt.Errorf("walk %s: %w", path, err))
			return nil
		}
		if d.IsDir() {
			if path != root {
				if !opts.Recursive {
					return filepath.SkipDir
				}
				if isExcluded(d.Name(), exclude) {
					return filepath.SkipDir
				}
			}
			return nil
		}

		switch {
		case strings.HasSuffix(path, "_test.rego"):
			suite.loadModule(path)
		case strings.HasSuffix(path, ".rego"):
			suite.loadModule(path)
		case strings.HasSuffix(path, "_fixtures.json"), strings.HasSuffix(path, "_fixtures.yaml"), strings.HasSuffix(path, "_fixtures.yml"):
			suite.loadFixtures(path)
		case isDataFile(filepath.Base(path)):
			suite.loadData(path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("discover %s: %w", root, err)
	}

	if len(suite.Modules) == 0 && len(suite.Fixtures) == 0 && len(suite.Errors) > 0 {
		return nil, fmt.Errorf("discover %s: no usable test artifacts found (%d errors)", root, len(suite.Errors))
	}

	return suite, nil
}

func isExcluded(name string, exclude []string) bool {
	for _, e := range exclude {
		if name == e {
			return true
		}
	}
	return false
}

func isDataFile(name string) bool {
	return name == "data.json" || name == "data.yaml" || name == "data.yml"
}

func (s *Suite) loadModule(path string) {
	content, err := os.ReadFile(path)
	if err != nil {
		s.Errors = append(s.Errors, fmt.Errorf("read %s: %w", path, err))
		return
	}
	s.Modules = append(s.Modules, module.Parse(path, string(content)))
}

func (s *Suite) loadFixtures(path string) {
	raw, err := os.ReadFile(path)
	if err != nil {
		s.Errors = append(s.Errors, fmt.Errorf("read %s: %w", path, err))
		return
	}
	var ff fixtureFile
	if err := yaml.Unmarshal(raw, &ff); err != nil {
		s.Errors = append(s.Errors, fmt.Errorf("parse fixtures %s: %w", path, err))
		return
	}
	for pkg, fixtures := range ff {
		for _, f := range fixtures {
			f.Package = pkg
			s.Fixtures = append(s.Fixtures, f)
		}
	}
}

func (s *Suite) loadData(path string) {
	raw, err := os.ReadFile(path)
	if err != nil {
		s.Errors = append(s.Errors, fmt.Errorf("read %s: %w", path, err))
		return
	}
	var doc map[string]any
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		s.Errors = append(s.Errors, fmt.Errorf("parse data %s: %w", path, err))
		return
	}
	root := strings.TrimSuffix(filepath.Base(filepath.Dir(path)), string(filepath.Separator))
	s.Data[root] = doc
}
