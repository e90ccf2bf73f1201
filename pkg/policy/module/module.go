// Package module defines the policy source data model shared by the
// validator, test framework, and bundler: modules, rules, and the
// package-level dependency graph used for import-cycle detection.
package module

import (
	"regexp"
	"strings"
)

// Module is a unit of policy source: a dot-separated package identifier,
// its source text and originating file path, declared imports, and
// declared rule names.
type Module struct {
	Package string
	Source  string
	Path    string
	Imports []string
	Rules   []Rule
}

// Rule is a named logical rule inside a module.
type Rule struct {
	Name string
}

// IsTest reports whether r is a test rule: its name begins with test_ and
// the enclosing module's package ends with _test.
func (r Rule) IsTest(m Module) bool {
	return strings.HasPrefix(r.Name, "test_") && strings.HasSuffix(m.Package, "_test")
}

// IsTestPackage reports whether m is a test package.
func (m Module) IsTestPackage() bool {
	return strings.HasSuffix(m.Package, "_test")
}

// IsEntrypoint reports whether m declares an allow rule, making it subject
// to the default-deny lint rule and to OperationId/lint scanning.
func (m Module) IsEntrypoint() bool {
	for _, r := range m.Rules {
		if r.Name == "allow" {
			return true
		}
	}
	return false
}

var (
	packageRe = regexp.MustCompile(`(?m)^\s*package\s+([a-zA-Z0-9_.]+)`)
	importRe  = regexp.MustCompile(`(?m)^\s*import\s+(?:data\.)?([a-zA-Z0-9_.]+)`)
	ruleRe    = regexp.MustCompile(`(?m)^\s*(?:default\s+)?([a-zA-Z_][a-zA-Z0-9_]*)\s*(?:\[[^\]]*\])?\s*(?::?=|contains|if)\b`)
)

// Parse extracts a Module's package, imports, and rule names from Rego
// source text using lightweight regex scanning. This is deliberately not
// a full parse: syntactic validity is the Rule Engine Adapter's job
// (Compile); Parse only needs to be accurate enough to build the
// dependency graph and enumerate rule names for semantic checks.
func Parse(path, source string) Module {
	m := Module{Path: path, Source: source}

	if match := packageRe.FindStringSubmatch(source); match != nil {
		m.Package = match[1]
	}

	seenRules := map[string]bool{}
	for _, match := range importRe.FindAllStringSubmatch(source, -1) {
		m.Imports = append(m.Imports, match[1])
	}
	for _, match := range ruleRe.FindAllStringSubmatch(source, -1) {
		name := match[1]
		if name == "package" || name == "import" {
			continue
		}
		if seenRules[name] {
			continue
		}
		seenRules[name] = true
		m.Rules = append(m.Rules, Rule{Name: name})
	}

	return m
}
