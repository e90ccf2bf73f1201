// Package ruleengine adapts github.com/open-policy-agent/opa's rego
// package to the narrower surface the rest of eunomia needs: load a set
// of policy modules and static data documents, evaluate a boolean or
// arbitrary-value rule against a given input, and clone a prepared engine
// so concurrent test workers never share mutable compiler state.
package ruleengine
