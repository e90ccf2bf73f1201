package ruleengine

import (
	"context"
	"fmt"
	"strings"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"

	"eunomia-hq/eunomia/pkg/eerrors"
)

// Module is one source file handed to the compiler: its logical path
// (used in compiler error messages) and its Rego text.
type Module struct {
	Path    string
	Content string
}

// Adapter wraps one or more Rego modules plus optional static data
// documents. It is built once per bundle revision and can be cloned
// cheaply for use by concurrent test workers.
type Adapter struct {
	modules []Module
	data    map[string]any
}

// New returns an empty Adapter.
func New() *Adapter {
	return &Adapter{data: map[string]any{}}
}

// AddPolicy registers a Rego module with the adapter. It does not compile
// anything; the modules are compiled again on each Eval call.
func (a *Adapter) AddPolicy(path, content string) {
	a.modules = append(a.modules, Module{Path: path, Content: content})
}

// AddData merges doc into the static data document available to policies
// under data.<root>. Later calls with the same root overwrite it.
func (a *Adapter) AddData(root string, doc any) {
	a.data[root] = doc
}

// Clone returns a new Adapter sharing this one's modules and data by
// value copy, safe for a separate goroutine to mutate (e.g. via AddData)
// without affecting the original. Rego recompiles per Eval call so there
// is no compiled-state sharing concern; Clone exists so callers don't
// need to reconstruct the module list per worker.
func (a *Adapter) Clone() *Adapter {
	clone := &Adapter{
		modules: append([]Module(nil), a.modules...),
		data:    make(map[string]any, len(a.data)),
	}
	for k, v := range a.data {
		clone.data[k] = v
	}
	return clone
}

func (a *Adapter) regoOptions(query string, input any) []func(*rego.Rego) {
	opts := []func(*rego.Rego){
		rego.Query(query),
		rego.Input(input),
	}
	for _, m := range a.modules {
		opts = append(opts, rego.Module(m.Path, m.Content))
	}
	if len(a.data) > 0 {
		store := newDataStore(a.data)
		opts = append(opts, rego.Store(store))
	}
	return opts
}

// EvalValue evaluates the given data reference (e.g.
// "data.eunomia.checkout.allow") against input and returns the raw
// decoded value of the first expression in the first result. A rule that
// evaluates to undefined yields (nil, nil), matching Rego's own
// undefined-is-not-an-error convention.
func (a *Adapter) EvalValue(ctx context.Context, ref string, input any) (any, error) {
	r := rego.New(a.regoOptions(ref, input)...)
	rs, err := r.Eval(ctx)
	if err != nil {
		if isUndefined(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("evaluate %s: %w", ref, err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return nil, nil
	}
	return rs[0].Expressions[0].Value, nil
}

// EvalBool evaluates ref and requires a boolean result. An undefined ref
// or a non-boolean result is an *eerrors.EvalError, not a silent false:
// a misconfigured entrypoint must block a decision, not quietly deny it.
func (a *Adapter) EvalBool(ctx context.Context, ref string, input any) (bool, error) {
	v, err := a.EvalValue(ctx, ref, input)
	if err != nil {
		return false, err
	}
	if v == nil {
		return false, &eerrors.EvalError{Ref: ref, Reason: "undefined"}
	}
	b, ok := v.(bool)
	if !ok {
		return false, &eerrors.EvalError{Ref: ref, Reason: fmt.Sprintf("expected boolean, got %T", v)}
	}
	return b, nil
}

// EvalStringSet evaluates a set-valued rule (conventionally deny/warn
// rules that collect violation messages) and returns its string members.
func (a *Adapter) EvalStringSet(ctx context.Context, ref string, input any) ([]string, error) {
	v, err := a.EvalValue(ctx, ref, input)
	if err != nil {
		return nil, err
	}
	items, ok := v.([]any)
	if !ok {
		return nil, nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out, nil
}

// Compile parses and compiles every registered module without evaluating
// anything, surfacing syntax and compile errors up front. Used by the
// validator's syntax pass.
func (a *Adapter) Compile() error {
	modules := make(map[string]*ast.Module, len(a.modules))
	for _, m := range a.modules {
		parsed, err := ast.ParseModule(m.Path, m.Content)
		if err != nil {
			return fmt.Errorf("parse %s: %w", m.Path, err)
		}
		modules[m.Path] = parsed
	}
	compiler := ast.NewCompiler()
	compiler.Compile(modules)
	if compiler.Failed() {
		return fmt.Errorf("compile: %w", compiler.Errors)
	}
	return nil
}

func isUndefined(err error) bool {
	return strings.Contains(err.Error(), "undefined")
}
