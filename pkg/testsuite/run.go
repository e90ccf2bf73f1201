package testsuite

import (
	"context"
	"fmt"
	"path/filepath"
	"reflect"
	"strings"
	"sync"
	"time"

	"eunomia-hq/eunomia/pkg/ruleengine"
)

// Options controls a Run.
type Options struct {
	FailFast bool
	Filter   string
	Parallel bool
	Timeout  time.Duration
}

type work struct {
	qualifiedName string
	run           func(ctx context.Context, engine *ruleengine.Adapter) Result
}

// Run loads every module and data document in suite into one shared
// engine, then executes every native test and fixture according to
// opts. Parallel runs clone the shared engine per worker so no two
// tests share mutable state.
func Run(ctx context.Context, suite *Suite, opts Options) Results {
	shared := ruleengine.New()
	for _, m := range suite.Modules {
		shared.AddPolicy(m.Path, m.Source)
	}
	for root, doc := range suite.Data {
		shared.AddData(root, doc)
	}

	items := collectWork(suite)
	if opts.Filter != "" {
		items = filterWork(items, opts.Filter)
	}

	if !opts.Parallel {
		return runSequential(ctx, shared, items, opts)
	}
	return runParallel(ctx, shared, items, opts)
}

func collectWork(suite *Suite) []work {
	var items []work

	for _, m := range suite.Modules {
		if !m.IsTestPackage() {
			continue
		}
		for _, r := range m.Rules {
			if !r.IsTest(m) {
				continue
			}
			ref := fmt.Sprintf("data.%s.%s", m.Package, r.Name)
			items = append(items, work{
				qualifiedName: ref,
				run:           nativeTestRunner(ref),
			})
		}
	}

	for _, f := range suite.Fixtures {
		f := f
		name := fmt.Sprintf("%s/%s", f.Package, f.Name)
		items = append(items, work{
			qualifiedName: name,
			run:           fixtureRunner(f),
		})
	}

	return items
}

func filterWork(items []work, filter string) []work {
	var out []work
	for _, it := range items {
		if strings.Contains(it.qualifiedName, filter) {
			out = append(out, it)
			continue
		}
		if ok, _ := filepath.Match(filter, it.qualifiedName); ok {
			out = append(out, it)
		}
	}
	return out
}

func nativeTestRunner(ref string) func(context.Context, *ruleengine.Adapter) Result {
	return func(ctx context.Context, engine *ruleengine.Adapter) Result {
		start := time.Now()
		ok, err := engine.EvalBool(ctx, ref, map[string]any{})
		dur := time.Since(start)
		if err != nil {
			return Result{Name: ref, Outcome: Errored, Reason: err.Error(), Duration: dur}
		}
		if !ok {
			return Result{Name: ref, Outcome: Failed, Reason: "test rule evaluated to false", Duration: dur}
		}
		return Result{Name: ref, Outcome: Passed, Duration: dur}
	}
}

func fixtureRunner(f Fixture) func(context.Context, *ruleengine.Adapter) Result {
	name := fmt.Sprintf("%s/%s", f.Package, f.Name)
	return func(ctx context.Context, engine *ruleengine.Adapter) Result {
		start := time.Now()
		e := engine
		if len(f.Data) > 0 {
			e = engine.Clone()
			for root, doc := range f.Data {
				e.AddData(root, doc)
			}
		}

		ref := fmt.Sprintf("data.%s.allow", f.Package)
		allowed, err := e.EvalBool(ctx, ref, f.Input)
		dur := time.Since(start)
		if err != nil {
			return Result{Name: name, Outcome: Errored, Reason: err.Error(), Duration: dur}
		}
		if allowed != f.ExpectedAllow {
			return Result{
				Name:    name,
				Outcome: Failed,
				Reason:  fmt.Sprintf("expected allow=%v, got %v", f.ExpectedAllow, allowed),
				Duration: dur,
			}
		}

		if f.ExpectedDecision != nil {
			decisionRef := fmt.Sprintf("data.%s.decision", f.Package)
			decision, err := e.EvalValue(ctx, decisionRef, f.Input)
			if err != nil {
				return Result{Name: name, Outcome: Errored, Reason: err.Error(), Duration: dur}
			}
			if !reflect.DeepEqual(decision, f.ExpectedDecision) {
				return Result{
					Name:     name,
					Outcome:  Failed,
					Reason:   fmt.Sprintf("expected decision %#v, got %#v", f.ExpectedDecision, decision),
					Duration: dur,
				}
			}
		}

		return Result{Name: name, Outcome: Passed, Duration: dur}
	}
}

func runSequential(ctx context.Context, shared *ruleengine.Adapter, items []work, opts Options) Results {
	var results Results
	for _, it := range items {
		res := runOne(ctx, shared, it, opts.Timeout)
		results.Results = append(results.Results, res)
		if opts.FailFast && res.Outcome != Passed {
			break
		}
	}
	return results
}

func runParallel(ctx context.Context, shared *ruleengine.Adapter, items []work, opts Options) Results {
	resCh := make(chan Result, len(items))
	stop := make(chan struct{})
	var stopOnce sync.Once
	var wg sync.WaitGroup

	for _, it := range items {
		it := it
		wg.Add(1)
		go func() {
			defer wg.Done()
			select {
			case <-stop:
				return
			default:
			}
			clone := shared.Clone()
			res := runOne(ctx, clone, it, opts.Timeout)
			resCh <- res
			if opts.FailFast && res.Outcome != Passed {
				stopOnce.Do(func() { close(stop) })
			}
		}()
	}

	go func() {
		wg.Wait()
		close(resCh)
	}()

	var results Results
	for res := range resCh {
		results.Results = append(results.Results, res)
	}
	return results
}

func runOne(ctx context.Context, engine *ruleengine.Adapter, it work, timeout time.Duration) Result {
	if timeout <= 0 {
		return it.run(ctx, engine)
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resCh := make(chan Result, 1)
	go func() { resCh <- it.run(runCtx, engine) }()

	select {
	case res := <-resCh:
		return res
	case <-runCtx.Done():
		return Result{Name: it.qualifiedName, Outcome: Errored, Reason: "timed out", Duration: timeout}
	}
}
