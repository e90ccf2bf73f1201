// Package validator runs the three independent passes — syntax, lint, and
// semantic — that together produce a validation report for a set of
// policy modules, aggregated into a single pass/fail verdict.
package validator
