package registry

import (
	"fmt"
	"sort"

	"github.com/Masterminds/semver/v3"

	"eunomia-hq/eunomia/pkg/eerrors"
)

// QueryKind selects how Resolve picks a tag from a repository's tag list.
type QueryKind string

const (
	QueryLatest  QueryKind = "latest"
	QueryMajor   QueryKind = "major"
	QueryMinorOf QueryKind = "minor_of"
	QueryExact   QueryKind = "exact"
	QueryDigest  QueryKind = "digest"
)

// VersionQuery selects a version of a service's bundle.
type VersionQuery struct {
	Kind  QueryKind
	Value string // major number for QueryMajor, X.Y for QueryMinorOf, X.Y.Z for QueryExact, digest for QueryDigest
}

// Latest selects the highest stable SemVer tag.
func Latest() VersionQuery { return VersionQuery{Kind: QueryLatest} }

// Major selects the highest version within a given major line.
func Major(major string) VersionQuery { return VersionQuery{Kind: QueryMajor, Value: major} }

// MinorOf selects the highest patch within a given major.minor line.
func MinorOf(majorMinor string) VersionQuery { return VersionQuery{Kind: QueryMinorOf, Value: majorMinor} }

// Exact selects one specific version.
func Exact(version string) VersionQuery { return VersionQuery{Kind: QueryExact, Value: version} }

// Digest selects a bundle by its content digest, bypassing SemVer
// entirely.
func Digest(digest string) VersionQuery { return VersionQuery{Kind: QueryDigest, Value: digest} }

// Resolve picks the tag from tags that satisfies q. Tags that do not
// parse as SemVer are ignored for every kind except QueryDigest, which
// returns its Value verbatim without consulting tags at all.
func Resolve(q VersionQuery, tags []string) (string, error) {
	if q.Kind == QueryDigest {
		return q.Value, nil
	}

	versions := make([]*semver.Version, 0, len(tags))
	byVersion := map[*semver.Version]string{}
	for _, t := range tags {
		v, err := semver.NewVersion(t)
		if err != nil {
			continue
		}
		versions = append(versions, v)
		byVersion[v] = t
	}
	if len(versions) == 0 {
		return "", &eerrors.RegistryError{Kind: eerrors.RegistryNotFound, Reason: "no SemVer-tagged versions found"}
	}

	var constraint *semver.Constraints
	var err error
	switch q.Kind {
	case QueryLatest:
		constraint, err = semver.NewConstraint(">=0.0.0")
	case QueryMajor:
		constraint, err = semver.NewConstraint(fmt.Sprintf("^%s.0.0", q.Value))
	case QueryMinorOf:
		constraint, err = semver.NewConstraint(fmt.Sprintf("~%s.0", q.Value))
	case QueryExact:
		constraint, err = semver.NewConstraint(q.Value)
	default:
		return "", &eerrors.RegistryError{Kind: eerrors.RegistryConflict, Reason: fmt.Sprintf("unknown query kind %q", q.Kind)}
	}
	if err != nil {
		return "", &eerrors.RegistryError{Kind: eerrors.RegistryConflict, Reason: "parse version constraint", Cause: err}
	}

	var matches []*semver.Version
	for _, v := range versions {
		if constraint.Check(v) {
			matches = append(matches, v)
		}
	}
	if len(matches) == 0 {
		return "", &eerrors.RegistryError{Kind: eerrors.RegistryNotFound, Reason: fmt.Sprintf("no version satisfies %s", q.Value)}
	}

	sort.Sort(semver.Collection(matches))
	best := matches[len(matches)-1]
	return byVersion[best], nil
}

// Satisfies reports whether the SemVer version satisfies the
// comma-separated constraint expression (exact, inequality, caret,
// tilde, or conjunction forms).
func Satisfies(version, constraintExpr string) (bool, error) {
	v, err := semver.NewVersion(version)
	if err != nil {
		return false, fmt.Errorf("parse version %s: %w", version, err)
	}
	c, err := semver.NewConstraint(constraintExpr)
	if err != nil {
		return false, fmt.Errorf("parse constraint %s: %w", constraintExpr, err)
	}
	return c.Check(v), nil
}
