package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"eunomia-hq/eunomia/pkg/bundler"
	"eunomia-hq/eunomia/pkg/policy/git"
	"eunomia-hq/eunomia/pkg/policy/module"
)

// gatherPolicyFiles walks dir collecting every file into bundler.File
// entries (archive-relative paths) and returns the set of top-level
// package roots declared across the discovered Rego modules.
func gatherPolicyFiles(dir string, excludeDirs []string) ([]bundler.File, []string, error) {
	exclude := map[string]bool{}
	for _, d := range excludeDirs {
		exclude[d] = true
	}

	var files []bundler.File
	rootSet := map[string]bool{}

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != dir && exclude[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		files = append(files, bundler.File{Path: filepath.ToSlash(rel), Content: content})

		if strings.HasSuffix(path, ".rego") {
			m := module.Parse(path, string(content))
			if m.Package != "" {
				rootSet[strings.SplitN(m.Package, ".", 2)[0]] = true
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("walk policy directory %s: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, nil, fmt.Errorf("no files found under %s", dir)
	}

	roots := make([]string, 0, len(rootSet))
	for r := range rootSet {
		roots = append(roots, r)
	}
	return files, roots, nil
}

// resolveGitCommit reads the current HEAD commit SHA of the repository
// rooted at dir, if dir itself contains a .git directory; for any other
// directory, including a subdirectory of a working tree, it returns "".
// It opens the existing checkout rather than cloning: Repository field is
// required by NewRepository but is never dereferenced on this path.
func resolveGitCommit(dir string) string {
	repo, err := git.NewRepository(&git.RepoConfig{
		Repository: dir,
		Branch:     "HEAD",
		Clone:      git.CloneConfig{LocalPath: dir},
	})
	if err != nil {
		return ""
	}
	// Clone opens the existing .git directory in place rather than
	// fetching, since LocalPath already contains a repository.
	if err := repo.Clone(context.Background()); err != nil {
		return ""
	}
	commit, err := repo.GetCurrentCommit()
	if err != nil {
		return ""
	}
	return commit.SHA
}

// parseModules re-parses every .rego file among files into a
// module.Module, for validator/testsuite consumers that operate on
// parsed modules rather than raw bundler.File entries.
func parseModules(files []bundler.File) ([]module.Module, error) {
	var modules []module.Module
	for _, f := range files {
		if !strings.HasSuffix(f.Path, ".rego") {
			continue
		}
		modules = append(modules, module.Parse(f.Path, string(f.Content)))
	}
	return modules, nil
}

// loadOperationIDs reads a service contract JSON file (a list of valid
// operation_id strings) into the set shape validator.Options expects.
func loadOperationIDs(path string) (map[string]bool, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read service contract %s: %w", path, err)
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, fmt.Errorf("parse service contract %s: %w", path, err)
	}
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set, nil
}
