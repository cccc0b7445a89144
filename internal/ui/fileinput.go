package ui

import (
	"os"
	"path/filepath"

	"github.com/sahilm/fuzzy"
)

// candidateFiles walks dir recursively, skipping any .git, .bear and
// node_modules directory, and returns file paths relative to dir for fuzzy matching against a
// user's in-progress SpecFileInput/PlanFileInput typed path.
func candidateFiles(dir string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if d.IsDir() && (name == ".git" || name == ".bear" || name == "node_modules") {
			return filepath.SkipDir
		}
		if d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(dir, path)
		if relErr != nil {
			return nil
		}
		out = append(out, rel)
		return nil
	})
	return out, err
}

// FilterFiles ranks candidateFiles in dir against the user's partial input,
// best match first.
func FilterFiles(dir, query string) ([]string, error) {
	candidates, err := candidateFiles(dir)
	if err != nil {
		return nil, err
	}
	if query == "" {
		return candidates, nil
	}

	matches := fuzzy.Find(query, candidates)
	out := make([]string, len(matches))
	for i, match := range matches {
		out[i] = candidates[match.Index]
	}
	return out, nil
}
