package dataset

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/Sriram-PR/md-dataset/pkg/utils"
)

// FindDocuments walks root recursively and returns the paths of regular files
// whose extension is in extensions (compared case-insensitively). Paths whose
// slash-separated form relative to root matches any exclude pattern are
// skipped; a matching directory prunes its whole subtree.
//
// Results come back in lexical walk order, so repeated runs over an unchanged
// tree see the same sequence.
func FindDocuments(root string, extensions []string, exclude []*regexp.Regexp) ([]string, error) {
	extSet := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		extSet[strings.ToLower(ext)] = true
	}

	var found []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if rel != "." && utils.MatchesAny(rel+"/", exclude) {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if !extSet[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		if utils.MatchesAny(rel, exclude) {
			return nil
		}

		found = append(found, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: walk '%s': %w", utils.ErrFilesystem, root, err)
	}
	return found, nil
}
