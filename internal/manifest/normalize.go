package manifest

import (
	"path/filepath"
	"strings"
)

// Normalize derives the canonical record for raw, read from rawPath under corpusRoot.
//
// Only the first listed category is kept; the rest are dropped. Absent dependency
// keys yield nil versions.
func Normalize(raw Raw, corpusRoot, rawPath string) Normalized {
	n := Normalized{Raw: raw}

	if len(raw.Categories) > 0 {
		n.Category = raw.Categories[0]
		n.Raw.Categories = []string{raw.Categories[0]}
	} else {
		n.Raw.Categories = []string{}
	}

	n.Path = RelativePath(corpusRoot, rawPath)
	n.Dir = strings.TrimPrefix(n.Path, "/")

	n.APIVersion = lookup(raw.Dependencies, APIDependency)
	n.UtilsVersion = lookup(raw.Dependencies, UtilsDependency)

	return n
}

// RelativePath strips corpusRoot and the trailing manifest file name from
// manifestPath, returning a slash-separated path that begins with "/".
func RelativePath(corpusRoot, manifestPath string) string {
	root := strings.TrimRight(filepath.ToSlash(filepath.Clean(corpusRoot)), "/")
	p := filepath.ToSlash(filepath.Clean(manifestPath))

	p = strings.TrimPrefix(p, root)
	p = strings.TrimSuffix(p, "/"+FileName)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}

func lookup(deps map[string]string, key string) *string {
	v, ok := deps[key]
	if !ok || v == "" {
		return nil
	}
	return &v
}
