package intent

import (
	"regexp"
	"strings"

	"github.com/cogpipe/core/pkg/types"
)

var (
	urlPattern     = regexp.MustCompile(`https?://[^\s]+`)
	scopedPkgPattern = regexp.MustCompile(`@[a-zA-Z0-9_.-]+/[a-zA-Z0-9_.-]+`)
	handlePattern  = regexp.MustCompile(`@[a-zA-Z0-9_-]+\b`)
	absPathPattern = regexp.MustCompile(`(?:/[\w.\-]+)+\.[a-zA-Z0-9]{1,8}|(?:[A-Za-z]:\\[\w.\\-]+)`)
	relPathPattern = regexp.MustCompile(`\b(?:\.{1,2}/)?[\w.\-]+/[\w.\-/]+\.[a-zA-Z0-9]{1,8}\b|\b[\w.\-]+\.[a-zA-Z]{1,8}\b`)
)

// knownExtensions is the closed list of file extensions recognized during
// entity extraction (spec §4.2).
var knownExtensions = map[string]bool{
	"txt": true, "md": true, "go": true, "py": true, "js": true, "ts": true,
	"tsx": true, "jsx": true, "json": true, "yaml": true, "yml": true,
	"toml": true, "html": true, "css": true, "c": true, "cpp": true,
	"h": true, "hpp": true, "java": true, "rb": true, "rs": true,
	"sh": true, "sql": true, "csv": true, "log": true, "xml": true,
	"pdf": true, "png": true, "jpg": true, "jpeg": true, "gif": true,
}

// ExtractEntities scans input independently of intent classification for
// paths, URLs, handles, file extensions, and scoped packages (spec §4.2).
func ExtractEntities(input string) map[string][]string {
	entities := map[string][]string{}

	if urls := dedupe(urlPattern.FindAllString(input, -1)); len(urls) > 0 {
		entities[types.EntityURLs] = urls
	}

	if pkgs := dedupe(scopedPkgPattern.FindAllString(input, -1)); len(pkgs) > 0 {
		entities[types.EntityPackages] = pkgs
	}

	// Handles: @name not part of a scoped package (no following "/name").
	var handles []string
	for _, h := range handlePattern.FindAllString(input, -1) {
		isScoped := false
		for _, p := range entities[types.EntityPackages] {
			if strings.HasPrefix(p, h) {
				isScoped = true
				break
			}
		}
		if !isScoped {
			handles = append(handles, h)
		}
	}
	if handles = dedupe(handles); len(handles) > 0 {
		entities[types.EntityGithubUsers] = handles
	}

	paths := dedupe(append(absPathPattern.FindAllString(input, -1), relPathPattern.FindAllString(input, -1)...))
	paths = filterOutURLFragments(paths, entities[types.EntityURLs])
	if len(paths) > 0 {
		entities[types.EntityFilePaths] = paths
	}

	var extensions []string
	for _, p := range paths {
		if ext := extensionOf(p); ext != "" && knownExtensions[ext] {
			extensions = append(extensions, ext)
		}
	}
	if extensions = dedupe(extensions); len(extensions) > 0 {
		entities[types.EntityFileExtensions] = extensions
	}

	return entities
}

func extensionOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '.' {
			return strings.ToLower(path[i+1:])
		}
		if path[i] == '/' || path[i] == '\\' {
			return ""
		}
	}
	return ""
}

func dedupe(items []string) []string {
	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if !seen[item] {
			seen[item] = true
			out = append(out, item)
		}
	}
	return out
}

func filterOutURLFragments(paths, urls []string) []string {
	if len(urls) == 0 {
		return paths
	}
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		contained := false
		for _, u := range urls {
			if strings.Contains(u, p) {
				contained = true
				break
			}
		}
		if !contained {
			out = append(out, p)
		}
	}
	return out
}
