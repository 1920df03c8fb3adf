// Package output implements the Output Engine (spec §4.11): format
// auto-detection from content shape and deterministic error rendering.
// There is no direct teacher analogue — gomind agents return plain
// strings and leave formatting to the caller — so this package is
// built in the teacher's idiom (small pure functions, table-driven
// tests) rather than adapted from an existing file.
package output

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/cogpipe/core/pkg/types"
)

// Input is what Format needs to render content (spec §4.11).
type Input struct {
	Content      interface{}
	Format       types.Format
	Error        bool
	ErrorMessage string
	Metadata     map[string]interface{}
}

var markdownHeadingPattern = regexp.MustCompile(`(?m)^#{1,6}\s`)
var markdownFencePattern = regexp.MustCompile("```")
var markdownListPattern = regexp.MustCompile(`(?m)^-\s`)

// Format renders in per spec §4.11.
func Format(in Input) types.FormattedOutput {
	if in.Error {
		return types.FormattedOutput{
			Format:       formatOrDefault(in.Format),
			Content:      "❌ **Error**\n\n" + in.ErrorMessage,
			Metadata:     in.Metadata,
			Error:        true,
			ErrorMessage: in.ErrorMessage,
		}
	}

	format := in.Format
	if format == "" {
		format = detectFormat(in.Content)
	}

	metadata := in.Metadata
	if format == types.FormatCode {
		if s, ok := in.Content.(string); ok {
			metadata = withLanguage(metadata, DetectLanguage(s))
		}
	}

	return types.FormattedOutput{
		Format:   format,
		Content:  render(in.Content, format),
		Metadata: metadata,
	}
}

func withLanguage(metadata map[string]interface{}, language string) map[string]interface{} {
	out := make(map[string]interface{}, len(metadata)+1)
	for k, v := range metadata {
		out[k] = v
	}
	out["language"] = language
	return out
}

func formatOrDefault(f types.Format) types.Format {
	if f == "" {
		return types.FormatMarkdown
	}
	return f
}

func detectFormat(content interface{}) types.Format {
	switch v := content.(type) {
	case string:
		return detectStringFormat(v)
	case nil:
		return types.FormatMarkdown
	default:
		return types.FormatJSON
	}
}

func detectStringFormat(s string) types.Format {
	if looksLikeCode(s) {
		return types.FormatCode
	}
	if looksLikeMarkdown(s) {
		return types.FormatMarkdown
	}
	return types.FormatMarkdown
}

func looksLikeCode(s string) bool {
	return strings.Contains(s, "function ") || strings.Contains(s, "class ") ||
		strings.Contains(s, "const ") || strings.Contains(s, "import ")
}

func looksLikeMarkdown(s string) bool {
	return markdownHeadingPattern.MatchString(s) || markdownFencePattern.MatchString(s) || markdownListPattern.MatchString(s)
}

// DetectLanguage sniffs the source language of a code-classified string
// (spec §4.11's language table).
func DetectLanguage(s string) string {
	switch {
	case strings.Contains(s, "interface ") || strings.Contains(s, ": "):
		return "typescript"
	case strings.Contains(s, "def ") && strings.Contains(s, "import from"):
		return "python"
	case strings.Contains(s, "package ") && strings.Contains(s, "func "):
		return "go"
	case strings.Contains(s, "fn ") && strings.Contains(s, "let mut "):
		return "rust"
	case strings.Contains(s, "public class "):
		return "java"
	case looksLikeCode(s):
		return "javascript"
	default:
		return "text"
	}
}

func render(content interface{}, format types.Format) string {
	switch format {
	case types.FormatJSON:
		if s, ok := content.(string); ok {
			return s
		}
		return renderJSON(content)
	case types.FormatCode:
		if s, ok := content.(string); ok {
			return s
		}
		return renderJSON(content)
	default:
		if s, ok := content.(string); ok {
			return s
		}
		return renderJSON(content)
	}
}

func renderJSON(content interface{}) string {
	b, err := json.MarshalIndent(content, "", "  ")
	if err != nil {
		return ""
	}
	return string(b)
}
