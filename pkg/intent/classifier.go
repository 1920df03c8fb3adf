// Package intent implements the Intent Classifier (spec §4.2): scored
// pattern matching over registered intent categories plus independent
// entity extraction. The scored-pattern-set shape is grounded on the
// teacher's WorkflowRouter trigger matching (pkg/routing/workflow.go),
// generalized from first-match-wins workflow selection into per-category
// accumulated, normalized scores.
package intent

import (
	"regexp"
	"strings"

	"github.com/cogpipe/core/pkg/types"
)

// pattern is one registered intent pattern: keyword cues score 1 point
// each, regex cues score more (stronger weight per spec §4.2), and the
// category weight scales the accumulated score before normalization.
type pattern struct {
	category   types.IntentCategory
	keywords   []string
	regexCues  []*regexp.Regexp
	weight     float64
}

const (
	keywordScore = 1.0
	regexScore   = 2.5
	minCategoryThreshold = 0.1
	multiIntentThreshold = 0.5
)

var registeredPatterns = []pattern{
	{
		category: types.IntentFileRead,
		keywords: []string{"read", "open", "show", "view", "cat", "display"},
		regexCues: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bread\s+(the\s+)?file`),
			regexp.MustCompile(`(?i)\bwhat'?s\s+in\b`),
		},
		weight: 1.0,
	},
	{
		category: types.IntentFileWrite,
		keywords: []string{"write", "save", "create", "append", "edit"},
		regexCues: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bwrite\s+(a\s+)?file`),
			regexp.MustCompile(`(?i)\bsave\s+(this|that|it)\s+to\b`),
		},
		weight: 1.0,
	},
	{
		category: types.IntentFileSearch,
		keywords: []string{"search", "find", "locate", "grep", "look for"},
		regexCues: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bfind\s+(all\s+)?files?\b`),
			regexp.MustCompile(`(?i)\bsearch\s+for\b`),
		},
		weight: 1.0,
	},
	{
		category: types.IntentShellCommand,
		keywords: []string{"run", "execute", "command", "shell", "terminal"},
		regexCues: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\brun\s+(this\s+)?command\b`),
			regexp.MustCompile(`^\s*(sudo|ls|cd|rm|cat|git|npm|go|python)\b`),
		},
		weight: 1.1,
	},
	{
		category: types.IntentNetworkRequest,
		keywords: []string{"fetch", "download", "http", "request", "url"},
		regexCues: []*regexp.Regexp{
			regexp.MustCompile(`https?://`),
			regexp.MustCompile(`(?i)\bmake\s+a\s+request\b`),
		},
		weight: 1.0,
	},
	{
		category: types.IntentGithubQuery,
		keywords: []string{"github", "repo", "repository", "pull request", "issue"},
		regexCues: []*regexp.Regexp{
			regexp.MustCompile(`@[a-zA-Z0-9_-]+`),
			regexp.MustCompile(`(?i)\bgithub\.com\b`),
		},
		weight: 1.0,
	},
	{
		category: types.IntentAutomation,
		keywords: []string{"automate", "schedule", "workflow", "trigger", "cron"},
		regexCues: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bevery\s+(day|hour|minute|week)\b`),
		},
		weight: 1.0,
	},
	{
		category: types.IntentQueryKnowledge,
		keywords: []string{"what is", "explain", "how does", "tell me about", "why"},
		regexCues: []*regexp.Regexp{
			regexp.MustCompile(`(?i)^\s*(what|why|how|explain)\b`),
		},
		weight: 0.9,
	},
	{
		category: types.IntentMultiPC,
		keywords: []string{"other machine", "remote peer", "another computer", "peer"},
		regexCues: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bon\s+the\s+other\s+(pc|machine|computer)\b`),
		},
		weight: 1.0,
	},
	{
		category: types.IntentMemoryRecall,
		keywords: []string{"remember", "recall", "what did i say", "earlier", "previously"},
		regexCues: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bwhat\s+did\s+(i|we)\s+(say|discuss)\b`),
		},
		weight: 1.0,
	},
	{
		category: types.IntentCodeAnalysis,
		keywords: []string{"analyze code", "review code", "code quality", "lint", "refactor"},
		regexCues: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\banalyze\s+(the\s+)?(code|codebase|repository)\b`),
		},
		weight: 1.0,
	},
	{
		category: types.IntentPlanning,
		keywords: []string{"plan", "roadmap", "steps to", "outline"},
		regexCues: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\bcreate\s+a\s+plan\b`),
		},
		weight: 0.9,
	},
}

// Classifier scores registered patterns against an input and extracts entities.
type Classifier struct {
	patterns []pattern
}

// NewClassifier builds a Classifier with the built-in category patterns.
func NewClassifier() *Classifier {
	return &Classifier{patterns: registeredPatterns}
}

// Detect scores each registered category against input and returns the
// Intent (spec §4.2). It never fails.
func (c *Classifier) Detect(input string) types.Intent {
	lower := strings.ToLower(input)

	scores := make(map[types.IntentCategory]float64, len(c.patterns))
	var total float64
	for _, p := range c.patterns {
		raw := rawScore(p, input, lower)
		weighted := raw * p.weight
		scores[p.category] = weighted
		total += weighted
	}

	normalized := make(map[types.IntentCategory]float64, len(scores))
	if total > 0 {
		for cat, s := range scores {
			normalized[cat] = s / total
		}
	}

	entities := ExtractEntities(input)

	best, bestScore, second, secondScore := topTwo(normalized)
	if bestScore < minCategoryThreshold {
		return types.Intent{
			Category:    types.IntentUnknown,
			Confidence:  0.5,
			Entities:    entities,
			MultiIntent: false,
		}
	}

	result := types.Intent{
		Category:   best,
		Confidence: bestScore,
		Entities:   entities,
	}

	if secondScore > multiIntentThreshold && second != "" {
		result.MultiIntent = true
		result.SubIntents = []types.SubIntent{
			{Category: best, Confidence: bestScore, Entities: entities},
			{Category: second, Confidence: secondScore, Entities: entities},
		}
	}

	return result
}

func rawScore(p pattern, original, lower string) float64 {
	var score float64
	for _, kw := range p.keywords {
		if strings.Contains(lower, strings.ToLower(kw)) {
			score += keywordScore
		}
	}
	for _, re := range p.regexCues {
		if re.MatchString(original) {
			score += regexScore
		}
	}
	return score
}

func topTwo(scores map[types.IntentCategory]float64) (best types.IntentCategory, bestScore float64, second types.IntentCategory, secondScore float64) {
	for cat, score := range scores {
		if score > bestScore {
			second, secondScore = best, bestScore
			best, bestScore = cat, score
		} else if score > secondScore {
			second, secondScore = cat, score
		}
	}
	return
}
