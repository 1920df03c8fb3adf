// Package complexity implements the Complexity Detector (spec §4.1): a
// pure, deterministic heuristic scorer deciding whether an input needs
// the full pipeline or can take the fast path. The scanning style
// (lowercased input, cue-word membership tests) follows the teacher's
// WorkflowRouter.findMatchingWorkflow keyword matching, generalized from
// a yes/no trigger check into a continuous score.
package complexity

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/cogpipe/core/pkg/types"
)

var (
	sentenceSplitter = regexp.MustCompile(`[.!?]+`)
	enumerationCue   = regexp.MustCompile(`(?i)\b(\d+[.)]|first|second|third|finally)\b`)
)

var conjunctiveCues = []string{"and", "then", "after", "before", "also", "next"}

var actionableVerbs = []string{
	"analyze", "generate", "synchronize", "sync", "search", "find",
	"read", "write", "create", "delete", "run", "execute", "fetch",
	"download", "upload", "build", "deploy", "install", "query",
	"summarize", "explain", "refactor", "debug", "test",
}

const (
	lowThreshold  = 0.33
	highThreshold = 0.66
)

// Detector scores inputs for pipeline complexity.
type Detector struct{}

// NewDetector builds a Detector. It has no configuration: the scoring
// weights are fixed heuristics, matching spec §4.1's target of a pure,
// sub-5ms classifier.
func NewDetector() *Detector {
	return &Detector{}
}

// Detect scores input and classifies it into a ComplexityLevel. It never
// fails; an empty input always returns simple/0/false.
func (d *Detector) Detect(input string) types.ComplexityResult {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return types.ComplexityResult{
			Level:             types.ComplexitySimple,
			Score:             0,
			Reasoning:         "empty input",
			ShouldUsePipeline: false,
		}
	}

	lower := strings.ToLower(trimmed)

	lengthSignal := clamp(float64(len(trimmed))/400.0, 0, 1)

	sentences := countSentences(trimmed)
	sentenceSignal := clamp(float64(sentences-1)/4.0, 0, 1)

	conjunctionCount := countConjunctiveCues(lower)
	conjunctionSignal := clamp(float64(conjunctionCount)/3.0, 0, 1)

	verbCount := countActionableVerbs(lower)
	verbSignal := clamp(float64(verbCount)/3.0, 0, 1)

	enumerationSignal := 0.0
	if enumerationCue.MatchString(lower) {
		enumerationSignal = 1.0
	}

	score := weightedAverage(
		[2]float64{lengthSignal, 0.15},
		[2]float64{sentenceSignal, 0.2},
		[2]float64{conjunctionSignal, 0.25},
		[2]float64{verbSignal, 0.25},
		[2]float64{enumerationSignal, 0.15},
	)

	level := types.ComplexitySimple
	switch {
	case score >= highThreshold:
		level = types.ComplexityComplex
	case score >= lowThreshold:
		level = types.ComplexityModerate
	}

	hasActionableVerb := verbCount > 0
	shouldUsePipeline := !(level == types.ComplexitySimple && !hasActionableVerb)

	estimatedSteps := 1
	if level == types.ComplexityModerate {
		estimatedSteps = 2
	} else if level == types.ComplexityComplex {
		estimatedSteps = 3 + conjunctionCount
	}

	return types.ComplexityResult{
		Level:             level,
		Score:             score,
		Reasoning:         reasoning(level, sentences, conjunctionCount, verbCount),
		ShouldUsePipeline: shouldUsePipeline,
		EstimatedSteps:    estimatedSteps,
	}
}

func countSentences(s string) int {
	parts := sentenceSplitter.Split(s, -1)
	count := 0
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			count++
		}
	}
	if count == 0 {
		count = 1
	}
	return count
}

func countConjunctiveCues(lower string) int {
	count := 0
	for _, cue := range conjunctiveCues {
		count += strings.Count(" "+lower+" ", " "+cue+" ")
	}
	return count
}

func countActionableVerbs(lower string) int {
	count := 0
	for _, verb := range actionableVerbs {
		if strings.Contains(lower, verb) {
			count++
		}
	}
	return count
}

func weightedAverage(pairs ...[2]float64) float64 {
	var sum, weight float64
	for _, p := range pairs {
		sum += p[0] * p[1]
		weight += p[1]
	}
	if weight == 0 {
		return 0
	}
	return sum / weight
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func reasoning(level types.ComplexityLevel, sentences, conjunctions, verbs int) string {
	return fmt.Sprintf("level=%s sentences=%d conjunctive_cues=%d actionable_verbs=%d",
		level, sentences, conjunctions, verbs)
}
