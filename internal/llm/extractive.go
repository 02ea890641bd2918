package llm

import (
	"context"
	"math"
	"sort"
	"strings"

	"docquery/internal/domain"
	"docquery/internal/textutil"
)

// The grounding prompt labels its parts; the extractive generator keys off
// the same labels to recover them.
const (
	contextMarker  = "Context:"
	questionMarker = "Question:"
)

// Extractive is a local generation capability: it answers by selecting the
// context sentences most relevant to the question. Useful when no remote
// model is configured; the pipeline stays fully offline.
type Extractive struct{}

// NewExtractive creates the extractive generator.
func NewExtractive() *Extractive { return &Extractive{} }

// Name returns the identifier of this generator implementation.
func (e *Extractive) Name() string { return "extractive" }

// Generate ranks the context sentences by question-token overlap, with
// corpus term frequency as tie-breaker, and returns the top sentences in
// their original order. MaxTokens caps the answer length in words.
func (e *Extractive) Generate(_ context.Context, prompt string, params domain.GenerationParams) (string, error) {
	question, contextText := splitPrompt(prompt)
	sentences := textutil.Sentences(contextText)
	if len(sentences) == 0 {
		return "", nil
	}

	freq := map[string]float64{}
	for _, sent := range sentences {
		for _, tok := range textutil.ContentTokens(sent) {
			freq[tok]++
		}
	}
	maxFreq := 0.0
	for _, v := range freq {
		if v > maxFreq {
			maxFreq = v
		}
	}

	questionTokens := make(map[string]struct{})
	for _, tok := range textutil.ContentTokens(question) {
		questionTokens[tok] = struct{}{}
	}

	type ranked struct {
		idx   int
		score float64
	}
	scores := make([]ranked, len(sentences))
	for i, sent := range sentences {
		overlap := 0.0
		weight := 0.0
		seen := make(map[string]struct{})
		for _, tok := range textutil.ContentTokens(sent) {
			if _, ok := seen[tok]; ok {
				continue
			}
			seen[tok] = struct{}{}
			if _, ok := questionTokens[tok]; ok {
				overlap++
			}
			if maxFreq > 0 {
				weight += freq[tok] / maxFreq
			}
		}
		score := overlap
		if n := float64(len(seen)); n > 0 {
			score += 0.01 * weight / math.Sqrt(n)
		}
		scores[i] = ranked{i, score}
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].score > scores[j].score })

	budget := params.MaxTokens
	if budget <= 0 {
		budget = 64
	}
	var selected []int
	used := 0
	for _, r := range scores {
		words := len(strings.Fields(sentences[r.idx]))
		if len(selected) > 0 && used+words > budget {
			break
		}
		selected = append(selected, r.idx)
		used += words
		if used >= budget {
			break
		}
	}
	sort.Ints(selected)

	parts := make([]string, len(selected))
	for i, idx := range selected {
		parts[i] = sentences[idx]
	}
	return strings.Join(parts, " "), nil
}

// splitPrompt separates the grounding context from the literal question.
func splitPrompt(prompt string) (question, contextText string) {
	idx := strings.LastIndex(prompt, questionMarker)
	if idx < 0 {
		return strings.TrimSpace(prompt), ""
	}
	before := prompt[:idx]
	if c := strings.Index(before, contextMarker); c >= 0 {
		before = before[c+len(contextMarker):]
	}
	return strings.TrimSpace(prompt[idx+len(questionMarker):]), before
}
