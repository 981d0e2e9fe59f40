// Package guardrails screens learner text before it is embedded in LLM
// prompts.
package guardrails

import "strings"

// BlockScore is the injection score at or above which text is rejected.
const BlockScore = 0.8

// Result is the outcome of CheckInjection.
type Result struct {
	Allowed bool     `json:"allowed"`
	Score   float64  `json:"score"`
	Flags   []string `json:"flags,omitempty"`
}

var injectionPatterns = []struct {
	pattern string
	weight  float64
	flag    string
}{
	{"ignore previous instructions", 0.9, "override_attempt"},
	{"ignore all previous", 0.9, "override_attempt"},
	{"ignore the above", 0.85, "override_attempt"},
	{"disregard your instructions", 0.9, "override_attempt"},
	{"forget your instructions", 0.85, "override_attempt"},
	{"you are now", 0.6, "role_hijack"},
	{"pretend you are", 0.6, "role_hijack"},
	{"system prompt:", 0.8, "system_leak"},
	{"reveal your system", 0.8, "system_leak"},
	{"show me your prompt", 0.8, "system_leak"},
	{"jailbreak", 0.9, "jailbreak"},
	{"do anything now", 0.85, "jailbreak"},
	{"</system>", 0.8, "tag_injection"},
	{"<system>", 0.8, "tag_injection"},
	{"```system", 0.7, "format_injection"},
	{`"error_count"`, 0.8, "output_forgery"},
	{`"ideal_answer"`, 0.8, "output_forgery"},
}

// CheckInjection scores text by the strongest known injection phrase it
// contains. Ordinary spoken answers score 0; phrases that only hint at role
// play stay below BlockScore.
func CheckInjection(text string) Result {
	lower := strings.ToLower(text)
	var flags []string
	score := 0.0

	for _, p := range injectionPatterns {
		if !strings.Contains(lower, p.pattern) {
			continue
		}
		score = max(score, p.weight)
		flags = appendUnique(flags, p.flag)
	}

	return Result{Allowed: score < BlockScore, Score: score, Flags: flags}
}

func appendUnique(flags []string, f string) []string {
	for _, have := range flags {
		if have == f {
			return flags
		}
	}
	return append(flags, f)
}
