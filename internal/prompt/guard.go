package prompt

import (
	"fmt"
	"regexp"
)

// RejectionReason classifies why a question was refused before reaching
// the generation pipeline.
type RejectionReason string

const (
	ReasonInstructionOverride RejectionReason = "instruction_override"
	ReasonRoleManipulation    RejectionReason = "role_manipulation"
	ReasonDelimiterAttack     RejectionReason = "delimiter_attack"
	ReasonCodeExecution       RejectionReason = "code_execution"
)

// Rejection describes the first matched guard pattern.
type Rejection struct {
	Reason  RejectionReason
	Pattern string
}

func (r *Rejection) Error() string {
	return fmt.Sprintf("question rejected: %s", r.Reason)
}

var guardPatterns = []struct {
	reason   RejectionReason
	patterns []*regexp.Regexp
}{
	{
		reason: ReasonInstructionOverride,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)ignore\s+(previous|all|above|prior)\s+(instructions?|prompts?|commands?)`),
			regexp.MustCompile(`(?i)disregard\s+(all|previous|above|any)\s+(instructions?|rules|commands?)`),
			regexp.MustCompile(`(?i)forget\s+(everything|all\s+previous)`),
			regexp.MustCompile(`(?i)(show|reveal|print|repeat)\s+(me\s+)?(your|the)\s+(system|original|initial|hidden)\s+(prompt|instructions?)`),
		},
	},
	{
		reason: ReasonRoleManipulation,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)assume\s+(the\s+)?(role|identity)\s+of`),
			regexp.MustCompile(`(?i)pretend\s+(to\s+)?be\s+(a|an)`),
			regexp.MustCompile(`(?i)from\s+now\s+on[,]?\s+(you|your)\s+(are|will)`),
			regexp.MustCompile(`(?i)act\s+as\s+(if\s+)?(you|you're|you\s+are)`),
		},
	},
	{
		reason: ReasonDelimiterAttack,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`\[/?(SYSTEM|USER|ASSISTANT)\]`),
			regexp.MustCompile(`<\|(system|user|assistant|end)\|>`),
			regexp.MustCompile(`###\s*(SYSTEM|USER|ASSISTANT|INSTRUCTION)`),
		},
	},
	{
		reason: ReasonCodeExecution,
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)(execute|run)\s+(this|the\s+following)\s+(code|script|command)`),
			regexp.MustCompile(`(?i)(eval|exec|system)\s*\(`),
		},
	},
}

// CheckQuestion screens a user question for prompt injection attempts.
// Questions land verbatim inside the assembled prompt, so anything that
// tries to rewrite the surrounding instructions is refused up front.
// Returns nil when the question is safe to use.
func CheckQuestion(question string) *Rejection {
	for _, group := range guardPatterns {
		for _, pattern := range group.patterns {
			if pattern.MatchString(question) {
				return &Rejection{Reason: group.reason, Pattern: pattern.String()}
			}
		}
	}
	return nil
}
