package explain

import (
	"fmt"
	"strings"
)

const systemPrompt = `You are a strict algorithm tutor for a personal revision app.

Analyze ONLY the user's submitted solution and explain the approach THEY used.
Do not suggest alternative solutions, optimizations, or improvements.

Explain the solution in a way that helps the user recall their own thinking later.

Rules:
- Do not change the algorithm.
- Do not introduce new ideas.
- Do not mention better approaches.
- Do not compare with other techniques.
- Every explanation step must reference logic, variables, loops, or conditions present in the user's code.
- Leave "roast" empty unless there is a specific code choice worth teasing.`

func buildUserMessage(in Input) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Problem: %s\n", in.Title)
	if in.Difficulty != "" {
		fmt.Fprintf(&b, "Listed difficulty: %s\n", in.Difficulty)
	}
	fmt.Fprintf(&b, "Language: %s\n\n", in.Language)
	fmt.Fprintf(&b, "Code:\n```%s\n%s\n```\n", strings.ToLower(in.Language), strings.TrimRight(in.Code, "\n"))
	return b.String()
}
