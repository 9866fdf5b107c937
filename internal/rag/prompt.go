package rag

import (
	"fmt"
	"strings"

	"creditmemo/internal/model"
)

const steeringDirectives = "\n\nInstructions:\n" +
	"- Prefer the Source context below over general knowledge when it is relevant.\n" +
	"- When you use it, cite the reference token of each passage you rely on, e.g. [#n].\n" +
	"- If the context is insufficient or irrelevant, say so explicitly.\n"

// BuildContextBlock renders matches as numbered references in input order.
// It returns "" for no matches.
func BuildContextBlock(matches []model.QueryMatch) string {
	if len(matches) == 0 {
		return ""
	}
	refs := make([]string, len(matches))
	for i, m := range matches {
		refs[i] = fmt.Sprintf("[#%d] (doc=%s, chunk=%d)\n%s", i+1, m.DocumentID, m.ChunkIndex, m.Content)
	}
	return "\n## Source context (uploaded documents)\n" + strings.Join(refs, "\n\n") + "\n"
}

// BuildPrompt appends the steering directives and the context block to the
// instruction. With no matches the instruction is returned unchanged.
func BuildPrompt(instruction string, matches []model.QueryMatch) string {
	if len(matches) == 0 {
		return instruction
	}
	return instruction + steeringDirectives + BuildContextBlock(matches)
}

// Ref is the citation token for the i-th (zero-based) match.
func Ref(i int) string {
	return fmt.Sprintf("#%d", i+1)
}
