package prompt

import (
	"fmt"
	"strings"

	"github.com/vericlause/vericlause-ai/internal/domain/analysis"
)

// ChatSystemPrompt builds the system message for the follow-up chat. Both
// texts must already be truncated by the caller (contract to 15k chars,
// reference corpus to 30k).
func ChatSystemPrompt(contractText, referenceDocs string) string {
	var b strings.Builder
	b.WriteString(`You are a contract analysis assistant. Answer questions about the contract below.

Grounding rules:
- Only answer from the provided documents. If the answer is not in them, say you do not know.
- Cite the clause or document section your answer is based on.
- Do not give legal advice; explain what the documents say.

=== CONTRACT ===
`)
	b.WriteString(contractText)
	if referenceDocs != "" {
		b.WriteString("\n\n=== REFERENCE DOCUMENTS ===\n")
		b.WriteString(referenceDocs)
	}
	return b.String()
}

// UpdateSystemPrompt instructs the model to emit only the rewritten
// contract, preserving its structure and tone.
const UpdateSystemPrompt = `You are a contract editor. Apply the numbered changes to the contract exactly as instructed. Preserve the contract's structure, tone, numbering and formatting. Output only the final contract text with the changes applied. Do not add commentary, headers or markdown.`

// BuildUpdateInstructions serializes the ordered change list into a
// numbered natural-language instruction block.
func BuildUpdateInstructions(changes []analysis.ContractChange) string {
	var b strings.Builder
	b.WriteString("Apply the following changes to the contract:\n")
	for i, c := range changes {
		fmt.Fprintf(&b, "\n%d. %s", i+1, describeChange(c))
	}
	return b.String()
}

func describeChange(c analysis.ContractChange) string {
	switch c.Type {
	case analysis.ChangeImprovedClause:
		return fmt.Sprintf(
			"In the %q risk category, replace this original clause:\n%s\nwith this improved clause:\n%s",
			c.Data.Category, c.Data.OriginalClause, c.Data.ImprovedClause)
	case analysis.ChangeSuggestedClause:
		return fmt.Sprintf(
			"Insert a new clause titled %q (%s):\n%s",
			c.Data.Title, c.Data.Description, c.Data.ClauseText)
	default:
		return fmt.Sprintf("Apply change %q as described: %s", c.Label, c.Data.Description)
	}
}
