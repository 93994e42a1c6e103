package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vericlause/vericlause-ai/internal/domain/analysis"
)

func TestChatSystemPromptSections(t *testing.T) {
	p := ChatSystemPrompt("THE CONTRACT", "THE REFS")
	assert.Contains(t, p, "=== CONTRACT ===\nTHE CONTRACT")
	assert.Contains(t, p, "=== REFERENCE DOCUMENTS ===\nTHE REFS")

	// No reference section when there are no references.
	p = ChatSystemPrompt("THE CONTRACT", "")
	assert.NotContains(t, p, "REFERENCE DOCUMENTS")
}

func TestBuildUpdateInstructions(t *testing.T) {
	out := BuildUpdateInstructions([]analysis.ContractChange{
		{
			Type: analysis.ChangeSuggestedClause,
			Data: analysis.ChangeData{
				Title:       "Indemnification",
				Description: "mutual indemnity",
				ClauseText:  "Each party shall indemnify the other.",
			},
		},
		{
			Type: analysis.ChangeImprovedClause,
			Data: analysis.ChangeData{
				Category:       "Termination",
				OriginalClause: "Either party may terminate at will.",
				ImprovedClause: "Either party may terminate with 30 days notice.",
			},
		},
	})

	assert.Contains(t, out, "1. Insert a new clause titled \"Indemnification\"")
	assert.Contains(t, out, "Each party shall indemnify the other.")
	assert.Contains(t, out, "2. In the \"Termination\" risk category")
	assert.Contains(t, out, "30 days notice")
}
