package prompt

import (
	"encoding/json"

	"github.com/sashabaranov/go-openai"
)

// AnalysisToolName is the function the model is forced to invoke; its
// arguments are the structured analysis.
const AnalysisToolName = "report_contract_analysis"

// LegalDisclaimer is appended server-side to every analysis result,
// overwriting anything the model may have produced in that field.
const LegalDisclaimer = "This analysis is generated by an AI system and is provided for informational purposes only. It does not constitute legal advice and does not create an attorney-client relationship. Consult a qualified attorney before acting on any of its contents."

// AnalystSystemPrompt describes the analyst persona and applicable legal
// framework for the forced-schema analysis request.
const AnalystSystemPrompt = `You are a senior contract analyst with deep expertise in commercial contract law. Review the contract provided by the user and produce a structured risk analysis by calling the ` + AnalysisToolName + ` function. Ground every finding in the contract text itself.

Scoring rules:
- risk_score is 0-100, higher means riskier for the party reviewing the contract.
- confidentiality_score is 0-100, higher means confidential information is better protected.
- Use lowercase risk levels: high, medium, low.
- red_flags must cite the problematic clause verbatim or near-verbatim.
- risk_categories cover named dimensions of contractual risk (payment, liability, IP ownership, termination, confidentiality) each with its own 0-100 score.
- suggested_clauses offer replacement language; clause_type is one of balanced, protective, aggressive.`

// analysisSchema is the JSON schema for the forced tool call. It mirrors
// the analysis.Result shape.
const analysisSchema = `{
  "type": "object",
  "properties": {
    "risk_score": {"type": "integer", "minimum": 0, "maximum": 100},
    "confidentiality_score": {"type": "integer", "minimum": 0, "maximum": 100},
    "overall_risk_level": {"type": "string", "enum": ["high", "medium", "low"]},
    "contract_purpose": {"type": "string"},
    "parties": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "name": {"type": "string"},
          "role": {"type": "string"},
          "location": {"type": "string"}
        },
        "required": ["name", "role"]
      }
    },
    "summary": {"type": "string"},
    "red_flags": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "clause": {"type": "string"},
          "severity": {"type": "string", "enum": ["high", "medium", "low"]},
          "explanation": {"type": "string"}
        },
        "required": ["clause", "severity", "explanation"]
      }
    },
    "clause_explanations": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "title": {"type": "string"},
          "original_text": {"type": "string"},
          "explanation": {"type": "string"},
          "risk_level": {"type": "string", "enum": ["high", "medium", "low"]}
        },
        "required": ["title", "original_text", "explanation", "risk_level"]
      }
    },
    "risk_categories": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "name": {"type": "string"},
          "level": {"type": "string", "enum": ["high", "medium", "low"]},
          "score": {"type": "integer", "minimum": 0, "maximum": 100},
          "issues": {"type": "array", "items": {"type": "string"}},
          "recommendations": {"type": "array", "items": {"type": "string"}},
          "original_clause": {"type": "string"},
          "improved_clause": {"type": "string"}
        },
        "required": ["name", "level", "score", "issues", "recommendations"]
      }
    },
    "suggested_clauses": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "title": {"type": "string"},
          "category": {"type": "string"},
          "description": {"type": "string"},
          "clause_type": {"type": "string", "enum": ["balanced", "protective", "aggressive"]},
          "clause_text": {"type": "string"}
        },
        "required": ["title", "category", "description", "clause_type", "clause_text"]
      }
    },
    "profit_suggestions": {"type": "array", "items": {"type": "string"}},
    "legal_compliance_notes": {"type": "array", "items": {"type": "string"}}
  },
  "required": ["risk_score", "confidentiality_score", "contract_purpose", "parties", "summary", "red_flags", "clause_explanations", "risk_categories", "suggested_clauses"]
}`

// AnalysisTool returns the tool definition the model is forced to invoke.
func AnalysisTool() openai.Tool {
	return openai.Tool{
		Type: openai.ToolTypeFunction,
		Function: &openai.FunctionDefinition{
			Name:        AnalysisToolName,
			Description: "Report the structured risk analysis of the provided contract.",
			Parameters:  json.RawMessage(analysisSchema),
		},
	}
}

// AnalysisToolChoice forces the model to invoke the analysis function
// instead of replying with free text.
func AnalysisToolChoice() any {
	return openai.ToolChoice{
		Type:     openai.ToolTypeFunction,
		Function: openai.ToolFunction{Name: AnalysisToolName},
	}
}
