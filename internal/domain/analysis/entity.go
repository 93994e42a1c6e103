package analysis

import (
	"math"
	"time"
)

// RecordID identifier type
type RecordID string

// RiskLevel enum
type RiskLevel string

const (
	RiskHigh   RiskLevel = "high"
	RiskMedium RiskLevel = "medium"
	RiskLow    RiskLevel = "low"
)

// DeriveRiskLevel maps an overall risk score to its level band.
func DeriveRiskLevel(score int) RiskLevel {
	switch {
	case score >= 70:
		return RiskHigh
	case score >= 40:
		return RiskMedium
	default:
		return RiskLow
	}
}

// ClauseType enum for suggested clauses
type ClauseType string

const (
	ClauseBalanced   ClauseType = "balanced"
	ClauseProtective ClauseType = "protective"
	ClauseAggressive ClauseType = "aggressive"
)

// Party value object
type Party struct {
	Name     string `json:"name"`
	Role     string `json:"role"`
	Location string `json:"location"`
}

type RedFlag struct {
	Clause      string    `json:"clause"`
	Severity    RiskLevel `json:"severity"`
	Explanation string    `json:"explanation"`
}

type ClauseExplanation struct {
	Title        string    `json:"title"`
	OriginalText string    `json:"original_text"`
	Explanation  string    `json:"explanation"`
	RiskLevel    RiskLevel `json:"risk_level"`
}

type RiskCategory struct {
	Name            string    `json:"name"`
	Level           RiskLevel `json:"level"`
	Score           int       `json:"score"`
	Issues          []string  `json:"issues"`
	Recommendations []string  `json:"recommendations"`
	OriginalClause  string    `json:"original_clause,omitempty"`
	ImprovedClause  string    `json:"improved_clause,omitempty"`
}

type SuggestedClause struct {
	Title       string     `json:"title"`
	Category    string     `json:"category"`
	Description string     `json:"description"`
	ClauseType  ClauseType `json:"clause_type"`
	ClauseText  string     `json:"clause_text"`
}

// Result is the structured output of one contract analysis. It is created
// once per analysis request and immutable afterwards.
type Result struct {
	RiskScore            int                 `json:"risk_score"`
	ConfidentialityScore int                 `json:"confidentiality_score"`
	OverallRiskLevel     RiskLevel           `json:"overall_risk_level"`
	ContractPurpose      string              `json:"contract_purpose"`
	Parties              []Party             `json:"parties"`
	Summary              string              `json:"summary"`
	RedFlags             []RedFlag           `json:"red_flags"`
	ClauseExplanations   []ClauseExplanation `json:"clause_explanations"`
	RiskCategories       []RiskCategory      `json:"risk_categories"`
	SuggestedClauses     []SuggestedClause   `json:"suggested_clauses"`
	ProfitSuggestions    []string            `json:"profit_suggestions"`
	LegalComplianceNotes []string            `json:"legal_compliance_notes"`
	LegalDisclaimer      string              `json:"legal_disclaimer"`
}

// ChangeType enum for contract update requests
type ChangeType string

const (
	ChangeSuggestedClause ChangeType = "suggested_clause"
	ChangeImprovedClause  ChangeType = "improved_clause"
)

// ChangeData carries the payload of a single requested contract change.
// Which fields are set depends on the change type.
type ChangeData struct {
	Title          string `json:"title,omitempty"`
	Category       string `json:"category,omitempty"`
	Description    string `json:"description,omitempty"`
	ClauseText     string `json:"clause_text,omitempty"`
	OriginalClause string `json:"original_clause,omitempty"`
	ImprovedClause string `json:"improved_clause,omitempty"`
}

type ContractChange struct {
	Type  ChangeType `json:"type"`
	Label string     `json:"label"`
	Data  ChangeData `json:"data"`
}

// RetentionPeriod is how long soft-deleted records stay recoverable.
const RetentionPeriod = 30 * 24 * time.Hour

// Record is the persisted wrapper around one analysis result.
type Record struct {
	ID               RecordID   `json:"id"`
	OwnerID          string     `json:"owner_id"`
	OwnerEmail       string     `json:"owner_email"`
	ContractText     string     `json:"contract_text"`
	Result           Result     `json:"analysis_result"`
	ContractPurpose  string     `json:"contract_purpose"`
	OverallRiskLevel RiskLevel  `json:"overall_risk_level"`
	RiskScore        int        `json:"risk_score"`
	CreatedAt        time.Time  `json:"created_at"`
	DeletedAt        *time.Time `json:"deleted_at,omitempty"`
	DaysRemaining    int        `json:"days_remaining,omitempty"`
}

// IsDeleted reports whether the record is in trash.
func (r *Record) IsDeleted() bool { return r.DeletedAt != nil }

// PurgeEligible reports whether the record may be permanently removed.
func (r *Record) PurgeEligible(now time.Time) bool {
	return r.DeletedAt != nil && now.After(r.DeletedAt.Add(RetentionPeriod))
}

// RemainingDays returns how many whole days are left before the record is
// purge eligible: max(0, ceil((deleted_at + 30d - now) / 1d)).
func (r *Record) RemainingDays(now time.Time) int {
	if r.DeletedAt == nil {
		return 0
	}
	left := r.DeletedAt.Add(RetentionPeriod).Sub(now)
	if left <= 0 {
		return 0
	}
	return int(math.Ceil(left.Hours() / 24))
}

// AdminRecord is the sanitized projection returned by the admin listing.
// Full contract text and analysis details are never exposed on this path.
type AdminRecord struct {
	ID               RecordID   `json:"id"`
	UserEmail        string     `json:"user_email"`
	ContractPurpose  string     `json:"contract_purpose"`
	OverallRiskLevel RiskLevel  `json:"overall_risk_level"`
	RiskScore        int        `json:"risk_score"`
	CreatedAt        time.Time  `json:"created_at"`
	DeletedAt        *time.Time `json:"deleted_at,omitempty"`
	EncryptedDetails string     `json:"encrypted_details"`
}

// EncryptedDetailsPlaceholder is returned in place of analysis details on
// the admin listing path.
const EncryptedDetailsPlaceholder = "[encrypted]"
