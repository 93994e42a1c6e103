package analysis

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/vericlause/vericlause-ai/internal/apperrors"
	"github.com/vericlause/vericlause-ai/internal/application"
	domai "github.com/vericlause/vericlause-ai/internal/domain/ai"
	"github.com/vericlause/vericlause-ai/internal/domain/analysis"
	"github.com/vericlause/vericlause-ai/internal/infra/ai/prompt"
)

const (
	// MinContractChars is the minimum trimmed input length; shorter input
	// is rejected before any gateway call.
	MinContractChars = 50

	// MaxContractChars is the hard ceiling forwarded to the model. Longer
	// input is silently prefix-truncated, not rejected.
	MaxContractChars = 15000
)

// Owner identifies the authenticated principal a record belongs to.
type Owner struct {
	ID    string
	Email string
}

// Service orchestrates contract analysis, contract updates and the
// persisted record lifecycle.
type Service struct {
	Gateway domai.Gateway
	Repo    analysis.Repository
	Archive analysis.ReportArchive // optional; Export fails without it
	Clock   application.Clock
	Logger  *zap.Logger
}

// Truncate takes the byte-for-byte prefix of text capped at max.
func Truncate(text string, max int) string {
	if len(text) > max {
		return text[:max]
	}
	return text
}

// Analyze validates the contract text, forwards it to the gateway and
// post-processes the structured result. No partial result is returned on
// any failure path.
func (s *Service) Analyze(ctx context.Context, contractText string) (*analysis.Result, error) {
	if len(strings.TrimSpace(contractText)) < MinContractChars {
		return nil, apperrors.NewValidation("Contract text must be at least 50 characters.")
	}

	result, err := s.Gateway.AnalyzeContract(ctx, Truncate(contractText, MaxContractChars))
	if err != nil {
		return nil, err
	}

	// The disclaimer is never model-generated; overwrite whatever came back.
	result.LegalDisclaimer = prompt.LegalDisclaimer
	if result.OverallRiskLevel == "" {
		result.OverallRiskLevel = analysis.DeriveRiskLevel(result.RiskScore)
	}

	s.Logger.Info("contract analyzed",
		zap.Int("risk_score", result.RiskScore),
		zap.String("risk_level", string(result.OverallRiskLevel)),
		zap.Int("red_flags", len(result.RedFlags)))
	return result, nil
}

// GenerateUpdate applies an ordered list of changes to the contract via a
// free-text completion and returns the rewritten contract.
func (s *Service) GenerateUpdate(ctx context.Context, contractText string, changes []analysis.ContractChange) (string, error) {
	if strings.TrimSpace(contractText) == "" {
		return "", apperrors.NewValidation("contract text is required")
	}
	if len(changes) == 0 {
		return "", apperrors.NewValidation("at least one change is required")
	}

	instructions := prompt.BuildUpdateInstructions(changes)
	return s.Gateway.GenerateUpdate(ctx, Truncate(contractText, MaxContractChars), instructions)
}

// Save persists a new analysis record for the owner.
func (s *Service) Save(ctx context.Context, owner Owner, contractText string, result *analysis.Result) (*analysis.Record, error) {
	if strings.TrimSpace(contractText) == "" {
		return nil, apperrors.NewValidation("contract text is required")
	}
	if result == nil {
		return nil, apperrors.NewValidation("analysis result is required")
	}

	rec := &analysis.Record{
		ID:               analysis.RecordID(uuid.NewString()),
		OwnerID:          owner.ID,
		OwnerEmail:       owner.Email,
		ContractText:     contractText,
		Result:           *result,
		ContractPurpose:  result.ContractPurpose,
		OverallRiskLevel: result.OverallRiskLevel,
		RiskScore:        result.RiskScore,
		CreatedAt:        s.Clock.Now(),
	}
	if err := s.Repo.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("save analysis record: %w", err)
	}
	return rec, nil
}

// Get returns one of the owner's records.
func (s *Service) Get(ctx context.Context, owner Owner, id analysis.RecordID) (*analysis.Record, error) {
	return s.Repo.Get(ctx, owner.ID, id)
}

// List returns the owner's active records, or trashed records (with the
// days remaining until purge) when deleted is true.
func (s *Service) List(ctx context.Context, owner Owner, deleted bool) ([]*analysis.Record, error) {
	records, err := s.Repo.List(ctx, owner.ID, deleted)
	if err != nil {
		return nil, err
	}
	if deleted {
		now := s.Clock.Now()
		for _, r := range records {
			r.DaysRemaining = r.RemainingDays(now)
		}
	}
	return records, nil
}

// SoftDelete moves one of the owner's records to trash.
func (s *Service) SoftDelete(ctx context.Context, owner Owner, id analysis.RecordID) error {
	return s.Repo.SoftDelete(ctx, owner.ID, id, s.Clock.Now())
}

// Restore clears the deletion mark. Restoring a record that is not deleted
// is a no-op.
func (s *Service) Restore(ctx context.Context, owner Owner, id analysis.RecordID) error {
	return s.Repo.Restore(ctx, owner.ID, id)
}

// PurgeExpired permanently deletes every record trashed longer than the
// retention period and returns the count purged.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	cutoff := s.Clock.Now().Add(-analysis.RetentionPeriod)
	n, err := s.Repo.PurgeExpired(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.Logger.Info("purged expired records", zap.Int64("purged", n))
	}
	return n, nil
}

// AdminList returns the sanitized projection across all owners.
func (s *Service) AdminList(ctx context.Context) ([]*analysis.AdminRecord, error) {
	records, err := s.Repo.AdminList(ctx)
	if err != nil {
		return nil, err
	}
	for _, r := range records {
		r.EncryptedDetails = analysis.EncryptedDetailsPlaceholder
	}
	return records, nil
}

// Export uploads the full analysis JSON to the report archive and returns
// the object URL.
func (s *Service) Export(ctx context.Context, owner Owner, id analysis.RecordID) (string, error) {
	if s.Archive == nil {
		return "", errors.New("report archive is not configured")
	}
	rec, err := s.Repo.Get(ctx, owner.ID, id)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal record: %w", err)
	}
	key := fmt.Sprintf("reports/%s/%s.json", owner.ID, rec.ID)
	return s.Archive.PutReport(ctx, key, data)
}

// IsNotFound reports whether err means the record does not exist (or is
// not visible to the owner).
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
