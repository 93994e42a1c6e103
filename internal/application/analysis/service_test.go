package analysis

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/vericlause/vericlause-ai/internal/apperrors"
	"github.com/vericlause/vericlause-ai/internal/domain/analysis"
	"github.com/vericlause/vericlause-ai/internal/domain/chat"
	"github.com/vericlause/vericlause-ai/internal/infra/ai/prompt"

	domai "github.com/vericlause/vericlause-ai/internal/domain/ai"
)

type fakeGateway struct {
	analyzed   string // contract text forwarded to AnalyzeContract
	calls      int
	result     *analysis.Result
	err        error
	updateText string
}

func (g *fakeGateway) AnalyzeContract(_ context.Context, contractText string) (*analysis.Result, error) {
	g.calls++
	g.analyzed = contractText
	if g.err != nil {
		return nil, g.err
	}
	if g.result != nil {
		out := *g.result
		return &out, nil
	}
	return &analysis.Result{}, nil
}

func (g *fakeGateway) GenerateUpdate(_ context.Context, contractText, instructions string) (string, error) {
	g.calls++
	g.analyzed = contractText
	if g.err != nil {
		return "", g.err
	}
	return g.updateText, nil
}

func (g *fakeGateway) StreamChat(context.Context, string, []chat.Message) (domai.ChatStream, error) {
	return nil, nil
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

// memRepo is an in-memory Repository used to exercise the record lifecycle.
type memRepo struct {
	records map[analysis.RecordID]*analysis.Record
}

func newMemRepo() *memRepo {
	return &memRepo{records: map[analysis.RecordID]*analysis.Record{}}
}

func (m *memRepo) Save(_ context.Context, r *analysis.Record) error {
	cp := *r
	m.records[r.ID] = &cp
	return nil
}

func (m *memRepo) Get(_ context.Context, owner string, id analysis.RecordID) (*analysis.Record, error) {
	r, ok := m.records[id]
	if !ok || r.OwnerID != owner {
		return nil, sql.ErrNoRows
	}
	cp := *r
	return &cp, nil
}

func (m *memRepo) List(_ context.Context, owner string, deleted bool) ([]*analysis.Record, error) {
	var out []*analysis.Record
	for _, r := range m.records {
		if r.OwnerID == owner && r.IsDeleted() == deleted {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memRepo) SoftDelete(_ context.Context, owner string, id analysis.RecordID, at time.Time) error {
	r, ok := m.records[id]
	if !ok || r.OwnerID != owner || r.IsDeleted() {
		return sql.ErrNoRows
	}
	r.DeletedAt = &at
	return nil
}

func (m *memRepo) Restore(_ context.Context, owner string, id analysis.RecordID) error {
	r, ok := m.records[id]
	if !ok || r.OwnerID != owner {
		return sql.ErrNoRows
	}
	r.DeletedAt = nil
	return nil
}

func (m *memRepo) PurgeExpired(_ context.Context, cutoff time.Time) (int64, error) {
	var n int64
	for id, r := range m.records {
		if r.DeletedAt != nil && r.DeletedAt.Before(cutoff) {
			delete(m.records, id)
			n++
		}
	}
	return n, nil
}

func (m *memRepo) AdminList(_ context.Context) ([]*analysis.AdminRecord, error) {
	var out []*analysis.AdminRecord
	for _, r := range m.records {
		out = append(out, &analysis.AdminRecord{
			ID:               r.ID,
			UserEmail:        r.OwnerEmail,
			ContractPurpose:  r.ContractPurpose,
			OverallRiskLevel: r.OverallRiskLevel,
			RiskScore:        r.RiskScore,
			CreatedAt:        r.CreatedAt,
			DeletedAt:        r.DeletedAt,
		})
	}
	return out, nil
}

func newService(gw *fakeGateway, repo *memRepo, clock *fakeClock) *Service {
	return &Service{
		Gateway: gw,
		Repo:    repo,
		Clock:   clock,
		Logger:  zap.NewNop(),
	}
}

var validContract = strings.Repeat("The party of the first part agrees. ", 10)

func TestAnalyzeRejectsShortInput(t *testing.T) {
	gw := &fakeGateway{}
	svc := newService(gw, newMemRepo(), &fakeClock{})

	for _, input := range []string{"", "too short", strings.Repeat(" ", 100) + "abc"} {
		_, err := svc.Analyze(context.Background(), input)
		require.Error(t, err)
		assert.True(t, apperrors.IsValidation(err))
		assert.Equal(t, "Contract text must be at least 50 characters.", err.Error())
	}
	// Validation failures never reach the gateway.
	assert.Zero(t, gw.calls)
}

func TestAnalyzeTruncatesLongInput(t *testing.T) {
	gw := &fakeGateway{result: &analysis.Result{RiskScore: 10}}
	svc := newService(gw, newMemRepo(), &fakeClock{})

	long := strings.Repeat("a", 20000)
	_, err := svc.Analyze(context.Background(), long)
	require.NoError(t, err)
	assert.Len(t, gw.analyzed, MaxContractChars)
	assert.Equal(t, long[:MaxContractChars], gw.analyzed)
}

func TestAnalyzeOverwritesDisclaimer(t *testing.T) {
	gw := &fakeGateway{result: &analysis.Result{
		RiskScore:       80,
		LegalDisclaimer: "model-invented disclaimer",
	}}
	svc := newService(gw, newMemRepo(), &fakeClock{})

	result, err := svc.Analyze(context.Background(), validContract)
	require.NoError(t, err)
	assert.Equal(t, prompt.LegalDisclaimer, result.LegalDisclaimer)
}

func TestAnalyzeDerivesRiskLevelWhenMissing(t *testing.T) {
	cases := []struct {
		score int
		want  analysis.RiskLevel
	}{
		{85, analysis.RiskHigh},
		{50, analysis.RiskMedium},
		{10, analysis.RiskLow},
	}
	for _, tc := range cases {
		gw := &fakeGateway{result: &analysis.Result{RiskScore: tc.score}}
		svc := newService(gw, newMemRepo(), &fakeClock{})

		result, err := svc.Analyze(context.Background(), validContract)
		require.NoError(t, err)
		assert.Equal(t, tc.want, result.OverallRiskLevel)
	}
}

func TestAnalyzeKeepsModelProvidedRiskLevel(t *testing.T) {
	gw := &fakeGateway{result: &analysis.Result{
		RiskScore:        10,
		OverallRiskLevel: analysis.RiskHigh,
	}}
	svc := newService(gw, newMemRepo(), &fakeClock{})

	result, err := svc.Analyze(context.Background(), validContract)
	require.NoError(t, err)
	assert.Equal(t, analysis.RiskHigh, result.OverallRiskLevel)
}

func TestAnalyzePropagatesGatewayErrors(t *testing.T) {
	gw := &fakeGateway{err: domai.ErrRateLimited}
	svc := newService(gw, newMemRepo(), &fakeClock{})

	_, err := svc.Analyze(context.Background(), validContract)
	assert.ErrorIs(t, err, domai.ErrRateLimited)
}

func TestGenerateUpdateValidation(t *testing.T) {
	gw := &fakeGateway{}
	svc := newService(gw, newMemRepo(), &fakeClock{})
	change := analysis.ContractChange{Type: analysis.ChangeSuggestedClause, Label: "x"}

	_, err := svc.GenerateUpdate(context.Background(), "  ", []analysis.ContractChange{change})
	assert.True(t, apperrors.IsValidation(err))

	_, err = svc.GenerateUpdate(context.Background(), validContract, nil)
	assert.True(t, apperrors.IsValidation(err))

	assert.Zero(t, gw.calls)
}

func TestRecordLifecycle(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: now}
	repo := newMemRepo()
	svc := newService(&fakeGateway{}, repo, clock)
	owner := Owner{ID: "user-1", Email: "user@example.com"}

	rec, err := svc.Save(context.Background(), owner, validContract, &analysis.Result{
		RiskScore:        55,
		OverallRiskLevel: analysis.RiskMedium,
		ContractPurpose:  "Service agreement",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, 55, rec.RiskScore)
	assert.Equal(t, "Service agreement", rec.ContractPurpose)

	// Visible in the active list, absent from trash.
	active, err := svc.List(context.Background(), owner, false)
	require.NoError(t, err)
	require.Len(t, active, 1)
	trash, err := svc.List(context.Background(), owner, true)
	require.NoError(t, err)
	assert.Empty(t, trash)

	// Soft delete moves it to trash with days remaining populated.
	require.NoError(t, svc.SoftDelete(context.Background(), owner, rec.ID))
	trash, err = svc.List(context.Background(), owner, true)
	require.NoError(t, err)
	require.Len(t, trash, 1)
	assert.Equal(t, 30, trash[0].DaysRemaining)

	_, err = svc.Get(context.Background(), owner, rec.ID)
	require.NoError(t, err)

	// Restore clears the deletion mark.
	require.NoError(t, svc.Restore(context.Background(), owner, rec.ID))
	got, err := svc.Get(context.Background(), owner, rec.ID)
	require.NoError(t, err)
	assert.Nil(t, got.DeletedAt)

	// Restoring an already-active record is a no-op, not an error.
	require.NoError(t, svc.Restore(context.Background(), owner, rec.ID))
}

func TestOwnerScoping(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	repo := newMemRepo()
	svc := newService(&fakeGateway{}, repo, clock)
	alice := Owner{ID: "alice"}
	mallory := Owner{ID: "mallory"}

	rec, err := svc.Save(context.Background(), alice, validContract, &analysis.Result{})
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), mallory, rec.ID)
	assert.True(t, IsNotFound(err))
	assert.True(t, IsNotFound(svc.SoftDelete(context.Background(), mallory, rec.ID)))
	assert.True(t, IsNotFound(svc.Restore(context.Background(), mallory, rec.ID)))
}

func TestPurgeExpired(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: now}
	repo := newMemRepo()
	svc := newService(&fakeGateway{}, repo, clock)
	owner := Owner{ID: "user-1"}

	old, err := svc.Save(context.Background(), owner, validContract, &analysis.Result{})
	require.NoError(t, err)
	recent, err := svc.Save(context.Background(), owner, validContract, &analysis.Result{})
	require.NoError(t, err)

	// One record trashed 31 days ago, one trashed yesterday.
	clock.now = now.Add(-31 * 24 * time.Hour)
	require.NoError(t, svc.SoftDelete(context.Background(), owner, old.ID))
	clock.now = now.Add(-24 * time.Hour)
	require.NoError(t, svc.SoftDelete(context.Background(), owner, recent.ID))
	clock.now = now

	n, err := svc.PurgeExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = svc.Get(context.Background(), owner, old.ID)
	assert.True(t, IsNotFound(err))
	_, err = svc.Get(context.Background(), owner, recent.ID)
	assert.NoError(t, err)
}

func TestAdminListSanitizesDetails(t *testing.T) {
	repo := newMemRepo()
	svc := newService(&fakeGateway{}, repo, &fakeClock{now: time.Now()})

	_, err := svc.Save(context.Background(), Owner{ID: "u", Email: "u@example.com"}, validContract, &analysis.Result{})
	require.NoError(t, err)

	records, err := svc.AdminList(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, analysis.EncryptedDetailsPlaceholder, records[0].EncryptedDetails)
	assert.Equal(t, "u@example.com", records[0].UserEmail)
}

type fakeArchive struct {
	key  string
	data []byte
}

func (a *fakeArchive) PutReport(_ context.Context, key string, data []byte) (string, error) {
	a.key, a.data = key, data
	return "https://archive.example.com/" + key, nil
}

func TestExport(t *testing.T) {
	repo := newMemRepo()
	archive := &fakeArchive{}
	svc := newService(&fakeGateway{}, repo, &fakeClock{now: time.Now()})
	svc.Archive = archive
	owner := Owner{ID: "user-1"}

	rec, err := svc.Save(context.Background(), owner, validContract, &analysis.Result{RiskScore: 42})
	require.NoError(t, err)

	url, err := svc.Export(context.Background(), owner, rec.ID)
	require.NoError(t, err)
	assert.Contains(t, url, string(rec.ID))
	assert.Equal(t, "reports/user-1/"+string(rec.ID)+".json", archive.key)
	assert.Contains(t, string(archive.data), `"risk_score": 42`)
}

func TestExportWithoutArchive(t *testing.T) {
	svc := newService(&fakeGateway{}, newMemRepo(), &fakeClock{now: time.Now()})
	_, err := svc.Export(context.Background(), Owner{ID: "u"}, "some-id")
	assert.Error(t, err)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "abcde", Truncate("abcdefgh", 5))
	assert.Equal(t, "", Truncate("", 5))
}
