package analysis

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDeriveRiskLevel(t *testing.T) {
	cases := []struct {
		score int
		want  RiskLevel
	}{
		{0, RiskLow},
		{39, RiskLow},
		{40, RiskMedium},
		{69, RiskMedium},
		{70, RiskHigh},
		{100, RiskHigh},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, DeriveRiskLevel(tc.score), "score=%d", tc.score)
	}
}

func TestRecordRemainingDays(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("not deleted", func(t *testing.T) {
		r := &Record{}
		assert.Equal(t, 0, r.RemainingDays(now))
		assert.False(t, r.IsDeleted())
	})

	t.Run("just deleted", func(t *testing.T) {
		deleted := now
		r := &Record{DeletedAt: &deleted}
		assert.Equal(t, 30, r.RemainingDays(now))
	})

	t.Run("partial day rounds up", func(t *testing.T) {
		deleted := now.Add(-29*24*time.Hour - time.Hour)
		r := &Record{DeletedAt: &deleted}
		assert.Equal(t, 1, r.RemainingDays(now))
	})

	t.Run("expired clamps to zero", func(t *testing.T) {
		deleted := now.Add(-45 * 24 * time.Hour)
		r := &Record{DeletedAt: &deleted}
		assert.Equal(t, 0, r.RemainingDays(now))
	})
}

func TestRecordPurgeEligible(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("active record never eligible", func(t *testing.T) {
		r := &Record{}
		assert.False(t, r.PurgeEligible(now))
	})

	t.Run("29 days in trash", func(t *testing.T) {
		deleted := now.Add(-29 * 24 * time.Hour)
		r := &Record{DeletedAt: &deleted}
		assert.False(t, r.PurgeEligible(now))
	})

	t.Run("just past 30 days", func(t *testing.T) {
		deleted := now.Add(-30*24*time.Hour - time.Second)
		r := &Record{DeletedAt: &deleted}
		assert.True(t, r.PurgeEligible(now))
	})

	t.Run("exactly 30 days", func(t *testing.T) {
		deleted := now.Add(-30 * 24 * time.Hour)
		r := &Record{DeletedAt: &deleted}
		assert.False(t, r.PurgeEligible(now))
	})
}
