package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCalculatePercentageChange(t *testing.T) {
	assert.Equal(t, 0.0, CalculatePercentageChange(0, 0))
	assert.Equal(t, 100.0, CalculatePercentageChange(5, 0))
	assert.Equal(t, 50.0, CalculatePercentageChange(150, 100))
	assert.Equal(t, -50.0, CalculatePercentageChange(50, 100))
}

func TestWindowStart(t *testing.T) {
	now := time.Date(2025, 3, 15, 14, 30, 0, 0, time.UTC)

	daily, err := WindowStart("daily", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC), daily)

	weekly, err := WindowStart("weekly", now)
	require.NoError(t, err)
	assert.Equal(t, now.AddDate(0, 0, -7), weekly)

	monthly, err := WindowStart("monthly", now)
	require.NoError(t, err)
	assert.Equal(t, now.AddDate(0, 0, -30), monthly)

	yearly, err := WindowStart("yearly", now)
	require.NoError(t, err)
	assert.Equal(t, now.AddDate(0, 0, -365), yearly)

	_, err = WindowStart("quarterly", now)
	assert.ErrorIs(t, err, ErrUnknownPeriod)
}

func TestReport_AggregatesAllPeriods(t *testing.T) {
	t.Setenv("ENV", "test")
	now := time.Date(2025, 3, 15, 14, 30, 0, 0, time.UTC)

	repo := newStubOrderRepo()
	repo.salesFn = func(from, to time.Time) (float64, int, error) {
		// Wider windows report more sales, the all-time query widest of all.
		switch {
		case from.IsZero():
			return 5000, 50, nil
		case now.Sub(from) <= 24*time.Hour:
			return 500, 5, nil
		default:
			return 2000, 20, nil
		}
	}

	svc := NewAnalyticsService(repo, nil)
	svc.now = func() time.Time { return now }

	report, err := svc.Report(context.Background())
	require.NoError(t, err)

	require.Len(t, report.Periods, 4)
	assert.Equal(t, "daily", report.Periods[0].Period)
	assert.Equal(t, 500.0, report.Periods[0].Sales)
	assert.Equal(t, 5, report.Periods[0].Units)
	assert.Equal(t, "yearly", report.Periods[3].Period)
	assert.Equal(t, 2000.0, report.Periods[3].Sales)

	assert.Equal(t, 5000.0, report.TotalSales)
	assert.Equal(t, 50, report.TotalUnits)
	// No prior snapshot, nonzero sales read as a 100% jump.
	assert.Equal(t, 100.0, report.SalesChange)
}

func TestPeriodReport_NoSales(t *testing.T) {
	t.Setenv("ENV", "test")
	now := time.Date(2025, 3, 15, 14, 30, 0, 0, time.UTC)
	svc := NewAnalyticsService(newStubOrderRepo(), nil)

	pr, err := svc.PeriodReport(context.Background(), "weekly", now)
	require.NoError(t, err)

	assert.Equal(t, 0.0, pr.Sales)
	assert.Equal(t, 0, pr.Units)
	assert.Equal(t, 0.0, pr.SalesChange)
}
