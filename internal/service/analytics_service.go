package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"

	"github.com/iyoadidey/mother-julie/internal/repository"
)

var analyticsLogger = zerolog.New(os.Stdout).With().Timestamp().Logger()

var ErrUnknownPeriod = errors.New("unknown report period")

// Periods in the order they appear on the dashboard.
var Periods = []string{"daily", "weekly", "monthly", "yearly"}

type PeriodReport struct {
	Period      string  `json:"period"`
	Sales       float64 `json:"sales"`
	Units       int     `json:"units"`
	SalesChange float64 `json:"sales_change"`
	UnitsChange float64 `json:"units_change"`
	WindowStart string  `json:"window_start"`
	WindowEnd   string  `json:"window_end"`
}

type AnalyticsReport struct {
	TotalSales  float64        `json:"total_sales"`
	TotalUnits  int            `json:"total_units"`
	SalesChange float64        `json:"sales_change"`
	UnitsChange float64        `json:"units_change"`
	Periods     []PeriodReport `json:"periods"`
}

type AnalyticsService struct {
	orderRepo repository.OrderRepository
	rdb       *redis.Client
	now       func() time.Time
}

func NewAnalyticsService(orderRepo repository.OrderRepository, rdb *redis.Client) *AnalyticsService {
	return &AnalyticsService{orderRepo: orderRepo, rdb: rdb, now: time.Now}
}

// CalculatePercentageChange returns the percent change from previous to
// current. A previous of zero yields 100 when anything was sold and 0
// otherwise, so the dashboard never divides by zero.
func CalculatePercentageChange(current, previous float64) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return ((current - previous) / previous) * 100
}

// WindowStart computes the lower bound of a reporting window relative to now.
// Daily means the current calendar day; the rest are fixed look-backs.
func WindowStart(period string, now time.Time) (time.Time, error) {
	switch period {
	case "daily":
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location()), nil
	case "weekly":
		return now.AddDate(0, 0, -7), nil
	case "monthly":
		return now.AddDate(0, 0, -30), nil
	case "yearly":
		return now.AddDate(0, 0, -365), nil
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrUnknownPeriod, period)
}

// Report aggregates sales and unit totals per window and derives the percent
// change versus the previously computed snapshot for each window.
func (s *AnalyticsService) Report(ctx context.Context) (*AnalyticsReport, error) {
	now := s.now().UTC()
	report := &AnalyticsReport{}

	for _, period := range Periods {
		pr, err := s.PeriodReport(ctx, period, now)
		if err != nil {
			return nil, err
		}
		report.Periods = append(report.Periods, *pr)
	}

	// All-time totals use the widest window as the upper bound of history is
	// unbounded anyway.
	sales, units, err := s.orderRepo.SalesBetween(ctx, time.Time{}, now.Add(time.Second))
	if err != nil {
		analyticsLogger.Error().Err(err).Msg("Error aggregating total sales")
		return nil, err
	}
	report.TotalSales = sales
	report.TotalUnits = units

	prevSales, prevUnits := s.loadSnapshot(ctx, "total")
	report.SalesChange = CalculatePercentageChange(sales, prevSales)
	report.UnitsChange = CalculatePercentageChange(float64(units), prevUnits)
	s.storeSnapshot(ctx, "total", sales, units)

	return report, nil
}

// PeriodReport aggregates one reporting window.
func (s *AnalyticsService) PeriodReport(ctx context.Context, period string, now time.Time) (*PeriodReport, error) {
	from, err := WindowStart(period, now)
	if err != nil {
		return nil, err
	}
	to := now.Add(time.Second)

	sales, units, err := s.orderRepo.SalesBetween(ctx, from, to)
	if err != nil {
		analyticsLogger.Error().Err(err).Msgf("Error aggregating %s sales", period)
		return nil, err
	}

	prevSales, prevUnits := s.loadSnapshot(ctx, period)
	pr := &PeriodReport{
		Period:      period,
		Sales:       sales,
		Units:       units,
		SalesChange: CalculatePercentageChange(sales, prevSales),
		UnitsChange: CalculatePercentageChange(float64(units), prevUnits),
		WindowStart: from.Format(time.RFC3339),
		WindowEnd:   now.Format(time.RFC3339),
	}
	s.storeSnapshot(ctx, period, sales, units)

	return pr, nil
}

type snapshot struct {
	Sales float64 `json:"sales"`
	Units int     `json:"units"`
}

func snapshotKey(period string) string {
	return fmt.Sprintf("analytics:snapshot:%s", period)
}

func (s *AnalyticsService) loadSnapshot(ctx context.Context, period string) (float64, float64) {
	if os.Getenv("ENV") == "test" {
		return 0, 0
	}
	raw, err := s.rdb.Get(ctx, snapshotKey(period)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			analyticsLogger.Error().Err(err).Msgf("Error loading %s snapshot", period)
		}
		return 0, 0
	}
	var snap snapshot
	if err := json.Unmarshal([]byte(raw), &snap); err != nil {
		return 0, 0
	}
	return snap.Sales, float64(snap.Units)
}

func (s *AnalyticsService) storeSnapshot(ctx context.Context, period string, sales float64, units int) {
	if os.Getenv("ENV") == "test" {
		return
	}
	raw, err := json.Marshal(snapshot{Sales: sales, Units: units})
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, snapshotKey(period), raw, 0).Err(); err != nil {
		analyticsLogger.Error().Err(err).Msgf("Error storing %s snapshot", period)
	}
}
