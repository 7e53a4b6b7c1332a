package dashboard

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ManuelReschke/ObservationDesk/app/models"
	"github.com/ManuelReschke/ObservationDesk/app/repository"
	"github.com/ManuelReschke/ObservationDesk/internal/pkg/utils"
)

const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// Clock supplies the current time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now returns f().
func (f ClockFunc) Now() time.Time { return f() }

// SystemClock reads the wall clock.
var SystemClock Clock = ClockFunc(time.Now)

// Config tunes the dashboard queries.
type Config struct {
	// CreatedAtFallback lets records without a date field count towards today by
	// their createdAt timestamp.
	CreatedAtFallback bool
}

// Service computes the dashboard summaries. It holds no state between calls.
type Service struct {
	repo  repository.ObservationRepository
	clock Clock
	cfg   Config
}

// NewService creates a dashboard service on top of the observation repository
func NewService(repo repository.ObservationRepository, clock Clock, cfg Config) *Service {
	if clock == nil {
		clock = SystemClock
	}
	return &Service{repo: repo, clock: clock, cfg: cfg}
}

// FormsByDate answers the forms-by-date endpoint for any query mode. The result is
// a *models.DateDetail, []models.DailySummary or []models.DailyCount.
func (s *Service) FormsByDate(ctx context.Context, q Query) (interface{}, error) {
	switch q := q.(type) {
	case SingleDate:
		return s.SingleDate(ctx, q)
	case Range:
		return s.DateRange(ctx, q.Filter)
	case Default, nil:
		return s.RecentDays(ctx)
	default:
		return nil, fmt.Errorf("unsupported query %T", q)
	}
}

type dayStats struct {
	Count           int        `bson:"count"`
	FirstSubmission *time.Time `bson:"firstSubmission"`
	LastSubmission  *time.Time `bson:"lastSubmission"`
}

// SingleDate lists the newest records of one day together with the day's totals.
// Both reads run concurrently.
func (s *Service) SingleDate(ctx context.Context, q SingleDate) (*models.DateDetail, error) {
	filter := DayFilter(q.Day)

	var (
		forms []models.Observation
		stats []dayStats
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		forms, err = s.repo.FindNewest(gctx, filter, MaxFormsPerDate)
		return err
	})
	g.Go(func() error {
		return s.repo.Aggregate(gctx, DayStatsPipeline(filter), &stats)
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("%w: forms for %s: %w", ErrBackend, q.Raw, err)
	}

	detail := &models.DateDetail{
		Date:  q.Raw,
		Forms: make([]models.FormSummary, 0, len(forms)),
	}
	if len(stats) > 0 && stats[0].Count > 0 {
		detail.Count = stats[0].Count
		detail.FirstSubmission = stats[0].FirstSubmission
		detail.LastSubmission = stats[0].LastSubmission
	}
	for i := range forms {
		if len(detail.Forms) == MaxFormsPerDate {
			break
		}
		detail.Forms = append(detail.Forms, models.FormSummary{
			ID:        forms[i].ID.Hex(),
			UserName:  forms[i].DisplayName(),
			CreatedAt: forms[i].CreatedAt,
		})
	}
	return detail, nil
}

// DateRange returns per-day counts with first and last submission for the filter.
func (s *Service) DateRange(ctx context.Context, f DateFilter) ([]models.DailySummary, error) {
	rows := make([]models.DailySummary, 0)
	if err := s.repo.Aggregate(ctx, DailyBreakdownPipeline(f.Match()), &rows); err != nil {
		return nil, fmt.Errorf("%w: daily breakdown: %w", ErrBackend, err)
	}

	// Records without a date group under a null key; they have no calendar day.
	out := rows[:0]
	for _, row := range rows {
		if row.Date != "" {
			out = append(out, row)
		}
	}
	return out, nil
}

// RecentDays returns per-day counts for the last RecentWindowDays days.
func (s *Service) RecentDays(ctx context.Context) ([]models.DailyCount, error) {
	rows := make([]models.DailyCount, 0)
	if err := s.repo.Aggregate(ctx, DailyCountPipeline(RecentFilter(s.clock.Now())), &rows); err != nil {
		return nil, fmt.Errorf("%w: recent days: %w", ErrBackend, err)
	}
	return rows, nil
}

// TotalForms counts the records matching the filter.
func (s *Service) TotalForms(ctx context.Context, f DateFilter) (*models.TotalForms, error) {
	count, err := s.repo.Count(ctx, f.Match())
	if err != nil {
		return nil, fmt.Errorf("%w: total forms: %w", ErrBackend, err)
	}

	total := &models.TotalForms{TotalForms: count}
	if f.Applied() {
		total.DateRange = &models.DateRange{StartDate: f.StartDate, EndDate: f.EndDate}
	}
	return total, nil
}

// Today returns the number of records observed today (UTC) and their hourly spread.
// todayForms is the sum of the hourly buckets so both always agree.
func (s *Service) Today(ctx context.Context) (*models.TodaySummary, error) {
	start := utils.StartOfDayUTC(s.clock.Now())

	rows := make([]hourRow, 0, HoursPerDay)
	if err := s.repo.Aggregate(ctx, HourlyPipeline(TodayFilter(start, s.cfg.CreatedAtFallback)), &rows); err != nil {
		return nil, fmt.Errorf("%w: today's forms: %w", ErrBackend, err)
	}

	hours, total := fillHours(rows)
	return &models.TodaySummary{
		Success:    true,
		Date:       start.Format(isoMillis),
		TodayForms: total,
		HourlyData: hours,
	}, nil
}
