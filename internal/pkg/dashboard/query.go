package dashboard

import (
	"errors"
	"time"

	"github.com/ManuelReschke/ObservationDesk/internal/pkg/utils"
)

var (
	// ErrInvalidDate is returned for a malformed single-date parameter.
	ErrInvalidDate = errors.New("invalid date format. Use YYYY-MM-DD")
	// ErrBackend marks failures of the underlying data store.
	ErrBackend = errors.New("observation store failure")
)

// Query is the forms-by-date mode selected from the request parameters.
// It is one of SingleDate, Range or Default.
type Query interface {
	isQuery()
}

// SingleDate asks for the detail of one calendar day.
type SingleDate struct {
	Raw string
	Day time.Time
}

// Range asks for a per-day breakdown over an optional interval.
type Range struct {
	Filter DateFilter
}

// Default asks for the per-day counts of the recent window.
type Default struct{}

func (SingleDate) isQuery() {}
func (Range) isQuery()      {}
func (Default) isQuery()    {}

// DateFilter is an optional [GTE, LTE] interval over observation dates. Bounds that
// fail validation are dropped, so a filter with two bad bounds matches everything.
type DateFilter struct {
	StartDate string
	EndDate   string
	GTE       *time.Time
	LTE       *time.Time
}

// NewDateFilter builds a filter from raw query strings.
func NewDateFilter(startDate, endDate string) DateFilter {
	f := DateFilter{StartDate: startDate, EndDate: endDate}
	if t, ok := utils.ParseDate(startDate); ok {
		f.GTE = &t
	}
	if t, ok := utils.ParseDate(endDate); ok {
		f.LTE = &t
	}
	return f
}

// Applied reports whether at least one bound survived validation.
func (f DateFilter) Applied() bool {
	return f.GTE != nil || f.LTE != nil
}

// ParseQuery selects the query mode. date takes precedence over the range bounds and
// is the only parameter that is rejected when invalid.
func ParseQuery(date, startDate, endDate string) (Query, error) {
	if date != "" {
		day, ok := utils.ParseDate(date)
		if !ok {
			return nil, ErrInvalidDate
		}
		return SingleDate{Raw: date, Day: day}, nil
	}
	if startDate != "" || endDate != "" {
		return Range{Filter: NewDateFilter(startDate, endDate)}, nil
	}
	return Default{}, nil
}
