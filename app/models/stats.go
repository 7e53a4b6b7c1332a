package models

import "time"

// DailySummary is one calendar-date bucket of a date range breakdown.
type DailySummary struct {
	Date            string     `bson:"date" json:"date"`
	Count           int        `bson:"count" json:"count"`
	FirstSubmission *time.Time `bson:"firstSubmission,omitempty" json:"firstSubmission,omitempty"`
	LastSubmission  *time.Time `bson:"lastSubmission,omitempty" json:"lastSubmission,omitempty"`
}

// DailyCount is a bucket of the default "last 30 days" breakdown.
type DailyCount struct {
	Date  string `bson:"date" json:"date"`
	Count int    `bson:"count" json:"count"`
}

// HourlySummary holds the number of submissions in one hour of the day.
type HourlySummary struct {
	Hour  int `bson:"hour" json:"hour"`
	Count int `bson:"count" json:"count"`
}

// FormSummary is the reduced view of a record listed for a single date.
type FormSummary struct {
	ID        string    `json:"id"`
	UserName  string    `json:"userName"`
	CreatedAt time.Time `json:"createdAt"`
}

// DateDetail is the response for a single calendar date.
type DateDetail struct {
	Date            string        `json:"date"`
	Count           int           `json:"count"`
	FirstSubmission *time.Time    `json:"firstSubmission"`
	LastSubmission  *time.Time    `json:"lastSubmission"`
	Forms           []FormSummary `json:"forms"`
}

// DateRange echoes the raw bounds a total was filtered by.
type DateRange struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// TotalForms is the response of the total count endpoint.
type TotalForms struct {
	TotalForms int64      `json:"totalForms"`
	DateRange  *DateRange `json:"dateRange,omitempty"`
}

// TodaySummary is the response of the today endpoint with its hourly breakdown.
type TodaySummary struct {
	Success    bool            `json:"success"`
	Date       string          `json:"date"`
	TodayForms int             `json:"todayForms"`
	HourlyData []HourlySummary `json:"hourlyData"`
}
