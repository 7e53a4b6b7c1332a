package dashboard

import (
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/ManuelReschke/ObservationDesk/app/models"
)

const (
	// MaxFormsPerDate caps the records listed for a single date.
	MaxFormsPerDate = 50
	// RecentWindowDays is the look-back of the default breakdown.
	RecentWindowDays = 30
	// HoursPerDay is the length of every hourly breakdown.
	HoursPerDay = 24

	dayKeyFormat = "%Y-%m-%d"
)

// dayWindow matches values in [start, end).
func dayWindow(start time.Time) bson.D {
	return bson.D{
		{Key: "$gte", Value: start},
		{Key: "$lt", Value: start.AddDate(0, 0, 1)},
	}
}

// DayFilter matches records observed on the calendar day starting at day.
func DayFilter(day time.Time) bson.D {
	return bson.D{{Key: "date", Value: dayWindow(day)}}
}

// Match returns the $match document for the filter; empty when no bound applies.
func (f DateFilter) Match() bson.D {
	bounds := bson.D{}
	if f.GTE != nil {
		bounds = append(bounds, bson.E{Key: "$gte", Value: *f.GTE})
	}
	if f.LTE != nil {
		bounds = append(bounds, bson.E{Key: "$lte", Value: *f.LTE})
	}
	if len(bounds) == 0 {
		return bson.D{}
	}
	return bson.D{{Key: "date", Value: bounds}}
}

// RecentFilter matches records observed within RecentWindowDays of now.
func RecentFilter(now time.Time) bson.D {
	return bson.D{{Key: "date", Value: bson.D{{Key: "$gte", Value: now.AddDate(0, 0, -RecentWindowDays)}}}}
}

// TodayFilter matches records observed in the UTC day starting at start. With
// fallback set, records without a date field match on createdAt instead.
func TodayFilter(start time.Time, fallback bool) bson.D {
	byDate := bson.D{{Key: "date", Value: dayWindow(start)}}
	if !fallback {
		return byDate
	}
	return bson.D{{Key: "$or", Value: bson.A{
		byDate,
		bson.D{{Key: "$and", Value: bson.A{
			bson.D{{Key: "date", Value: bson.D{{Key: "$exists", Value: false}}}},
			bson.D{{Key: "createdAt", Value: dayWindow(start)}},
		}}},
	}}}
}

// submissionStats are the count and createdAt extremes shared by the day groupings.
func submissionStats(id interface{}) bson.D {
	return bson.D{
		{Key: "_id", Value: id},
		{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		{Key: "firstSubmission", Value: bson.D{{Key: "$min", Value: "$createdAt"}}},
		{Key: "lastSubmission", Value: bson.D{{Key: "$max", Value: "$createdAt"}}},
	}
}

func dayKey() bson.D {
	return bson.D{{Key: "$dateToString", Value: bson.D{
		{Key: "format", Value: dayKeyFormat},
		{Key: "date", Value: "$date"},
	}}}
}

// DayStatsPipeline reduces all matches to a single count/first/last document.
func DayStatsPipeline(filter bson.D) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$group", Value: submissionStats(nil)}},
	}
}

// DailyBreakdownPipeline groups matches per calendar date with first and last
// submission times, ascending by date.
func DailyBreakdownPipeline(filter bson.D) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$group", Value: submissionStats(dayKey())}},
		{{Key: "$project", Value: bson.D{
			{Key: "date", Value: "$_id"},
			{Key: "count", Value: 1},
			{Key: "firstSubmission", Value: 1},
			{Key: "lastSubmission", Value: 1},
			{Key: "_id", Value: 0},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "date", Value: 1}}}},
	}
}

// DailyCountPipeline groups matches per calendar date, counts only.
func DailyCountPipeline(filter bson.D) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: dayKey()},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "date", Value: "$_id"},
			{Key: "count", Value: 1},
			{Key: "_id", Value: 0},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "date", Value: 1}}}},
	}
}

// HourlyPipeline groups matches by hour of day, taken from date when present and
// from createdAt otherwise.
func HourlyPipeline(filter bson.D) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: filter}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: bson.D{{Key: "$hour", Value: bson.D{
				{Key: "$ifNull", Value: bson.A{"$date", "$createdAt"}},
			}}}},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$project", Value: bson.D{
			{Key: "hour", Value: "$_id"},
			{Key: "count", Value: 1},
			{Key: "_id", Value: 0},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "hour", Value: 1}}}},
	}
}

// hourRow is one raw bucket of HourlyPipeline.
type hourRow struct {
	Hour  *int `bson:"hour"`
	Count int  `bson:"count"`
}

// fillHours expands sparse hourly buckets to all HoursPerDay hours, ascending, and
// returns the total count. Buckets outside 0-23 are ignored.
func fillHours(rows []hourRow) ([]models.HourlySummary, int) {
	hours := make([]models.HourlySummary, HoursPerDay)
	for h := range hours {
		hours[h].Hour = h
	}

	total := 0
	for _, row := range rows {
		if row.Hour == nil || *row.Hour < 0 || *row.Hour >= HoursPerDay || row.Count < 0 {
			continue
		}
		hours[*row.Hour].Count += row.Count
		total += row.Count
	}
	return hours, total
}
