package dashboard

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func intPtr(i int) *int { return &i }

func TestDayFilterIsHalfOpen(t *testing.T) {
	day := time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, bson.D{{Key: "date", Value: bson.D{
		{Key: "$gte", Value: day},
		{Key: "$lt", Value: time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)},
	}}}, DayFilter(day))
}

func TestRecentFilterLooksBackThirtyDays(t *testing.T) {
	now := time.Date(2024, 3, 31, 15, 0, 0, 0, time.UTC)

	assert.Equal(t, bson.D{{Key: "date", Value: bson.D{
		{Key: "$gte", Value: time.Date(2024, 3, 1, 15, 0, 0, 0, time.UTC)},
	}}}, RecentFilter(now))
}

func TestTodayFilter(t *testing.T) {
	start := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	window := bson.D{
		{Key: "$gte", Value: start},
		{Key: "$lt", Value: start.AddDate(0, 0, 1)},
	}

	assert.Equal(t, bson.D{{Key: "date", Value: window}}, TodayFilter(start, false))

	withFallback := TodayFilter(start, true)
	require.Len(t, withFallback, 1)
	assert.Equal(t, "$or", withFallback[0].Key)
	assert.Equal(t, bson.A{
		bson.D{{Key: "date", Value: window}},
		bson.D{{Key: "$and", Value: bson.A{
			bson.D{{Key: "date", Value: bson.D{{Key: "$exists", Value: false}}}},
			bson.D{{Key: "createdAt", Value: window}},
		}}},
	}, withFallback[0].Value)
}

func TestDailyBreakdownPipelineStages(t *testing.T) {
	filter := NewDateFilter("2024-01-01", "").Match()
	p := DailyBreakdownPipeline(filter)

	require.Len(t, p, 4)
	assert.Equal(t, bson.D{{Key: "$match", Value: filter}}, p[0])
	assert.Equal(t, "$group", p[1][0].Key)
	group := p[1][0].Value.(bson.D)
	assert.Equal(t, bson.D{{Key: "$dateToString", Value: bson.D{
		{Key: "format", Value: "%Y-%m-%d"},
		{Key: "date", Value: "$date"},
	}}}, group[0].Value)
	assert.Equal(t, "$project", p[2][0].Key)
	assert.Equal(t, bson.D{{Key: "$sort", Value: bson.D{{Key: "date", Value: 1}}}}, p[3])
}

func TestDailyCountPipelineHasNoSubmissionTimes(t *testing.T) {
	p := DailyCountPipeline(bson.D{})
	group := p[1][0].Value.(bson.D)

	keys := make([]string, 0, len(group))
	for _, e := range group {
		keys = append(keys, e.Key)
	}
	assert.Equal(t, []string{"_id", "count"}, keys)
}

func TestDayStatsPipelineGroupsEverything(t *testing.T) {
	p := DayStatsPipeline(bson.D{})
	require.Len(t, p, 2)
	group := p[1][0].Value.(bson.D)
	assert.Equal(t, bson.E{Key: "_id", Value: nil}, group[0])
	assert.Equal(t, bson.E{Key: "firstSubmission", Value: bson.D{{Key: "$min", Value: "$createdAt"}}}, group[2])
	assert.Equal(t, bson.E{Key: "lastSubmission", Value: bson.D{{Key: "$max", Value: "$createdAt"}}}, group[3])
}

func TestHourlyPipelineFallsBackToCreatedAt(t *testing.T) {
	p := HourlyPipeline(bson.D{})
	group := p[1][0].Value.(bson.D)

	assert.Equal(t, bson.D{{Key: "$hour", Value: bson.D{
		{Key: "$ifNull", Value: bson.A{"$date", "$createdAt"}},
	}}}, group[0].Value)
}

func TestFillHoursZeroFills(t *testing.T) {
	hours, total := fillHours([]hourRow{
		{Hour: intPtr(23), Count: 2},
		{Hour: intPtr(0), Count: 1},
		{Hour: nil, Count: 5},
		{Hour: intPtr(24), Count: 9},
	})

	require.Len(t, hours, HoursPerDay)
	for i, h := range hours {
		assert.Equal(t, i, h.Hour)
	}
	assert.Equal(t, 1, hours[0].Count)
	assert.Equal(t, 2, hours[23].Count)
	assert.Equal(t, 0, hours[12].Count)
	assert.Equal(t, 3, total)
}

func TestFillHoursSumsToTotalForAnyDistribution(t *testing.T) {
	rng := rand.New(rand.NewSource(42))

	for run := 0; run < 200; run++ {
		var rows []hourRow
		for h := 0; h < HoursPerDay; h++ {
			if rng.Intn(3) == 0 {
				rows = append(rows, hourRow{Hour: intPtr(h), Count: rng.Intn(100)})
			}
		}
		rng.Shuffle(len(rows), func(i, j int) { rows[i], rows[j] = rows[j], rows[i] })

		hours, total := fillHours(rows)
		require.Len(t, hours, HoursPerDay)

		sum := 0
		for i, h := range hours {
			require.Equal(t, i, h.Hour)
			sum += h.Count
		}
		require.Equal(t, total, sum)
	}
}
