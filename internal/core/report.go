package core

import (
	"errors"
	"sort"
	"time"
)

const (
	BucketDay   Bucket = "day"
	BucketWeek  Bucket = "week"
	BucketMonth Bucket = "month"
)

// Bucket is a period grouping key for trend aggregation.
type Bucket string

// PeriodTotal is the summed amount for one period.
type PeriodTotal struct {
	PeriodStart time.Time
	Total       Money
}

var ErrInvalidBucket = errors.New("invalid bucket")

func (b Bucket) Valid() bool {
	switch b {
	case BucketDay, BucketWeek, BucketMonth:
		return true
	}
	return false
}

// Aggregate groups transactions by period bucket and sums their
// amounts. Periods are returned ascending by start. Day buckets use the
// calendar date, week buckets the ISO week starting Monday, month
// buckets the calendar month. Empty input yields an empty slice.
func Aggregate(txs []Transaction, bucket Bucket) ([]PeriodTotal, error) {
	if !bucket.Valid() {
		return nil, ErrInvalidBucket
	}

	sums := make(map[time.Time]int64)
	for _, t := range txs {
		start := periodStart(t.CreatedAt, bucket)
		sums[start] += t.Amount.Cents
	}

	out := make([]PeriodTotal, 0, len(sums))
	for start, cents := range sums {
		out = append(out, PeriodTotal{PeriodStart: start, Total: Money{Cents: cents}})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].PeriodStart.Before(out[j].PeriodStart)
	})
	return out, nil
}

func periodStart(t time.Time, bucket Bucket) time.Time {
	t = t.UTC()
	switch bucket {
	case BucketWeek:
		// Walk back to Monday.
		delta := (int(t.Weekday()) + 6) % 7
		d := t.AddDate(0, 0, -delta)
		return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
	case BucketMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}
}
