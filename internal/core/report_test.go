package core

import (
	"testing"
	"time"
)

func tx(kind Kind, cents int64, at time.Time) Transaction {
	return Transaction{Kind: kind, SourceID: "w", Amount: Money{Cents: cents}, CreatedAt: at}
}

func TestAggregateDaily(t *testing.T) {
	day1 := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
	day2 := time.Date(2025, 3, 11, 18, 0, 0, 0, time.UTC)
	txs := []Transaction{
		tx(Expense, 10000, day1),
		tx(Expense, 5000, day1),
		tx(Expense, 3000, day2),
	}

	got, err := Aggregate(txs, BucketDay)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 periods, got %d", len(got))
	}
	if !got[0].PeriodStart.Equal(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)) || got[0].Total.Cents != 15000 {
		t.Fatalf("day1: got %v %d", got[0].PeriodStart, got[0].Total.Cents)
	}
	if !got[1].PeriodStart.Equal(time.Date(2025, 3, 11, 0, 0, 0, 0, time.UTC)) || got[1].Total.Cents != 3000 {
		t.Fatalf("day2: got %v %d", got[1].PeriodStart, got[1].Total.Cents)
	}
}

func TestAggregateWeekStartsMonday(t *testing.T) {
	// 2025-03-09 is a Sunday, 2025-03-10 a Monday.
	sunday := time.Date(2025, 3, 9, 12, 0, 0, 0, time.UTC)
	monday := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	txs := []Transaction{
		tx(Expense, 100, sunday),
		tx(Expense, 200, monday),
	}

	got, err := Aggregate(txs, BucketWeek)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("sunday and monday belong to different ISO weeks, got %d periods", len(got))
	}
	if !got[0].PeriodStart.Equal(time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected week start 2025-03-03, got %v", got[0].PeriodStart)
	}
	if !got[1].PeriodStart.Equal(time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("expected week start 2025-03-10, got %v", got[1].PeriodStart)
	}
}

func TestAggregateMonthly(t *testing.T) {
	txs := []Transaction{
		tx(Income, 100, time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)),
		tx(Income, 200, time.Date(2025, 1, 31, 23, 59, 0, 0, time.UTC)),
		tx(Income, 400, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)),
	}

	got, err := Aggregate(txs, BucketMonth)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 months, got %d", len(got))
	}
	if got[0].Total.Cents != 300 || got[1].Total.Cents != 400 {
		t.Fatalf("expected totals 300/400, got %d/%d", got[0].Total.Cents, got[1].Total.Cents)
	}
}

func TestAggregateEmptyInput(t *testing.T) {
	got, err := Aggregate(nil, BucketDay)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected empty output, got %d", len(got))
	}
}

func TestAggregateInvalidBucket(t *testing.T) {
	if _, err := Aggregate(nil, Bucket("quarter")); err == nil {
		t.Fatal("expected error for unknown bucket")
	}
}
