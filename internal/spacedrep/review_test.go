package spacedrep

import (
	"testing"
	"time"
)

func day(s string) time.Time {
	d, err := ParseDay(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestIsDue_Scenario(t *testing.T) {
	next := day("2024-01-01")
	if !IsDue(next, day("2024-01-02")) {
		t.Error("expected due the day after")
	}
	if IsDue(next, day("2023-12-31")) {
		t.Error("expected not due the day before")
	}
	if !IsDue(next, day("2024-01-01")) {
		t.Error("expected due on the day itself")
	}
}

func TestIsDue_DayGranularity(t *testing.T) {
	next := time.Date(2024, 1, 1, 23, 0, 0, 0, time.UTC)
	today := time.Date(2024, 1, 1, 1, 0, 0, 0, time.UTC)
	if !IsDue(next, today) {
		t.Error("expected due regardless of time of day")
	}
}

func TestOverdueDays(t *testing.T) {
	st := &ScheduleState{NextReviewDate: day("2024-01-01")}
	if got := st.OverdueDays(day("2024-01-04")); got != 3 {
		t.Errorf("OverdueDays() = %d, want 3", got)
	}
	if got := st.OverdueDays(day("2023-12-30")); got != 0 {
		t.Errorf("OverdueDays() before due = %d, want 0", got)
	}
}

func TestDaysUntilReview(t *testing.T) {
	st := &ScheduleState{NextReviewDate: day("2024-01-10")}
	if got := st.DaysUntilReview(day("2024-01-03")); got != 7 {
		t.Errorf("DaysUntilReview() = %d, want 7", got)
	}
	if got := st.DaysUntilReview(day("2024-01-12")); got != 0 {
		t.Errorf("DaysUntilReview() when overdue = %d, want 0", got)
	}
}

func TestStatus(t *testing.T) {
	st := &ScheduleState{NextReviewDate: day("2024-01-05")}
	tests := []struct {
		today string
		want  ReviewStatus
	}{
		{"2024-01-04", ReviewScheduled},
		{"2024-01-05", ReviewDue},
		{"2024-01-06", ReviewOverdue},
	}
	for _, tt := range tests {
		if got := st.Status(day(tt.today)); got != tt.want {
			t.Errorf("Status(%s) = %s, want %s", tt.today, got, tt.want)
		}
	}
}

func TestFilterDue_OrderAndLimit(t *testing.T) {
	items := []ScheduleState{
		{ItemID: 5, NextReviewDate: day("2024-01-03")},
		{ItemID: 1, NextReviewDate: day("2024-01-10")},
		{ItemID: 3, NextReviewDate: day("2024-01-01")},
		{ItemID: 2, NextReviewDate: day("2024-01-03")},
		{ItemID: 4, NextReviewDate: day("2024-01-05")},
	}
	today := day("2024-01-05")

	due := FilterDue(items, today, NoLimit)
	wantIDs := []int64{3, 2, 5, 4}
	if len(due) != len(wantIDs) {
		t.Fatalf("len = %d, want %d", len(due), len(wantIDs))
	}
	for i, id := range wantIDs {
		if due[i].ItemID != id {
			t.Errorf("due[%d] = %d, want %d", i, due[i].ItemID, id)
		}
	}

	limited := FilterDue(items, today, 2)
	if len(limited) != 2 || limited[0].ItemID != 3 || limited[1].ItemID != 2 {
		t.Errorf("limited = %+v", limited)
	}

	if got := FilterDue(items, today, 0); len(got) != 0 {
		t.Errorf("limit 0 returned %d items, want none", len(got))
	}

	if got := FilterDue(items, day("2023-12-01"), NoLimit); len(got) != 0 {
		t.Errorf("nothing should be due, got %d", len(got))
	}
}

func TestFilterDue_DoesNotReorderInput(t *testing.T) {
	items := []ScheduleState{
		{ItemID: 2, NextReviewDate: day("2024-01-03")},
		{ItemID: 1, NextReviewDate: day("2024-01-01")},
	}
	_ = FilterDue(items, day("2024-01-05"), NoLimit)
	if items[0].ItemID != 2 {
		t.Error("input slice reordered")
	}
}

func TestDayHelpers(t *testing.T) {
	if got := FormatDay(AddDays(day("2024-02-28"), 1)); got != "2024-02-29" {
		t.Errorf("leap day = %s", got)
	}
	if got := DaysBetween(day("2024-03-10"), day("2024-03-01")); got != -9 {
		t.Errorf("DaysBetween = %d, want -9", got)
	}
	if _, err := ParseDay("2024/01/01"); err == nil {
		t.Error("expected parse error")
	}

	loc := time.FixedZone("UTC-8", -8*3600)
	evening := time.Date(2024, 1, 1, 22, 0, 0, 0, loc)
	if got := FormatDay(evening); got != "2024-01-01" {
		t.Errorf("Day uses the time's own zone: got %s", got)
	}
}
