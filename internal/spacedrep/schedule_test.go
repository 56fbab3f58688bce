package spacedrep

import (
	"errors"
	"testing"
	"time"
)

func TestDefaultLadder_Values(t *testing.T) {
	expected := []int{2, 3, 7, 21, 60}
	if len(DefaultLadder) != len(expected) {
		t.Fatalf("expected %d intervals, got %d", len(expected), len(DefaultLadder))
	}
	for i, v := range expected {
		if DefaultLadder[i] != v {
			t.Errorf("DefaultLadder[%d] = %d, want %d", i, DefaultLadder[i], v)
		}
	}
}

func TestIntervalFor_EachCount(t *testing.T) {
	tests := []struct {
		count    int
		expected int
	}{
		{-1, 2},
		{0, 2},
		{1, 3},
		{2, 7},
		{3, 21},
		{4, 60},
	}
	for _, tt := range tests {
		got := DefaultLadder.IntervalFor(tt.count)
		if got != tt.expected {
			t.Errorf("IntervalFor(%d) = %d, want %d", tt.count, got, tt.expected)
		}
	}
}

func TestIntervalFor_Saturates(t *testing.T) {
	for n := 5; n < 200; n++ {
		if got := DefaultLadder.IntervalFor(n); got != 60 {
			t.Fatalf("IntervalFor(%d) = %d, want 60", n, got)
		}
	}
}

func TestNext_FailAlwaysResetsToOne(t *testing.T) {
	for count := 0; count < 20; count++ {
		newCount, days, err := DefaultLadder.Next(OutcomeFail, count)
		if err != nil {
			t.Fatalf("count %d: %v", count, err)
		}
		if newCount != 1 {
			t.Errorf("count %d: newCount = %d, want 1", count, newCount)
		}
		if days != 3 {
			t.Errorf("count %d: interval = %d, want 3", count, days)
		}
	}
}

func TestNext_PartialKeepsCount(t *testing.T) {
	for count := 0; count < 20; count++ {
		newCount, days, err := DefaultLadder.Next(OutcomePartial, count)
		if err != nil {
			t.Fatalf("count %d: %v", count, err)
		}
		if newCount != count {
			t.Errorf("count %d: newCount = %d", count, newCount)
		}
		if days != DefaultLadder.IntervalFor(count) {
			t.Errorf("count %d: interval = %d, want %d", count, days, DefaultLadder.IntervalFor(count))
		}
	}
}

func TestNext_SuccessIncrements(t *testing.T) {
	for count := 0; count < 20; count++ {
		newCount, days, err := DefaultLadder.Next(OutcomeSuccess, count)
		if err != nil {
			t.Fatalf("count %d: %v", count, err)
		}
		if newCount != count+1 {
			t.Errorf("count %d: newCount = %d, want %d", count, newCount, count+1)
		}
		if days != DefaultLadder.IntervalFor(count+1) {
			t.Errorf("count %d: interval = %d", count, days)
		}
	}
}

func TestNext_InvalidOutcome(t *testing.T) {
	for _, o := range []Outcome{"", "success", "SKIP", "EASY"} {
		_, _, err := DefaultLadder.Next(o, 2)
		var invalid *InvalidOutcomeError
		if !errors.As(err, &invalid) {
			t.Errorf("Next(%q): err = %v, want InvalidOutcomeError", o, err)
			continue
		}
		if invalid.Value != string(o) {
			t.Errorf("Value = %q, want %q", invalid.Value, o)
		}
	}
}

func TestComputeNext_Dates(t *testing.T) {
	today := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name      string
		outcome   Outcome
		count     int
		wantCount int
		wantDate  string
	}{
		{"success from 2", OutcomeSuccess, 2, 3, "2024-01-22"},
		{"success from 0", OutcomeSuccess, 0, 1, "2024-01-04"},
		{"partial at 2", OutcomePartial, 2, 2, "2024-01-08"},
		{"fail from 4", OutcomeFail, 4, 1, "2024-01-04"},
		{"success at top", OutcomeSuccess, 9, 10, "2024-03-01"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			count, date, err := DefaultLadder.ComputeNext(tt.outcome, tt.count, today)
			if err != nil {
				t.Fatalf("ComputeNext: %v", err)
			}
			if count != tt.wantCount {
				t.Errorf("count = %d, want %d", count, tt.wantCount)
			}
			if got := FormatDay(date); got != tt.wantDate {
				t.Errorf("date = %s, want %s", got, tt.wantDate)
			}
		})
	}
}

func TestComputeNext_IgnoresTimeOfDay(t *testing.T) {
	late := time.Date(2024, 1, 1, 23, 59, 0, 0, time.UTC)
	_, date, err := DefaultLadder.ComputeNext(OutcomeFail, 3, late)
	if err != nil {
		t.Fatal(err)
	}
	if got := FormatDay(date); got != "2024-01-04" {
		t.Errorf("date = %s, want 2024-01-04", got)
	}
	if date.Hour() != 0 || date.Minute() != 0 {
		t.Errorf("date not truncated: %v", date)
	}
}

func TestInitialSchedule(t *testing.T) {
	today := time.Date(2024, 1, 1, 9, 30, 0, 0, time.UTC)
	if got := FormatDay(DefaultLadder.InitialSchedule(today)); got != "2024-01-03" {
		t.Errorf("InitialSchedule = %s, want 2024-01-03", got)
	}
}

func TestLadderValidate(t *testing.T) {
	tests := []struct {
		name    string
		ladder  Ladder
		wantErr bool
	}{
		{"default", DefaultLadder, false},
		{"two entries", Ladder{1, 2}, false},
		{"empty", Ladder{}, true},
		{"single", Ladder{5}, true},
		{"zero entry", Ladder{2, 0, 7}, true},
		{"negative entry", Ladder{2, -3}, true},
	}
	for _, tt := range tests {
		err := tt.ladder.Validate()
		if (err != nil) != tt.wantErr {
			t.Errorf("%s: err = %v, wantErr %v", tt.name, err, tt.wantErr)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.DailyLimit != 3 || cfg.Horizon != 100 {
		t.Errorf("defaults = limit %d horizon %d", cfg.DailyLimit, cfg.Horizon)
	}

	bad := cfg
	bad.DailyLimit = 0
	if bad.Validate() == nil {
		t.Error("expected error for zero daily limit")
	}
	bad = cfg
	bad.Horizon = 0
	if bad.Validate() == nil {
		t.Error("expected error for zero horizon")
	}
}

func TestDefaultConfig_CopiesLadder(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Ladder[0] = 99
	if DefaultLadder[0] != 2 {
		t.Fatalf("DefaultLadder mutated through config: %v", DefaultLadder)
	}
}

func TestParseOutcome(t *testing.T) {
	tests := []struct {
		in   string
		want Outcome
		ok   bool
	}{
		{"SUCCESS", OutcomeSuccess, true},
		{"PARTIAL", OutcomePartial, true},
		{"FAIL", OutcomeFail, true},
		{"success", "", false},
		{" Fail ", "", false},
		{"partial", "", false},
		{"SUCCESS ", "", false},
		{"", "", false},
		{"maybe", "", false},
	}
	for _, tt := range tests {
		got, err := ParseOutcome(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("ParseOutcome(%q) err = %v", tt.in, err)
			continue
		}
		var invalid *InvalidOutcomeError
		if !tt.ok && (!errors.As(err, &invalid) || invalid.Value != tt.in) {
			t.Errorf("ParseOutcome(%q) err = %v, want *InvalidOutcomeError carrying the input", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ParseOutcome(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestUnavailableError(t *testing.T) {
	cause := errors.New("disk gone")
	err := error(&UnavailableError{Op: "count", Err: cause})
	if !errors.Is(err, cause) {
		t.Error("UnavailableError does not unwrap to cause")
	}
	var u *UnavailableError
	if !errors.As(err, &u) || !u.Retryable() {
		t.Error("expected retryable UnavailableError")
	}
}
