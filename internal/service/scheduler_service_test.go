package service

import (
	"context"
	"testing"
	"time"

	"task-tracker/internal/logging"
)

func TestBuildDailySpec(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"08:30", "0 30 8 * * *", false},
		{" 23:59 ", "0 59 23 * * *", false},
		{"00:00", "0 0 0 * * *", false},
		{"24:00", "", true},
		{"12:60", "", true},
		{"noon", "", true},
		{"12", "", true},
	}

	for _, tt := range tests {
		got, err := buildDailySpec(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("buildDailySpec(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("buildDailySpec(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestBuildIntervalSpec(t *testing.T) {
	if got, err := buildIntervalSpec(15 * time.Minute); err != nil || got != "@every 900s" {
		t.Errorf("Got %q, %v", got, err)
	}
	if got, err := buildIntervalSpec(10 * time.Millisecond); err != nil || got != "@every 1s" {
		t.Errorf("Sub-second intervals round up to 1s, got %q, %v", got, err)
	}
	if _, err := buildIntervalSpec(0); err == nil {
		t.Error("Expected error for zero interval")
	}
}

func TestSchedulerRunsIntervalJob(t *testing.T) {
	s := NewSchedulerService(time.UTC, time.Second, logging.Discard())
	ran := make(chan struct{}, 1)

	if _, err := s.ScheduleInterval(time.Second, "tick", func(ctx context.Context) error {
		if _, ok := ctx.Deadline(); !ok {
			t.Error("Expected job context with deadline")
		}
		select {
		case ran <- struct{}{}:
		default:
		}
		return nil
	}); err != nil {
		t.Fatalf("ScheduleInterval failed: %v", err)
	}

	s.Start()
	defer s.Stop()

	select {
	case <-ran:
	case <-time.After(3 * time.Second):
		t.Fatal("Job did not run")
	}
}

func TestScheduleDailyRejectsBadTime(t *testing.T) {
	s := NewSchedulerService(time.UTC, time.Second, logging.Discard())
	if _, err := s.ScheduleDaily("25:00", "report", func(context.Context) error { return nil }); err == nil {
		t.Error("Expected error for invalid time")
	}
}
