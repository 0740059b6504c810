package service

import (
	"strings"
	"testing"
	"time"

	"task-tracker/internal/model"
)

func TestFormatWeeklyChart(t *testing.T) {
	tasks := []model.Task{
		mkTask("1", "Buy milk", "Home", "2024-03-04", false),
		mkTask("2", "Pay bill", "Home", "2024-03-04", true),
		mkTask("3", "Call mom", "Home", "2024-01-09", false),
	}
	m := NewWeeklyAggregator(utcIndexer()).Aggregate(tasks)

	out := FormatWeeklyChart(m)
	lines := strings.Split(out, "\n")
	if len(lines) != 5 {
		t.Fatalf("Expected header plus two rows per week, got %d lines:\n%s", len(lines), out)
	}
	for _, day := range model.WeekdayLabels {
		if !strings.Contains(lines[0], day) {
			t.Errorf("Header misses %s: %q", day, lines[0])
		}
	}
	if !strings.HasPrefix(lines[1], "Semana 2 todo") || !strings.HasPrefix(lines[3], "Semana 10 todo") {
		t.Errorf("Weeks out of order:\n%s", out)
	}
	if !strings.HasSuffix(lines[4], "1") {
		t.Errorf("Expected done total 1 for week 10, got %q", lines[4])
	}
}

func TestFormatWeeklyChartEmpty(t *testing.T) {
	if got := FormatWeeklyChart(model.WeeklyMatrix{}); got != "No dated tasks to chart." {
		t.Errorf("Unexpected output %q", got)
	}
}

func TestFormatTaskLine(t *testing.T) {
	ix := utcIndexer()
	now := time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		task model.Task
		want string
	}{
		{"overdue", mkTask("1", "Buy milk", "Home", "2024-03-04T10:00:00Z", false), "1. ⚠️ Buy milk (Home) - 2024-03-04"},
		{"done", mkTask("1", "Buy milk", "Home", "2024-03-04", true), "1. ✅ Buy milk (Home) - 2024-03-04"},
		{"upcoming", model.Task{Name: "Pay", Category: "Home", Priority: model.PriorityHigh, Date: "2024-03-06"}, "1. 🔴 Pay (Home) - 2024-03-06"},
		{"unparseable", model.Task{Name: "Pay", Category: "Home", Date: "soon"}, "1. 🟢 Pay (Home) - soon"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatTaskLine(1, tt.task, ix, now); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatTaskLineUnnumbered(t *testing.T) {
	task := model.Task{Name: "Pay", Category: "Home", Priority: model.PriorityMedium, Date: "2024-03-06"}
	got := FormatTaskLine(0, task, utcIndexer(), time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC))
	if want := "🟠 Pay (Home) - 2024-03-06"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFormatTaskListEmpty(t *testing.T) {
	if got := FormatTaskList(nil, utcIndexer(), time.Now()); got != "No tasks." {
		t.Errorf("Unexpected output %q", got)
	}
}
