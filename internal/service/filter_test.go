package service

import (
	"reflect"
	"testing"
	"time"

	"task-tracker/internal/calendar"
	"task-tracker/internal/model"
)

func ids(tasks []model.Task) []string {
	out := make([]string, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}

func TestFilterCategory(t *testing.T) {
	tasks := []model.Task{
		mkTask("1", "Buy milk", "Home", "2024-03-04", false),
		mkTask("2", "Report", "Work", "2024-03-05", false),
		mkTask("3", "Clean", "home", "2024-03-06", false),
	}
	ix := utcIndexer()

	tests := []struct {
		name     string
		category string
		want     []string
	}{
		{"all sentinel", model.AllCategories, []string{"1", "2", "3"}},
		{"empty means all", "", []string{"1", "2", "3"}},
		{"exact", "Home", []string{"1"}},
		{"case sensitive", "home", []string{"3"}},
		{"no match", "Garden", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(TaskFilter{Category: tt.category}.Apply(tasks, ix))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilterDayAndPrefix(t *testing.T) {
	tasks := []model.Task{
		mkTask("1", "Buy milk", "Home", "2024-03-04T09:00:00Z", false),
		mkTask("2", "buy bread", "Home", "2024-03-04T18:00:00Z", true),
		mkTask("3", "Pay bill", "Home", "2024-03-04", false),
		mkTask("4", "Buy stamps", "Home", "2024-03-05", false),
		mkTask("5", "Buy nothing", "Home", "not-a-date", false),
	}
	ix := utcIndexer()
	day := calendar.Day{Year: 2024, Month: time.March, Day: 4}

	got := ids(TaskFilter{Category: model.AllCategories, Day: day}.Apply(tasks, ix))
	if want := []string{"3", "1", "2"}; !reflect.DeepEqual(got, want) {
		t.Errorf("day filter: got %v, want %v", got, want)
	}

	got = ids(TaskFilter{NamePrefix: "BUY"}.Apply(tasks, ix))
	if want := []string{"1", "2", "4", "5"}; !reflect.DeepEqual(got, want) {
		t.Errorf("prefix filter: got %v, want %v", got, want)
	}

	got = ids(TaskFilter{Category: "Home", Day: day, NamePrefix: "buy"}.Apply(tasks, ix))
	if want := []string{"1", "2"}; !reflect.DeepEqual(got, want) {
		t.Errorf("combined filter: got %v, want %v", got, want)
	}

	got = ids(TaskFilter{NamePrefix: "milk"}.Apply(tasks, ix))
	if len(got) != 0 {
		t.Errorf("prefix must match the start of the name, got %v", got)
	}
}

func TestFilterSortsInvalidDatesLast(t *testing.T) {
	tasks := []model.Task{
		mkTask("bad1", "A", "Home", "not-a-date", false),
		mkTask("late", "B", "Home", "2024-03-10", false),
		mkTask("bad2", "C", "Home", "", false),
		mkTask("early", "D", "Home", "2024-01-02", false),
		mkTask("mid", "E", "Home", "2024-02-01T12:00:00Z", false),
	}

	got := ids(AllTasks.Apply(tasks, utcIndexer()))
	want := []string{"early", "mid", "late", "bad1", "bad2"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestFilterDoesNotMutateInput(t *testing.T) {
	tasks := []model.Task{
		mkTask("2", "B", "Home", "2024-03-10", false),
		mkTask("1", "A", "Home", "2024-03-01", false),
	}
	before := append([]model.Task{}, tasks...)

	_ = AllTasks.Apply(tasks, utcIndexer())

	if !reflect.DeepEqual(tasks, before) {
		t.Errorf("input was modified: %v", tasks)
	}
}

func TestFilterHomeScenario(t *testing.T) {
	tasks := []model.Task{
		mkTask("2", "Pay bill", "Home", "2024-03-04", true),
		mkTask("1", "Buy milk", "Home", "2024-03-04", false),
	}

	got := TaskFilter{Category: "Home"}.Apply(tasks, utcIndexer())
	if len(got) != 2 {
		t.Fatalf("Expected both tasks, got %d", len(got))
	}
	// Same date: the stable sort keeps input order.
	if got[0].ID != "2" || got[1].ID != "1" {
		t.Errorf("Unexpected order %v", ids(got))
	}
}

func TestFilterDayMatchesSentTimestampWestOfUTC(t *testing.T) {
	loc := time.FixedZone("BRT", -3*60*60)
	ix := calendar.NewIndexer(loc)
	day := calendar.Day{Year: 2024, Month: time.March, Day: 4}

	sent, ok := ix.Parse(day.Timestamp(loc))
	if !ok {
		t.Fatal("sent timestamp must parse")
	}
	tasks := []model.Task{
		mkTask("1", "Buy milk", "Home", day.Timestamp(loc), false),
		mkTask("2", "Pay bill", "Home", sent.UTC().Format("2006-01-02T15:04:05.000Z07:00"), true),
	}

	got := ids(TaskFilter{Day: day}.Apply(tasks, ix))
	if !reflect.DeepEqual(got, []string{"1", "2"}) {
		t.Errorf("got %v, want both tasks on %s", got, day)
	}

	m := NewWeeklyAggregator(ix).Aggregate(tasks)
	if len(m.Weeks) != 1 || m.Weeks[0] != 10 || m.Pending[0][1] != 1 || m.Completed[0][1] != 1 {
		t.Errorf("Expected both tasks on seg of week 10, got %+v", m)
	}
}
