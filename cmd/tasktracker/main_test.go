package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"task-tracker/internal/calendar"
	"task-tracker/internal/model"
	"task-tracker/internal/service"
)

func sampleTasks() []model.Task {
	return []model.Task{
		{ID: "t1", Name: "Buy milk", Category: "Home", Priority: model.PriorityLow, Date: "2024-03-04", Active: true},
		{ID: "t2", Name: "Pay rent", Category: "Home", Priority: model.PriorityHigh, Date: "2024-03-06"},
	}
}

func TestWriteTasksFormats(t *testing.T) {
	ix := calendar.NewIndexer(time.UTC)
	now := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)

	var text bytes.Buffer
	if err := writeTasks(&text, "text", sampleTasks(), ix, now); err != nil {
		t.Fatalf("text: %v", err)
	}
	want := "1. ✅ Buy milk (Home) - 2024-03-04  [t1]\n2. 🔴 Pay rent (Home) - 2024-03-06  [t2]\n"
	if text.String() != want {
		t.Errorf("text output:\n%s\nwant:\n%s", text.String(), want)
	}

	var js bytes.Buffer
	if err := writeTasks(&js, "json", sampleTasks(), ix, now); err != nil {
		t.Fatalf("json: %v", err)
	}
	var decoded []map[string]any
	if err := json.Unmarshal(js.Bytes(), &decoded); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if len(decoded) != 2 || decoded[0]["_id"] != "t1" || decoded[1]["priority"] != "Alta" {
		t.Errorf("Unexpected json %s", js.String())
	}

	var ym bytes.Buffer
	if err := writeTasks(&ym, "yaml", sampleTasks(), ix, now); err != nil {
		t.Fatalf("yaml: %v", err)
	}
	var fromYAML []model.Task
	if err := yaml.Unmarshal(ym.Bytes(), &fromYAML); err != nil {
		t.Fatalf("decode yaml: %v", err)
	}
	if len(fromYAML) != 2 || fromYAML[0].ID != "t1" || !fromYAML[0].Active {
		t.Errorf("Unexpected yaml %s", ym.String())
	}

	if err := writeTasks(io.Discard, "xml", sampleTasks(), ix, now); err == nil {
		t.Error("Expected error for unknown format")
	}
}

func TestWriteTasksEmpty(t *testing.T) {
	var out bytes.Buffer
	if err := writeTasks(&out, "text", nil, calendar.NewIndexer(time.UTC), time.Now()); err != nil {
		t.Fatal(err)
	}
	if out.String() != "No tasks.\n" {
		t.Errorf("Unexpected output %q", out.String())
	}
}

func TestWriteChart(t *testing.T) {
	m := service.NewWeeklyAggregator(calendar.NewIndexer(time.UTC)).Aggregate(sampleTasks())

	var text bytes.Buffer
	if err := writeChart(&text, "text", m); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(text.String(), "Semana 10") {
		t.Errorf("Expected week label in chart, got:\n%s", text.String())
	}

	var js bytes.Buffer
	if err := writeChart(&js, "json", m); err != nil {
		t.Fatal(err)
	}
	var decoded model.WeeklyMatrix
	if err := json.Unmarshal(js.Bytes(), &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(decoded.Weeks) != 1 || decoded.Weeks[0] != 10 {
		t.Errorf("Unexpected weeks %v", decoded.Weeks)
	}
	if decoded.Completed[0][1] != 1 || decoded.Pending[0][3] != 1 {
		t.Errorf("Unexpected cells pending=%v completed=%v", decoded.Pending, decoded.Completed)
	}
}

func TestWriteCategories(t *testing.T) {
	var out bytes.Buffer
	cats := []model.Category{{ID: "c1", Name: "Home"}, {ID: "c2", Name: "Work"}}
	if err := writeCategories(&out, "text", cats); err != nil {
		t.Fatal(err)
	}
	if out.String() != "Home\nWork\n" {
		t.Errorf("Unexpected output %q", out.String())
	}
}

func TestParseDay(t *testing.T) {
	ix := calendar.NewIndexer(time.UTC)
	now := time.Date(2024, 3, 4, 23, 0, 0, 0, time.UTC)

	day, err := parseDay("Today", ix, now)
	if err != nil || day.String() != "2024-03-04" {
		t.Errorf("today = %v, %v", day, err)
	}
	day, err = parseDay("2024-12-31", ix, now)
	if err != nil || day.String() != "2024-12-31" {
		t.Errorf("explicit day = %v, %v", day, err)
	}
	if _, err := parseDay("31/12/2024", ix, now); err == nil {
		t.Error("Expected error for non ISO day")
	}
}

func TestConfirm(t *testing.T) {
	tests := map[string]bool{
		"y\n":   true,
		"YES\n": true,
		"n\n":   false,
		"\n":    false,
		"":      false,
	}
	for input, want := range tests {
		got := confirm(bufio.NewReader(strings.NewReader(input)), io.Discard, "Remove?")
		if got != want {
			t.Errorf("confirm(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestFilterFromFlags(t *testing.T) {
	cmd := tasksCmd()
	if err := cmd.Flags().Parse([]string{"--category", "Home", "--date", "2024-03-04", "--name", "bu"}); err != nil {
		t.Fatal(err)
	}
	filter, err := filterFromFlags(cmd, calendar.NewIndexer(time.UTC), time.Now())
	if err != nil {
		t.Fatal(err)
	}
	want := service.TaskFilter{Category: "Home", Day: calendar.Day{Year: 2024, Month: 3, Day: 4}, NamePrefix: "bu"}
	if filter != want {
		t.Errorf("got %+v, want %+v", filter, want)
	}

	defaults := tasksCmd()
	filter, err = filterFromFlags(defaults, calendar.NewIndexer(time.UTC), time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if filter != service.AllTasks {
		t.Errorf("Expected default filter to keep everything, got %+v", filter)
	}
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := newRootCmd()
	for _, name := range []string{"bot", "register", "login", "logout", "whoami", "tasks", "add", "done", "rm", "chart", "categories"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("Expected subcommand %q, got %v", name, err)
		}
	}
}
