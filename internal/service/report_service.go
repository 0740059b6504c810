package service

import (
	"fmt"
	"strings"
	"time"

	"task-tracker/internal/calendar"
	"task-tracker/internal/model"
)

const (
	iconHigh    = "🔴"
	iconMedium  = "🟠"
	iconLow     = "🟢"
	iconDone    = "✅"
	iconOverdue = "⚠️"
)

// FormatWeeklyChart renders the matrix as a fixed-width table: one header
// row of weekdays, then a pending and a completed row per week.
func FormatWeeklyChart(m model.WeeklyMatrix) string {
	if len(m.Weeks) == 0 {
		return "No dated tasks to chart."
	}

	labelWidth := len("Semana 00 done")
	for _, label := range m.WeekLabels {
		if w := len(label) + len(" done"); w > labelWidth {
			labelWidth = w
		}
	}

	var sb strings.Builder
	sb.WriteString(strings.Repeat(" ", labelWidth))
	for _, day := range m.WeekdayLabels {
		sb.WriteString(fmt.Sprintf(" %4s", day))
	}
	sb.WriteString("  total\n")

	for i, label := range m.WeekLabels {
		writeRow(&sb, label+" todo", labelWidth, m.Pending[i])
		writeRow(&sb, label+" done", labelWidth, m.Completed[i])
	}
	return strings.TrimRight(sb.String(), "\n")
}

func writeRow(sb *strings.Builder, label string, width int, cells [7]int) {
	sb.WriteString(label)
	sb.WriteString(strings.Repeat(" ", width-len(label)))
	total := 0
	for _, n := range cells {
		sb.WriteString(fmt.Sprintf(" %4d", n))
		total += n
	}
	sb.WriteString(fmt.Sprintf("  %5d\n", total))
}

// FormatTaskLine renders one task for a list, numbered when n > 0. Overdue
// pending tasks are flagged.
func FormatTaskLine(n int, task model.Task, ix *calendar.Indexer, now time.Time) string {
	icon := priorityIcon(task.Priority)
	if task.Active {
		icon = iconDone
	}

	date := task.Date
	if at, ok := ix.Parse(task.Date); ok {
		date = ix.DayOf(at).String()
		if !task.Active && ix.DayOf(at).String() < ix.Today(now).String() {
			icon = iconOverdue
		}
	}

	line := fmt.Sprintf("%s %s (%s) - %s", icon, strings.TrimSpace(task.Name), task.Category, date)
	if n > 0 {
		line = fmt.Sprintf("%d. %s", n, line)
	}
	return line
}

// FormatTaskList renders a whole snapshot list.
func FormatTaskList(tasks []model.Task, ix *calendar.Indexer, now time.Time) string {
	if len(tasks) == 0 {
		return "No tasks."
	}
	lines := make([]string, len(tasks))
	for i, task := range tasks {
		lines[i] = FormatTaskLine(i+1, task, ix, now)
	}
	return strings.Join(lines, "\n")
}

func priorityIcon(p model.Priority) string {
	switch p {
	case model.PriorityHigh:
		return iconHigh
	case model.PriorityMedium:
		return iconMedium
	default:
		return iconLow
	}
}
