package service

import (
	"sort"
	"strings"
	"time"

	"task-tracker/internal/calendar"
	"task-tracker/internal/model"
)

// TaskFilter narrows a task list. Zero fields do not filter.
type TaskFilter struct {
	Category   string       `json:"category" yaml:"category"`
	Day        calendar.Day `json:"-" yaml:"-"`
	NamePrefix string       `json:"namePrefix" yaml:"name_prefix"`
}

// AllTasks is the filter that keeps everything.
var AllTasks = TaskFilter{Category: model.AllCategories}

func (f TaskFilter) allCategories() bool {
	return f.Category == "" || f.Category == model.AllCategories
}

// Apply keeps the tasks matching every set criterion (category, then day,
// then name prefix) and returns them sorted by date. Tasks with unreadable
// dates go last in their original order. tasks is never modified.
func (f TaskFilter) Apply(tasks []model.Task, ix *calendar.Indexer) []model.Task {
	prefix := strings.ToLower(f.NamePrefix)

	type dated struct {
		task  model.Task
		at    time.Time
		valid bool
	}

	kept := make([]dated, 0, len(tasks))
	for _, task := range tasks {
		if !f.allCategories() && task.Category != f.Category {
			continue
		}

		at, valid := ix.Parse(task.Date)
		if !f.Day.IsZero() && (!valid || ix.DayOf(at) != f.Day) {
			continue
		}

		if prefix != "" && !strings.HasPrefix(strings.ToLower(task.Name), prefix) {
			continue
		}

		kept = append(kept, dated{task: task, at: at, valid: valid})
	}

	sort.SliceStable(kept, func(i, j int) bool {
		switch {
		case !kept[i].valid:
			return false
		case !kept[j].valid:
			return true
		default:
			return kept[i].at.Before(kept[j].at)
		}
	})

	out := make([]model.Task, len(kept))
	for i, d := range kept {
		out[i] = d.task
	}
	return out
}
