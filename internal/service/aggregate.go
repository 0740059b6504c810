package service

import (
	"fmt"
	"sort"

	"task-tracker/internal/calendar"
	"task-tracker/internal/model"
)

// WeeklyAggregator turns a task list into the week x weekday chart matrix.
type WeeklyAggregator struct {
	ix *calendar.Indexer
}

func NewWeeklyAggregator(ix *calendar.Indexer) *WeeklyAggregator {
	return &WeeklyAggregator{ix: ix}
}

type weekCounts struct {
	pending   [7]int
	completed [7]int
}

// Aggregate counts pending and completed tasks per week and weekday.
// Tasks whose date cannot be parsed are skipped.
func (a *WeeklyAggregator) Aggregate(tasks []model.Task) model.WeeklyMatrix {
	weeks := make(map[int]*weekCounts)

	for _, task := range tasks {
		week, weekday, ok := a.ix.Index(task.Date)
		if !ok {
			continue
		}

		counts, seen := weeks[week]
		if !seen {
			counts = &weekCounts{}
			weeks[week] = counts
		}

		if task.Active {
			counts.completed[weekday]++
		} else {
			counts.pending[weekday]++
		}
	}

	keys := make([]int, 0, len(weeks))
	for week := range weeks {
		keys = append(keys, week)
	}
	sort.Ints(keys)

	matrix := model.WeeklyMatrix{
		Weeks:         keys,
		WeekLabels:    make([]string, len(keys)),
		WeekdayLabels: model.WeekdayLabels,
		Pending:       make([][7]int, len(keys)),
		Completed:     make([][7]int, len(keys)),
	}
	for i, week := range keys {
		matrix.WeekLabels[i] = WeekLabel(week)
		matrix.Pending[i] = weeks[week].pending
		matrix.Completed[i] = weeks[week].completed
	}

	return matrix
}

// WeekLabel is the chart label of a week key.
func WeekLabel(week int) string {
	return fmt.Sprintf("Semana %d", week)
}
