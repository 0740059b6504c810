package model

// WeekdayLabels is the fixed Sunday-first order of chart columns.
var WeekdayLabels = [7]string{"dom", "seg", "ter", "qua", "qui", "sex", "sáb"}

// WeeklyMatrix is the derived week x weekday chart data. It is never persisted.
type WeeklyMatrix struct {
	Weeks         []int     `json:"weeks" yaml:"weeks"`
	WeekLabels    []string  `json:"weekLabels" yaml:"week_labels"`
	WeekdayLabels [7]string `json:"weekdayLabels" yaml:"weekday_labels"`
	Pending       [][7]int  `json:"pending" yaml:"pending"`
	Completed     [][7]int  `json:"completed" yaml:"completed"`
}

// Clone returns a copy that shares no backing arrays with m.
func (m WeeklyMatrix) Clone() WeeklyMatrix {
	out := WeeklyMatrix{
		Weeks:         make([]int, len(m.Weeks)),
		WeekLabels:    make([]string, len(m.WeekLabels)),
		WeekdayLabels: m.WeekdayLabels,
		Pending:       make([][7]int, len(m.Pending)),
		Completed:     make([][7]int, len(m.Completed)),
	}
	copy(out.Weeks, m.Weeks)
	copy(out.WeekLabels, m.WeekLabels)
	copy(out.Pending, m.Pending)
	copy(out.Completed, m.Completed)
	return out
}

// WeekTotal returns pending plus completed for the row at index i.
func (m WeeklyMatrix) WeekTotal(i int) int {
	total := 0
	for d := 0; d < 7; d++ {
		total += m.Pending[i][d] + m.Completed[i][d]
	}
	return total
}
