package domain

// TaskCounts aggregates a project's tasks by state.
type TaskCounts struct {
	Total      int64
	Done       int64
	InProgress int64
	Overdue    int64
}
