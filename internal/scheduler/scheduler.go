package scheduler

import (
	"context"
	"fmt"
)

// Run drives every task in tasks (trusted to already be in topological
// order) through the executor in sequence, accumulating each merged task's
// report path so later tasks can reference their dependencies' reports.
// It stops at the first fatal infrastructure error; a task-level
// IMPLEMENTATION_BLOCKED does not halt the run, it is recorded and
// scheduling continues to the next task.
func Run(ctx context.Context, exec *Executor, tasks []Task) ([]TaskRecord, error) {
	reportPaths := make(map[string]string, len(tasks))
	var records []TaskRecord

	for _, task := range tasks {
		var upstream []string
		for _, dep := range task.Dependencies {
			if p, ok := reportPaths[dep]; ok {
				upstream = append(upstream, p)
			}
		}

		record, err := exec.RunTask(ctx, task, upstream)
		records = append(records, record)
		if err != nil {
			return records, fmt.Errorf("task %s: %w", task.ID, err)
		}
		if record.Outcome == OutcomeMerged {
			reportPaths[task.ID] = record.ReportPath
		}
	}

	return records, nil
}
