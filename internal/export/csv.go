package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sadopc/daybook/internal/store"
)

func categoryNames(categories []store.Category) map[string]string {
	names := make(map[string]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}
	return names
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

// TasksToCSV writes one row per task. Untimed tasks have empty start and end.
func TasksToCSV(tasks []store.Task, categories []store.Category, path string) error {
	names := categoryNames(categories)
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		category, ok := names[t.CategoryID]
		if !ok {
			category = "Unknown"
		}
		start, end := "", ""
		if t.StartTime != nil {
			start = *t.StartTime
		}
		if t.EndTime != nil {
			end = *t.EndTime
		}
		rows = append(rows, []string{
			t.ID,
			t.Date,
			start,
			end,
			t.Title,
			category,
			strconv.FormatBool(t.IsCompleted),
			t.Description,
		})
	}
	return writeCSV(path, []string{"ID", "Date", "Start", "End", "Title", "Category", "Completed", "Description"}, rows)
}

// FocusSessionsToCSV writes one row per focus session.
func FocusSessionsToCSV(sessions []store.FocusSession, path string) error {
	rows := make([][]string, 0, len(sessions))
	for _, s := range sessions {
		taskID, ended := "", ""
		if s.TaskID != nil {
			taskID = *s.TaskID
		}
		if s.EndedAt != nil {
			ended = s.EndedAt.Local().Format(time.RFC3339)
		}
		rows = append(rows, []string{
			s.ID,
			s.Date,
			s.StartedAt.Local().Format(time.RFC3339),
			ended,
			strconv.Itoa(s.DurationMinutes),
			formatMinutes(s.DurationMinutes),
			strconv.FormatBool(s.IsCompleted),
			taskID,
		})
	}
	return writeCSV(path, []string{"ID", "Date", "Start", "End", "Duration (min)", "Duration", "Completed", "Task"}, rows)
}

func formatMinutes(mins int) string {
	return fmt.Sprintf("%02d:%02d", mins/60, mins%60)
}
