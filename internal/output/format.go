// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"taskdesk/internal/service"
)

// detailIndent lines detail text up under the task name.
const detailIndent = "             "

// FormatTask formats a task line for the task list, followed by a detail
// line when the task has a description or an assignee.
// Format: "{N:>4}  {PROGRESS:>4}%  {NAME}[  due {DATE}]\n"
// Detail: "{INDENT}[{DESCRIPTION}][  ]assigned to {ASSIGNEE}\n"
func FormatTask(w io.Writer, num int, task service.Task) {
	fmt.Fprintf(w, "%4d  %4s%%  %s", num, FormatProgress(task.Progress), normalizeName(task.Name))
	if due := strings.TrimSpace(task.DueDate); due != "" {
		fmt.Fprintf(w, "  due %s", FormatDate(due))
	}
	fmt.Fprintln(w)

	if detail := TaskDetail(task); detail != "" {
		fmt.Fprintf(w, "%s%s\n", detailIndent, detail)
	}
}

// TaskDetail joins a task's description and assignee into one line, "" when
// it has neither.
func TaskDetail(task service.Task) string {
	var parts []string
	if desc := oneLine(task.Description); desc != "" {
		parts = append(parts, desc)
	}
	if who := oneLine(task.Assignee); who != "" {
		parts = append(parts, "assigned to "+who)
	}
	return strings.Join(parts, "  ")
}

// FormatOrganization formats an organization line.
// Format: "{N:>4}  {NAME}  [{TYPE}/{CODE}]\n"
func FormatOrganization(w io.Writer, num int, org service.Organization) {
	fmt.Fprintf(w, "%4d  %s  [%s/%s]\n", num, normalizeName(org.Name), dash(org.Type), dash(org.Code))
}

// FormatEvent formats one live event for the watch command.
// Format: "{EVENT:<8}  {ID}  {NAME}\n"
func FormatEvent(w io.Writer, event string, task service.Task) {
	kind := strings.TrimPrefix(event, "task-")
	fmt.Fprintf(w, "%-8s  %s  %s\n", kind, dash(task.ID), normalizeName(task.Name))
}

// FormatProgress renders a progress value without trailing zeros.
func FormatProgress(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}

// FormatDate trims an ISO timestamp to its date part. Anything else is
// returned unchanged.
func FormatDate(s string) string {
	if len(s) > 10 && s[4] == '-' && s[7] == '-' && s[10] == 'T' {
		return s[:10]
	}
	return s
}

// normalizeName normalizes a record name for display.
// - Empty or whitespace-only names become "(untitled)"
// - Newlines are replaced with spaces
func normalizeName(name string) string {
	name = strings.ReplaceAll(name, "\r", " ")
	name = strings.ReplaceAll(name, "\n", " ")

	if strings.TrimSpace(name) == "" {
		return "(untitled)"
	}
	return name
}

func oneLine(s string) string {
	return strings.TrimSpace(strings.NewReplacer("\r", " ", "\n", " ").Replace(s))
}

func dash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
