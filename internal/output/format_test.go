package output

import (
	"bytes"
	"testing"

	"taskdesk/internal/service"
)

func TestFormatTask(t *testing.T) {
	tests := []struct {
		name string
		num  int
		task service.Task
		want string
	}{
		{
			name: "with due date",
			num:  1,
			task: service.Task{Name: "Write report", Progress: 40, DueDate: "2024-05-01T00:00:00.000Z"},
			want: "   1    40%  Write report  due 2024-05-01\n",
		},
		{
			name: "fractional progress, no due date",
			num:  12,
			task: service.Task{Name: "Review", Progress: 12.5},
			want: "  12  12.5%  Review\n",
		},
		{
			name: "over a hundred",
			num:  3,
			task: service.Task{Name: "Stretch", Progress: 110, DueDate: "next week"},
			want: "   3   110%  Stretch  due next week\n",
		},
		{
			name: "description and assignee",
			num:  4,
			task: service.Task{Name: "Ship", Progress: 40, Description: "cut the\nrelease", Assignee: "ana"},
			want: "   4    40%  Ship\n             cut the release  assigned to ana\n",
		},
		{
			name: "assignee only",
			num:  5,
			task: service.Task{Name: "Ship", Progress: 40, Assignee: "ana", Description: "  "},
			want: "   5    40%  Ship\n             assigned to ana\n",
		},
		{
			name: "untitled with newline",
			num:  2,
			task: service.Task{Name: " \n "},
			want: "   2     0%  (untitled)\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			FormatTask(&buf, tt.num, tt.task)
			if buf.String() != tt.want {
				t.Errorf("expected %q, got %q", tt.want, buf.String())
			}
		})
	}
}

func TestFormatOrganization(t *testing.T) {
	var buf bytes.Buffer
	FormatOrganization(&buf, 1, service.Organization{ID: "9", Name: "Acme", Type: "corp", Code: "A1"})
	FormatOrganization(&buf, 2, service.Organization{ID: "10", Name: "Line\nBreak"})

	want := "   1  Acme  [corp/A1]\n   2  Line Break  [-/-]\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}

func TestFormatEvent(t *testing.T) {
	var buf bytes.Buffer
	FormatEvent(&buf, "task-created", service.Task{ID: "2", Name: "B"})
	FormatEvent(&buf, "task-deleted", service.Task{ID: "1"})

	want := "created   2  B\ndeleted   1  (untitled)\n"
	if buf.String() != want {
		t.Errorf("expected %q, got %q", want, buf.String())
	}
}
