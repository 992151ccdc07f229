package service

import (
	"bytes"
	"encoding/json"
)

// Credentials is the login request body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"pass"`
}

// Organization is a server-owned organization record.
type Organization struct {
	ID   string `json:"_id,omitempty"`
	Name string `json:"nombre"`
	Type string `json:"tipo"`
	Code string `json:"codigo"`
}

// Fields returns the editable part of the record.
func (o Organization) Fields() OrganizationFields {
	return OrganizationFields{Name: o.Name, Type: o.Type, Code: o.Code}
}

// OrganizationFields is the create body and the full replacement body for
// updates.
type OrganizationFields struct {
	Name string `json:"nombre"`
	Type string `json:"tipo"`
	Code string `json:"codigo"`
}

// IsZero reports whether every field is empty.
func (f OrganizationFields) IsZero() bool {
	return f == OrganizationFields{}
}

// Task is a server-owned task record. A decoded task remembers the record
// it came from, so encoding it again keeps the fields this type does not
// model.
type Task struct {
	ID           string  `json:"_id,omitempty"`
	Name         string  `json:"nombre"`
	Description  string  `json:"descripcion"`
	Progress     float64 `json:"progresion"`
	DueDate      string  `json:"fechaFinalizacion"`
	DepartmentID string  `json:"DepartmentId"`
	Assignee     string  `json:"Asignado,omitempty"`

	// raw is the JSON object the task was decoded from, "" for tasks built
	// in code. Kept as a string so Task stays comparable.
	raw string
}

type taskRecord Task

// UnmarshalJSON implements json.Unmarshaler.
func (t *Task) UnmarshalJSON(data []byte) error {
	var rec taskRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return err
	}
	*t = Task(rec)
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		t.raw = string(trimmed)
	}
	return nil
}

// MarshalJSON implements json.Marshaler. Fields of the original record are
// written back unchanged except the modeled ones, which carry the current
// values. A modeled field absent from the original is only added when set.
func (t Task) MarshalJSON() ([]byte, error) {
	rec := taskRecord(t)
	rec.raw = ""
	data, err := json.Marshal(rec)
	if err != nil || t.raw == "" {
		return data, err
	}

	var orig map[string]json.RawMessage
	if err := json.Unmarshal([]byte(t.raw), &orig); err != nil {
		return nil, err
	}
	var modeled map[string]json.RawMessage
	if err := json.Unmarshal(data, &modeled); err != nil {
		return nil, err
	}
	for k, v := range modeled {
		if _, ok := orig[k]; ok || !zeroJSON(v) {
			orig[k] = v
		}
	}
	return json.Marshal(orig)
}

func zeroJSON(v json.RawMessage) bool {
	switch string(v) {
	case `""`, `0`, `null`:
		return true
	}
	return false
}

// TaskFields is the create body for a task.
type TaskFields struct {
	Name         string  `json:"nombre"`
	Description  string  `json:"descripcion"`
	Progress     float64 `json:"progresion"`
	DueDate      string  `json:"fechaFinalizacion"`
	DepartmentID string  `json:"DepartmentId"`
}
