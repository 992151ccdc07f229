package rest

import (
	"encoding/json"
	"fmt"

	"taskdesk/internal/service"
)

type organizationEnvelope struct {
	Organization service.Organization `json:"organization"`
}

// decodeOrganizations accepts either {"organizations": [...]} or a bare array.
func decodeOrganizations(raw json.RawMessage) ([]service.Organization, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var list []service.Organization
	if err := json.Unmarshal(raw, &list); err == nil {
		return list, nil
	}

	var env struct {
		Organizations []service.Organization `json:"organizations"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid organization list: %w", err)
	}
	return env.Organizations, nil
}

// decodeTask accepts either a bare task record or {"task": {...}}.
func decodeTask(raw json.RawMessage) (service.Task, error) {
	if len(raw) == 0 {
		return service.Task{}, nil
	}
	var env struct {
		Task *service.Task `json:"task"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return service.Task{}, fmt.Errorf("invalid task: %w", err)
	}
	if env.Task != nil {
		return *env.Task, nil
	}

	var task service.Task
	if err := json.Unmarshal(raw, &task); err != nil {
		return service.Task{}, fmt.Errorf("invalid task: %w", err)
	}
	return task, nil
}
