package commands

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"taskdesk/internal/service"
)

// idPrefix forces a reference to be read as a server id.
const idPrefix = "id:"

// Ref is a parsed record reference: either a 1-based number as printed by
// orgs/tasks, or a server id.
type Ref struct {
	Num int
	ID  string
}

func (r Ref) String() string {
	if r.ID != "" {
		return idPrefix + r.ID
	}
	return strconv.Itoa(r.Num)
}

// ErrRefRequired indicates no reference was provided.
var ErrRefRequired = errors.New("reference required")

// ParseRef parses the reference in args.
//
// Parsing rules:
// 1. "id:<id>" → server id (lets an all-digit id through)
// 2. all digits → list number, must be >= 1
// 3. anything else → server id
// Exactly one argument is accepted.
func ParseRef(args []string) (Ref, error) {
	if len(args) == 0 {
		return Ref{}, ErrRefRequired
	}
	if len(args) > 1 {
		return Ref{}, fmt.Errorf("unexpected argument: %s", args[1])
	}

	arg := strings.TrimSpace(args[0])
	if arg == "" {
		return Ref{}, ErrRefRequired
	}

	if strings.HasPrefix(arg, idPrefix) {
		id := strings.TrimSpace(strings.TrimPrefix(arg, idPrefix))
		if id == "" {
			return Ref{}, fmt.Errorf("invalid reference: %s", arg)
		}
		return Ref{ID: id}, nil
	}

	if isAllDigits(arg) {
		num, err := strconv.Atoi(arg)
		if err != nil || num < 1 {
			return Ref{}, fmt.Errorf("invalid reference: %s", arg)
		}
		return Ref{Num: num}, nil
	}

	return Ref{ID: arg}, nil
}

// isAllDigits returns true if s consists only of ASCII digits and is non-empty.
func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r > unicode.MaxASCII || !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}

// resolve finds the record ref points at in list.
func resolve[T any](list []T, ref Ref, id func(T) string) (T, error) {
	var zero T
	if ref.ID != "" {
		for _, rec := range list {
			if id(rec) == ref.ID {
				return rec, nil
			}
		}
		return zero, fmt.Errorf("%w: %s", service.ErrNotFound, ref)
	}
	if ref.Num < 1 || ref.Num > len(list) {
		return zero, fmt.Errorf("%w: number out of range: %d", service.ErrNotFound, ref.Num)
	}
	return list[ref.Num-1], nil
}

// ResolveTask finds the task ref points at.
func ResolveTask(tasks []service.Task, ref Ref) (service.Task, error) {
	return resolve(tasks, ref, func(t service.Task) string { return t.ID })
}

// ResolveOrganization finds the organization ref points at.
func ResolveOrganization(orgs []service.Organization, ref Ref) (service.Organization, error) {
	return resolve(orgs, ref, func(o service.Organization) string { return o.ID })
}
