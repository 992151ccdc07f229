package views

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"taskdesk/internal/live"
	"taskdesk/internal/service"
)

// ProgressStep is what the progress operation adds to a task.
const ProgressStep = 10

// TaskOptions configures a Tasks view.
type TaskOptions struct {
	// SelfNotify makes local changes visible only through their echo on the
	// live channel. When false, changes are applied as soon as the request
	// succeeds and echoes are matched by id.
	SelfNotify bool
}

// TasksState is a copy of the task screen.
type TasksState struct {
	Loading bool
	// Err is the initial fetch failure, nil otherwise.
	Err  error
	List []service.Task
}

// Tasks is the task list kept in sync with the live channel.
type Tasks struct {
	notifier

	svc    service.Service
	ch     live.Channel
	logger *slog.Logger
	opts   TaskOptions

	mu      sync.Mutex
	loading bool
	err     error
	list    []service.Task

	// Mount state. gen changes on every Mount and Unmount so handlers and
	// responses from an older mount can tell they are stale.
	gen     int
	mounted bool
	viewCtx context.Context
	cancel  context.CancelFunc
	subs    []live.Subscription
	ready   chan struct{}
}

var settled = func() chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}()

// NewTasks returns an unmounted task view listening on ch.
func NewTasks(svc service.Service, ch live.Channel, logger *slog.Logger, opts TaskOptions) *Tasks {
	return &Tasks{
		svc:     svc,
		ch:      ch,
		logger:  orDiscard(logger),
		opts:    opts,
		loading: true,
		ready:   settled,
	}
}

// Snapshot returns a copy of the current state.
func (v *Tasks) Snapshot() TasksState {
	v.mu.Lock()
	defer v.mu.Unlock()
	list := make([]service.Task, len(v.list))
	copy(list, v.list)
	return TasksState{Loading: v.loading, Err: v.err, List: list}
}

// Find returns the listed task with id.
func (v *Tasks) Find(id string) (service.Task, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if i := v.indexLocked(id); i >= 0 {
		return v.list[i], true
	}
	return service.Task{}, false
}

// Ready is closed once the initial fetch of the current mount has settled.
func (v *Tasks) Ready() <-chan struct{} {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.ready
}

// Mount subscribes to the three task events and starts the initial fetch in
// the background. Mounting a mounted view does nothing.
func (v *Tasks) Mount(ctx context.Context) {
	v.mu.Lock()
	if v.mounted {
		v.mu.Unlock()
		return
	}
	v.gen++
	gen := v.gen
	v.mounted = true
	v.loading = true
	v.err = nil
	v.viewCtx, v.cancel = context.WithCancel(ctx)
	fetchCtx := v.viewCtx
	ready := make(chan struct{})
	v.ready = ready
	v.subs = []live.Subscription{
		v.ch.On(live.TaskCreated, v.handler(gen, v.applyCreated)),
		v.ch.On(live.TaskUpdated, v.handler(gen, v.applyUpdated)),
		v.ch.On(live.TaskDeleted, v.handler(gen, v.applyDeleted)),
	}
	v.mu.Unlock()

	go v.fetch(fetchCtx, gen, ready)
}

func (v *Tasks) fetch(ctx context.Context, gen int, ready chan struct{}) {
	defer close(ready)

	tasks, err := v.svc.ListTasks(ctx)

	v.mu.Lock()
	if v.gen != gen {
		v.mu.Unlock()
		return
	}
	v.loading = false
	if err != nil {
		v.err = err
	} else {
		v.list = tasks
	}
	v.mu.Unlock()

	if err != nil {
		v.logger.Error("failed to fetch tasks", "err", err)
	}
	v.changed()
}

// Unmount releases each subscription once and cancels requests still in
// flight. Events or responses arriving later leave the state alone.
func (v *Tasks) Unmount() {
	v.mu.Lock()
	if !v.mounted {
		v.mu.Unlock()
		return
	}
	v.mounted = false
	v.gen++
	subs := v.subs
	v.subs = nil
	cancel := v.cancel
	v.cancel = nil
	v.viewCtx = nil
	v.mu.Unlock()

	for _, sub := range subs {
		v.ch.Off(sub)
	}
	cancel()
}

// handler decodes an event payload and applies it if the mount that
// subscribed is still current.
func (v *Tasks) handler(gen int, apply func(service.Task)) live.Handler {
	return func(payload json.RawMessage) {
		var t service.Task
		if err := json.Unmarshal(payload, &t); err != nil {
			v.logger.Error("malformed task event", "err", err)
			return
		}
		v.mu.Lock()
		if v.gen != gen {
			v.mu.Unlock()
			return
		}
		apply(t)
		v.mu.Unlock()
		v.changed()
	}
}

func (v *Tasks) indexLocked(id string) int {
	for i, t := range v.list {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// applyCreated appends t. Outside self-notify mode a record already listed
// (our own change echoed back) is replaced instead.
func (v *Tasks) applyCreated(t service.Task) {
	if !v.opts.SelfNotify && t.ID != "" {
		if i := v.indexLocked(t.ID); i >= 0 {
			v.list[i] = t
			return
		}
	}
	v.list = append(v.list, t)
}

func (v *Tasks) applyUpdated(t service.Task) {
	if i := v.indexLocked(t.ID); i >= 0 {
		v.list[i] = t
	}
}

func (v *Tasks) applyDeleted(t service.Task) {
	kept := v.list[:0]
	for _, e := range v.list {
		if e.ID != t.ID {
			kept = append(kept, e)
		}
	}
	v.list = kept
}

// scope ties a request to the current mount so Unmount cancels it. It
// returns the mount generation the request belongs to, or -1 when unmounted.
func (v *Tasks) scope(ctx context.Context) (context.Context, context.CancelFunc, int) {
	v.mu.Lock()
	viewCtx, gen, mounted := v.viewCtx, v.gen, v.mounted
	v.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	if !mounted {
		return ctx, cancel, -1
	}
	stop := context.AfterFunc(viewCtx, cancel)
	return ctx, func() { stop(); cancel() }, gen
}

// commit applies a successful local change unless the view was unmounted or
// remounted meanwhile, or self-notify leaves it to the echo.
func (v *Tasks) commit(gen int, apply func(service.Task), t service.Task) {
	if v.opts.SelfNotify {
		return
	}
	v.mu.Lock()
	if gen < 0 || v.gen != gen {
		v.mu.Unlock()
		return
	}
	apply(t)
	v.mu.Unlock()
	v.changed()
}

// announce emits a change on the live channel. Failures are logged only.
func (v *Tasks) announce(ctx context.Context, event string, t service.Task) {
	if err := v.ch.Emit(ctx, event, t); err != nil {
		v.logger.Error("failed to announce task change", "event", event, "id", t.ID, "err", err)
	}
}

// Create posts a new task and announces it on task-created.
func (v *Tasks) Create(ctx context.Context, fields service.TaskFields) (service.Task, error) {
	ctx, cancel, gen := v.scope(ctx)
	defer cancel()

	t, err := v.svc.CreateTask(ctx, fields)
	if err != nil {
		v.logger.Error("failed to create task", "err", err)
		return service.Task{}, err
	}

	v.commit(gen, v.applyCreated, t)
	v.announce(ctx, live.TaskCreated, t)
	return t, nil
}

// Update is the progress operation: the listed task id gets ProgressStep
// added to its progress and is saved as a whole. Returns
// service.ErrNotFound without a request when id is not listed.
func (v *Tasks) Update(ctx context.Context, id string) (service.Task, error) {
	t, ok := v.Find(id)
	if !ok {
		return service.Task{}, service.ErrNotFound
	}
	t.Progress += ProgressStep

	ctx, cancel, gen := v.scope(ctx)
	defer cancel()

	saved, err := v.svc.UpdateTask(ctx, t)
	if err != nil {
		v.logger.Error("failed to update task", "id", id, "err", err)
		return service.Task{}, err
	}
	if saved.ID == "" {
		saved = t
	}

	v.commit(gen, v.applyUpdated, saved)
	v.announce(ctx, live.TaskUpdated, saved)
	return saved, nil
}

// Delete removes the task id and announces it on task-deleted.
func (v *Tasks) Delete(ctx context.Context, id string) (service.Task, error) {
	ctx, cancel, gen := v.scope(ctx)
	defer cancel()

	t, err := v.svc.DeleteTask(ctx, id)
	if err != nil {
		v.logger.Error("failed to delete task", "id", id, "err", err)
		return service.Task{}, err
	}
	if t.ID == "" {
		t.ID = id
	}

	v.commit(gen, v.applyDeleted, t)
	v.announce(ctx, live.TaskDeleted, t)
	return t, nil
}
