// AngelaMos | 2026
// fake_test.go

package joborder

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/carterperez-dev/joborders/internal/core"
	"github.com/carterperez-dev/joborders/internal/user"
)

// memRepo is an in-memory Repository enforcing number uniqueness the way
// the database index does.
type memRepo struct {
	mu       sync.Mutex
	orders   map[string]JobOrder
	names    map[string]string
	staleMax bool
}

func newMemRepo() *memRepo {
	return &memRepo{orders: map[string]JobOrder{}, names: map[string]string{}}
}

func (m *memRepo) Create(_ context.Context, jo *JobOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.orders {
		if existing.Number == jo.Number {
			return ErrNumberConflict
		}
	}
	jo.UpdatedAt = jo.CreatedAt
	m.orders[jo.ID] = *jo
	return nil
}

func (m *memRepo) GetByID(_ context.Context, id string) (*JobOrder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	jo, ok := m.orders[id]
	if !ok {
		return nil, core.ErrNotFound
	}
	jo.Assignees = Assignees{
		EngineerName:   m.name(jo.EngineerID),
		SupervisorName: m.name(jo.SupervisorID),
		ManagerName:    m.name(jo.ManagerID),
	}
	return &jo, nil
}

func (m *memRepo) name(id *string) *string {
	if id == nil {
		return nil
	}
	if n, ok := m.names[*id]; ok {
		return &n
	}
	return nil
}

func (m *memRepo) Update(_ context.Context, jo *JobOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.orders[jo.ID]; !ok {
		return core.ErrNotFound
	}
	jo.UpdatedAt = time.Now()
	m.orders[jo.ID] = *jo
	return nil
}

func (m *memRepo) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.orders[id]; !ok {
		return core.ErrNotFound
	}
	delete(m.orders, id)
	return nil
}

func (m *memRepo) List(_ context.Context, params ListParams) ([]JobOrder, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	all := make([]JobOrder, 0, len(m.orders))
	for _, jo := range m.orders {
		if params.Status != "" && jo.Status != params.Status {
			continue
		}
		all = append(all, jo)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	end := params.Offset() + params.PageSize
	if end > len(all) {
		end = len(all)
	}
	if params.Offset() >= len(all) {
		return []JobOrder{}, len(all), nil
	}
	return all[params.Offset():end], len(all), nil
}

// LatestNumberBetween returns "" when staleMax is set, imitating a
// concurrent create that has not committed yet.
func (m *memRepo) LatestNumberBetween(_ context.Context, from, to time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.staleMax {
		return "", nil
	}

	var latest *JobOrder
	for id := range m.orders {
		jo := m.orders[id]
		if jo.CreatedAt.Before(from) || !jo.CreatedAt.Before(to) {
			continue
		}
		if latest == nil || jo.CreatedAt.After(latest.CreatedAt) ||
			(jo.CreatedAt.Equal(latest.CreatedAt) && jo.Number > latest.Number) {
			latest = &jo
		}
	}
	if latest == nil {
		return "", nil
	}
	return latest.Number, nil
}

func (m *memRepo) Count(context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.orders), nil
}

type fakeUsers struct {
	known map[string]string
}

func (f *fakeUsers) AllExist(_ context.Context, ids []string) (bool, error) {
	for _, id := range ids {
		if _, ok := f.known[id]; !ok {
			return false, nil
		}
	}
	return true, nil
}

func (f *fakeUsers) ListBrief(context.Context) ([]user.Brief, error) {
	out := make([]user.Brief, 0, len(f.known))
	for id, name := range f.known {
		out = append(out, user.Brief{ID: id, Name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type sentNotification struct {
	userID, title, body, kind string
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (r *recordingNotifier) Notify(_ context.Context, userID, title, body, kind string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentNotification{userID, title, body, kind})
	return nil
}

func (r *recordingNotifier) recipients() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.sent))
	for _, n := range r.sent {
		out = append(out, n.userID)
	}
	return out
}
