package dashboard

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
)

type stubQuery struct {
	kpi        func(KPIQuery) (KPIResult, error)
	timeSeries func(TimeSeriesQuery) (TimeSeriesResult, error)
	devices    func(DeviceListQuery) (DeviceListResult, error)
	aggregated func(AggregatedQuery) (AggregatedResult, error)
	calls      atomic.Int32

	mu       sync.Mutex
	lastKPI  KPIQuery
	lastList DeviceListQuery
}

func (s *stubQuery) KPI(_ context.Context, q KPIQuery) (KPIResult, error) {
	s.calls.Add(1)
	s.mu.Lock()
	s.lastKPI = q
	s.mu.Unlock()
	if s.kpi == nil {
		return KPIResult{}, nil
	}
	return s.kpi(q)
}

func (s *stubQuery) TimeSeries(_ context.Context, q TimeSeriesQuery) (TimeSeriesResult, error) {
	s.calls.Add(1)
	if s.timeSeries == nil {
		return TimeSeriesResult{}, nil
	}
	return s.timeSeries(q)
}

func (s *stubQuery) Realtime(context.Context, RealtimeQuery) (RealtimeResult, error) {
	s.calls.Add(1)
	return RealtimeResult{}, nil
}

func (s *stubQuery) DeviceList(_ context.Context, q DeviceListQuery) (DeviceListResult, error) {
	s.calls.Add(1)
	s.mu.Lock()
	s.lastList = q
	s.mu.Unlock()
	if s.devices == nil {
		return DeviceListResult{}, nil
	}
	return s.devices(q)
}

func (s *stubQuery) Aggregated(_ context.Context, q AggregatedQuery) (AggregatedResult, error) {
	s.calls.Add(1)
	if s.aggregated == nil {
		return AggregatedResult{}, nil
	}
	return s.aggregated(q)
}

func (s *stubQuery) lastKPIQuery() KPIQuery {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastKPI
}

type memoryStore struct {
	mu     sync.Mutex
	items  map[string]Dashboard
	nextID int
}

func newMemoryStore(dashboards ...Dashboard) *memoryStore {
	store := &memoryStore{items: map[string]Dashboard{}}
	for _, d := range dashboards {
		store.items[d.ID] = cloneDashboard(d)
	}
	return store
}

func cloneDashboard(d Dashboard) Dashboard {
	d.Widgets = append([]Widget(nil), d.Widgets...)
	d.Layout = append([]LayoutItem(nil), d.Layout...)
	return d
}

func (s *memoryStore) ListDashboards(_ context.Context, filter DashboardFilter) ([]Dashboard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Dashboard
	for _, d := range s.items {
		if filter.TemplatesOnly && !d.IsTemplate {
			continue
		}
		out = append(out, cloneDashboard(d))
	}
	return out, nil
}

func (s *memoryStore) GetDashboard(_ context.Context, id string) (Dashboard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.items[id]
	if !ok {
		return Dashboard{}, fmt.Errorf("%w: %s", ErrDashboardNotFound, id)
	}
	return cloneDashboard(d), nil
}

func (s *memoryStore) CreateDashboard(_ context.Context, d Dashboard) (Dashboard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		s.nextID++
		d.ID = fmt.Sprintf("dash-%d", s.nextID)
		if _, taken := s.items[d.ID]; !taken {
			break
		}
	}
	d.Version = 1
	s.items[d.ID] = cloneDashboard(d)
	return cloneDashboard(d), nil
}

func (s *memoryStore) UpdateDashboard(_ context.Context, d Dashboard) (Dashboard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[d.ID]; !ok {
		return Dashboard{}, fmt.Errorf("%w: %s", ErrDashboardNotFound, d.ID)
	}
	s.items[d.ID] = cloneDashboard(d)
	return cloneDashboard(d), nil
}

func (s *memoryStore) DeleteDashboard(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return fmt.Errorf("%w: %s", ErrDashboardNotFound, id)
	}
	delete(s.items, id)
	return nil
}

func (s *memoryStore) PublishDashboard(_ context.Context, id string) (Dashboard, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.items[id]
	if !ok {
		return Dashboard{}, fmt.Errorf("%w: %s", ErrDashboardNotFound, id)
	}
	d.IsPublished = true
	d.Version++
	s.items[id] = d
	return cloneDashboard(d), nil
}

func (s *memoryStore) DuplicateDashboard(ctx context.Context, id, name string) (Dashboard, error) {
	src, err := s.GetDashboard(ctx, id)
	if err != nil {
		return Dashboard{}, err
	}
	src.Name = name
	src.IsTemplate = false
	return s.CreateDashboard(ctx, src)
}

type recordingHook struct {
	mu     sync.Mutex
	events []WidgetEvent
}

func (h *recordingHook) WidgetUpdated(_ context.Context, event WidgetEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
	return nil
}

func (h *recordingHook) reasons() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.events))
	for i, e := range h.events {
		out[i] = e.Reason
	}
	return out
}

type recordingTelemetry struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingTelemetry) Record(_ context.Context, event string, _ map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingTelemetry) has(event string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e == event {
			return true
		}
	}
	return false
}

func f64(v float64) *float64 { return &v }
