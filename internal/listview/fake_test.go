package listview

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go-freight/internal/common/models"
)

type shipment struct {
	ID     string
	Party  string
	Status string
	Date   time.Time
}

func shipmentID(s shipment) string { return s.ID }

func matches(s shipment, c models.FilterCriteria) bool {
	if q := strings.TrimSpace(c.Search); q != "" {
		q = strings.ToLower(q)
		if !strings.Contains(strings.ToLower(s.ID), q) && !strings.Contains(strings.ToLower(s.Party), q) {
			return false
		}
	}
	if !c.DateFrom.IsZero() && s.Date.Before(c.DateFrom) {
		return false
	}
	if !c.DateTo.IsZero() && s.Date.After(c.DateTo.Add(24*time.Hour-time.Nanosecond)) {
		return false
	}
	if vals, ok := c.Categories["status"]; ok && len(vals) > 0 {
		found := false
		for _, v := range vals {
			if v == s.Status {
				found = true
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// memService is an in-memory SearchService over a fixed shipment list.
type memService struct {
	mu       sync.Mutex
	data     []shipment
	failNext error
	dropOne  bool
	searches int
	enums    int
	lastReq  models.ResolveRequest
}

func newMemService(n int) *memService {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	data := make([]shipment, 0, n)
	for i := 1; i <= n; i++ {
		status := "open"
		if i%2 == 0 {
			status = "delivered"
		}
		data = append(data, shipment{
			ID:     fmt.Sprintf("CN-%04d", i),
			Party:  fmt.Sprintf("Party %d", i%7),
			Status: status,
			Date:   base.AddDate(0, 0, i%30),
		})
	}
	return &memService{data: data}
}

func (m *memService) filter(c models.FilterCriteria) []shipment {
	var out []shipment
	for _, s := range m.data {
		if matches(s, c) {
			out = append(out, s)
		}
	}
	return out
}

func (m *memService) Search(ctx context.Context, c models.FilterCriteria, page, limit int) (models.PageResult[shipment], error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.searches++
	if err := m.failNext; err != nil {
		m.failNext = nil
		return models.PageResult[shipment]{}, err
	}
	all := m.filter(c)
	start := (page - 1) * limit
	end := start + limit
	if start > len(all) {
		start = len(all)
	}
	if end > len(all) {
		end = len(all)
	}
	return models.PageResult[shipment]{
		Items:      append([]shipment(nil), all[start:end]...),
		TotalItems: int64(len(all)),
		TotalPages: models.TotalPagesFor(int64(len(all)), limit),
	}, nil
}

func (m *memService) EnumerateIDs(ctx context.Context, c models.FilterCriteria) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enums++
	if err := m.failNext; err != nil {
		m.failNext = nil
		return nil, err
	}
	var ids []string
	for _, s := range m.filter(c) {
		ids = append(ids, s.ID)
	}
	return ids, nil
}

func (m *memService) Resolve(ctx context.Context, req models.ResolveRequest) ([]shipment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastReq = req
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var out []shipment
	if req.Filters != nil {
		excluded := map[string]bool{}
		for _, id := range req.ExcludeIDs {
			excluded[id] = true
		}
		for _, s := range m.filter(*req.Filters) {
			if !excluded[s.ID] {
				out = append(out, s)
			}
		}
	} else {
		want := map[string]bool{}
		for _, id := range req.IDs {
			want[id] = true
		}
		for _, s := range m.data {
			if want[s.ID] {
				out = append(out, s)
			}
		}
	}
	if m.dropOne && len(out) > 0 {
		out = out[1:]
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// gatedService blocks each Search until the test closes the gate of the
// requested page.
type gatedService struct {
	*memService
	mu    sync.Mutex
	gates map[int]chan struct{}
	seen  chan int
}

func newGatedService(n int) *gatedService {
	return &gatedService{
		memService: newMemService(n),
		gates:      map[int]chan struct{}{},
		seen:       make(chan int, 16),
	}
}

func (g *gatedService) gate(page int) chan struct{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.gates[page]
	if !ok {
		ch = make(chan struct{})
		g.gates[page] = ch
	}
	return ch
}

func (g *gatedService) Search(ctx context.Context, c models.FilterCriteria, page, limit int) (models.PageResult[shipment], error) {
	gate := g.gate(page)
	g.seen <- page
	<-gate
	// ctx is ignored so a superseded response still comes back late.
	return g.memService.Search(context.Background(), c, page, limit)
}

var errBackendDown = errors.New("connection refused")
