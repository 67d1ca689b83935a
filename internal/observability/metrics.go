package observability

import (
	"strconv"
	"sync"
	"time"
)

// Metrics provides basic in-memory counters.
type Metrics struct {
	mu            sync.Mutex
	requestCount  map[string]int64
	errorCount    map[string]int64
	assignments   map[string]int64
	deliveriesOK  map[string]int64
	deliveriesErr map[string]int64
}

// NewMetrics initializes metrics storage.
func NewMetrics() *Metrics {
	return &Metrics{
		requestCount:  make(map[string]int64),
		errorCount:    make(map[string]int64),
		assignments:   make(map[string]int64),
		deliveriesOK:  make(map[string]int64),
		deliveriesErr: make(map[string]int64),
	}
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + strconv.Itoa(status)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requestCount[key]++
}

// RecordError increments error counters.
func (m *Metrics) RecordError(path, method, code string) {
	if m == nil {
		return
	}
	key := path + "|" + method + "|" + code
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorCount[key]++
}

// RecordAssignment counts tasks routed to a staff member.
func (m *Metrics) RecordAssignment(staffID string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.assignments[staffID]++
}

// RecordDelivery counts notification delivery outcomes by type.
func (m *Metrics) RecordDelivery(notificationType string, succeeded, failed int) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deliveriesOK[notificationType] += int64(succeeded)
	m.deliveriesErr[notificationType] += int64(failed)
}

// Snapshot returns a copy of all counters for reporting endpoints.
func (m *Metrics) Snapshot() map[string]map[string]int64 {
	if m == nil {
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return map[string]map[string]int64{
		"requests":             cloneCounters(m.requestCount),
		"errors":               cloneCounters(m.errorCount),
		"assignments":          cloneCounters(m.assignments),
		"deliveries_succeeded": cloneCounters(m.deliveriesOK),
		"deliveries_failed":    cloneCounters(m.deliveriesErr),
	}
}

func cloneCounters(src map[string]int64) map[string]int64 {
	dst := make(map[string]int64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
