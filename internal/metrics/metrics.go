package metrics

import (
	"net/http"
	"strconv"
	"sync"
)

// Metrics tracks operational counters and gauges for the model lifecycle
// core, exported in Prometheus text format.
type Metrics struct {
	mu sync.RWMutex

	// Counters
	registrationsTotal map[string]int64
	activationsTotal   map[string]int64
	driftChecksTotal   map[string]int64
	driftDetectedTotal map[string]int64
	recordsTotal       map[string]int64
	alertsTotal        map[string]map[string]int64 // model -> kind -> count
	suppressedTotal    map[string]int64
	assignmentsTotal   map[string]map[string]int64 // test -> variant -> count

	// Gauges
	healthScore         map[string]float64
	driftScore          map[string]float64
	windowLength        map[string]int
	circuitBreakerState map[string]int // 0=closed, 1=open, 2=half-open
}

var (
	instance *Metrics
	once     sync.Once
)

func Get() *Metrics {
	once.Do(func() {
		instance = &Metrics{
			registrationsTotal: make(map[string]int64),
			activationsTotal:   make(map[string]int64),
			driftChecksTotal:   make(map[string]int64),
			driftDetectedTotal: make(map[string]int64),
			recordsTotal:       make(map[string]int64),
			alertsTotal:        make(map[string]map[string]int64),
			suppressedTotal:    make(map[string]int64),
			assignmentsTotal:   make(map[string]map[string]int64),
			healthScore:        make(map[string]float64),
			driftScore:         make(map[string]float64),
			windowLength:       make(map[string]int),
			circuitBreakerState: make(map[string]int),
		}
	})
	return instance
}

func (m *Metrics) IncRegistration(modelName string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.registrationsTotal[modelName]++
}

func (m *Metrics) IncActivation(modelName string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activationsTotal[modelName]++
}

func (m *Metrics) IncDriftCheck(modelName string, detected bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.driftChecksTotal[modelName]++
	if detected {
		m.driftDetectedTotal[modelName]++
	}
}

func (m *Metrics) IncRecord(modelName string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.recordsTotal[modelName]++
}

func (m *Metrics) IncAlert(modelName, kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.alertsTotal[modelName] == nil {
		m.alertsTotal[modelName] = make(map[string]int64)
	}
	m.alertsTotal[modelName][kind]++
}

func (m *Metrics) IncSuppressed(modelName string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.suppressedTotal[modelName]++
}

func (m *Metrics) IncAssignment(testID, variant string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.assignmentsTotal[testID] == nil {
		m.assignmentsTotal[testID] = make(map[string]int64)
	}
	m.assignmentsTotal[testID][variant]++
}

func (m *Metrics) SetHealthScore(modelName string, score float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.healthScore[modelName] = score
}

func (m *Metrics) SetDriftScore(modelName string, score float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.driftScore[modelName] = score
}

func (m *Metrics) SetWindowLength(modelName string, length int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.windowLength[modelName] = length
}

func (m *Metrics) SetCircuitBreakerState(name string, state int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.circuitBreakerState[name] = state
}

func (m *Metrics) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.mu.RLock()
		defer m.mu.RUnlock()

		w.Header().Set("Content-Type", "text/plain; charset=utf-8")

		for model, count := range m.registrationsTotal {
			writeMetric(w, "modelops_registrations_total", map[string]string{"model": model}, float64(count))
		}
		for model, count := range m.activationsTotal {
			writeMetric(w, "modelops_activations_total", map[string]string{"model": model}, float64(count))
		}
		for model, count := range m.driftChecksTotal {
			writeMetric(w, "modelops_drift_checks_total", map[string]string{"model": model}, float64(count))
		}
		for model, count := range m.driftDetectedTotal {
			writeMetric(w, "modelops_drift_detected_total", map[string]string{"model": model}, float64(count))
		}
		for model, count := range m.recordsTotal {
			writeMetric(w, "modelops_performance_records_total", map[string]string{"model": model}, float64(count))
		}
		for model, kinds := range m.alertsTotal {
			for kind, count := range kinds {
				writeMetric(w, "modelops_alerts_total", map[string]string{"model": model, "kind": kind}, float64(count))
			}
		}
		for model, count := range m.suppressedTotal {
			writeMetric(w, "modelops_alerts_suppressed_total", map[string]string{"model": model}, float64(count))
		}
		for test, variants := range m.assignmentsTotal {
			for variant, count := range variants {
				writeMetric(w, "modelops_ab_assignments_total", map[string]string{"test_id": test, "variant": variant}, float64(count))
			}
		}
		for model, score := range m.healthScore {
			writeMetric(w, "modelops_health_score", map[string]string{"model": model}, score)
		}
		for model, score := range m.driftScore {
			writeMetric(w, "modelops_drift_score", map[string]string{"model": model}, score)
		}
		for model, length := range m.windowLength {
			writeMetric(w, "modelops_window_length", map[string]string{"model": model}, float64(length))
		}
		for name, state := range m.circuitBreakerState {
			writeMetric(w, "modelops_circuit_breaker_state", map[string]string{"name": name}, float64(state))
		}
	})
}

func writeMetric(w http.ResponseWriter, name string, labels map[string]string, value float64) {
	labelStr := ""
	if len(labels) > 0 {
		labelStr = "{"
		first := true
		for k, v := range labels {
			if !first {
				labelStr += ","
			}
			labelStr += k + `="` + v + `"`
			first = false
		}
		labelStr += "}"
	}
	w.Write([]byte(name + labelStr + " " + strconv.FormatFloat(value, 'f', -1, 64) + "\n"))
}
