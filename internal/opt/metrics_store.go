package opt

import "sync"

type runKey struct {
	RunID string
	Date  string
}

var (
	mu    sync.Mutex
	store = map[runKey]Metrics{}
)

func RecordMetrics(runID, date string, m Metrics) {
	mu.Lock()
	store[runKey{RunID: runID, Date: date}] = m
	mu.Unlock()
}

func GetMetrics(runID string) (Metrics, bool) {
	mu.Lock()
	defer mu.Unlock()
	for k, v := range store {
		if k.RunID == runID {
			return v, true
		}
	}
	return Metrics{}, false
}

func MetricsByDate(date string) map[string]Metrics {
	mu.Lock()
	defer mu.Unlock()
	out := map[string]Metrics{}
	for k, v := range store {
		if k.Date == date {
			out[k.RunID] = v
		}
	}
	return out
}
