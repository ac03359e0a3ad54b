package health

import "sync"

// runIDTracker 记录最近一次观察到的Redis run_id，用于识别Redis重启
type runIDTracker struct {
	mu             sync.Mutex
	lastKnownRunID string
}

// observe 记录新的run_id，返回Redis是否在两次观察之间重启过
func (t *runIDTracker) observe(runID string) (restarted bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	restarted = t.lastKnownRunID != "" && t.lastKnownRunID != runID
	t.lastKnownRunID = runID
	return restarted
}
