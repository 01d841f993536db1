package ingest

import "sync"

// A DependencyGroup lets a task (a csv.Reader fan-in, an Unzipper, ...) block its
// Start until a set of other Controllers have finished, without the task
// having to know how many dependencies it has ahead of time.
//
// SetCtrls may be called zero or more times before Wait; each call adds
// to the set of Controllers that must finish.
type DependencyGroup struct {
	mu    sync.Mutex
	ctrls []*Controller
}

// NewDependencyGroup builds an empty DependencyGroup.
func NewDependencyGroup() *DependencyGroup {
	return &DependencyGroup{}
}

// SetCtrls registers additional Controllers that Wait must block on.
func (d *DependencyGroup) SetCtrls(ctrls ...*Controller) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.ctrls = append(d.ctrls, ctrls...)
}

// Wait blocks until every registered Controller has finished all of its
// workers. Calling Wait with no registered Controllers returns immediately.
func (d *DependencyGroup) Wait() {
	d.mu.Lock()
	ctrls := make([]*Controller, len(d.ctrls))
	copy(ctrls, d.ctrls)
	d.mu.Unlock()

	for _, ctrl := range ctrls {
		ctrl.Wait()
	}
}
