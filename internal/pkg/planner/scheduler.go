package planner

import (
	"github.com/airenas/bpoc/internal/pkg/cmdapp"
	"github.com/airenas/bpoc/internal/pkg/planner/api"
	"github.com/pkg/errors"
)

//Scheduler is the adaptive greedy planner.
//Not safe for concurrent use: one instance serves one simulation run
type Scheduler struct {
	stats *Statistics
	busy  map[api.Resource]api.Task
}

//Option configures Scheduler
type Option func(*options)

type options struct {
	windowSize int
}

//WithWindowSize overrides the number of durations kept per (task type, resource)
func WithWindowSize(n int) Option {
	return func(o *options) {
		o.windowSize = n
	}
}

//NewScheduler creates scheduler for the static resource pool
func NewScheduler(pool api.Pool, opts ...Option) (*Scheduler, error) {
	o := &options{windowSize: DefaultWindowSize}
	for _, f := range opts {
		f(o)
	}
	st, err := NewStatistics(pool, o.windowSize)
	if err != nil {
		return nil, err
	}
	return &Scheduler{stats: st, busy: make(map[api.Resource]api.Task)}, nil
}

//Decide returns assignments for one decision round. Input slices are not modified,
//repeated resources or tasks are taken once
func (s *Scheduler) Decide(idle []api.Resource, waiting []api.Task) (*api.Decision, error) {
	idle = uniqueResources(idle)
	waiting = uniqueTasks(waiting)
	for _, t := range waiting {
		if err := s.stats.ensureWindows(t.Type); err != nil {
			return nil, errors.Wrapf(err, "task %s", t)
		}
	}
	var as []api.Assignment
	var err error
	if len(idle) == 1 {
		as = s.decideSingle(idle[0], waiting)
	} else if len(idle) > 1 && len(waiting) > 0 {
		as, err = s.decideGreedy(idle, waiting)
		if err != nil {
			return nil, err
		}
	}
	cmdapp.Log.Debugf("Decided %d assignments for %d idle, %d waiting", len(as), len(idle), len(waiting))
	return newDecision(as, idle, waiting), nil
}

func (s *Scheduler) decideSingle(r api.Resource, waiting []api.Task) []api.Assignment {
	var best *api.Task
	for i := range waiting {
		t := &waiting[i]
		if !s.stats.Eligible(t.Type, r) {
			continue
		}
		if best == nil || s.singleLess(t, best) {
			best = t
		}
	}
	if best == nil {
		return nil
	}
	return []api.Assignment{{Task: *best, Resource: r}}
}

func (s *Scheduler) singleLess(a, b *api.Task) bool {
	ab, bb := s.stats.TaskTypeBreadth(a.Type), s.stats.TaskTypeBreadth(b.Type)
	if ab != bb {
		return ab < bb
	}
	return a.CaseID < b.CaseID
}

func (s *Scheduler) decideGreedy(idle []api.Resource, waiting []api.Task) ([]api.Assignment, error) {
	working := append([]api.Task{}, waiting...)
	table, working, err := buildCandidates(s.stats, idle, working)
	if err != nil {
		return nil, err
	}
	return assign(s.stats, table, idle, working)
}

//Statistics returns a snapshot of the collected statistics
func (s *Scheduler) Statistics() *Snapshot {
	return s.stats.Snapshot()
}

func newDecision(as []api.Assignment, idle []api.Resource, waiting []api.Task) *api.Decision {
	usedR := make(map[api.Resource]bool, len(as))
	usedT := make(map[api.Task]bool, len(as))
	for _, a := range as {
		usedR[a.Resource] = true
		usedT[a.Task] = true
	}
	res := &api.Decision{Assignments: as, Idle: []api.Resource{}, Waiting: []api.Task{}}
	if res.Assignments == nil {
		res.Assignments = []api.Assignment{}
	}
	for _, r := range idle {
		if !usedR[r] {
			res.Idle = append(res.Idle, r)
		}
	}
	for _, t := range waiting {
		if usedT[t] {
			delete(usedT, t)
			continue
		}
		res.Waiting = append(res.Waiting, t)
	}
	return res
}

func uniqueResources(rs []api.Resource) []api.Resource {
	res := make([]api.Resource, 0, len(rs))
	seen := make(map[api.Resource]bool, len(rs))
	for _, r := range rs {
		if !seen[r] {
			seen[r] = true
			res = append(res, r)
		}
	}
	return res
}

func uniqueTasks(ts []api.Task) []api.Task {
	res := make([]api.Task, 0, len(ts))
	seen := make(map[api.Task]bool, len(ts))
	for _, t := range ts {
		if !seen[t] {
			seen[t] = true
			res = append(res, t)
		}
	}
	return res
}
