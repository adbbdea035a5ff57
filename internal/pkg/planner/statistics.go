package planner

import (
	"sort"

	"github.com/airenas/bpoc/internal/pkg/planner/api"
	"github.com/pkg/errors"
)

//Statistics keeps static eligibility breadth and observed execution durations
type Statistics struct {
	pool          api.Pool
	windowSize    int
	typeBreadth   map[api.TaskType]int
	resBreadth    map[api.Resource]int
	windows       map[api.TaskType]map[api.Resource]*window
	eligibleCache map[api.TaskType]map[api.Resource]bool
}

//NewStatistics computes breadth indices for the pool
func NewStatistics(pool api.Pool, windowSize int) (*Statistics, error) {
	if err := pool.Validate(); err != nil {
		return nil, errors.Wrap(err, "Wrong resource pool")
	}
	if windowSize < 1 {
		return nil, errors.Errorf("Wrong window size %d", windowSize)
	}
	res := &Statistics{windowSize: windowSize}
	res.pool = make(api.Pool, len(pool))
	res.typeBreadth = make(map[api.TaskType]int, len(pool))
	res.resBreadth = make(map[api.Resource]int)
	res.windows = make(map[api.TaskType]map[api.Resource]*window)
	res.eligibleCache = make(map[api.TaskType]map[api.Resource]bool, len(pool))
	for t, rs := range pool {
		el := make(map[api.Resource]bool, len(rs))
		ur := make([]api.Resource, 0, len(rs))
		for _, r := range rs {
			if el[r] {
				continue
			}
			el[r] = true
			ur = append(ur, r)
			res.resBreadth[r]++
		}
		res.pool[t] = ur
		res.eligibleCache[t] = el
		res.typeBreadth[t] = len(ur)
	}
	return res, nil
}

//TaskTypeBreadth returns the number of resources eligible for type t
func (s *Statistics) TaskTypeBreadth(t api.TaskType) int {
	return s.typeBreadth[t]
}

//ResourceBreadth returns the number of task types resource r is eligible for
func (s *Statistics) ResourceBreadth(r api.Resource) int {
	return s.resBreadth[r]
}

//Eligible returns true if r may execute tasks of type t
func (s *Statistics) Eligible(t api.TaskType, r api.Resource) bool {
	return s.eligibleCache[t][r]
}

//Knows returns true if t is present in the pool
func (s *Statistics) Knows(t api.TaskType) bool {
	_, ok := s.typeBreadth[t]
	return ok
}

func (s *Statistics) ensureWindows(t api.TaskType) error {
	if _, ok := s.windows[t]; ok {
		return nil
	}
	rs, ok := s.pool[t]
	if !ok {
		return errors.Wrapf(ErrUnknownTaskType, "'%s'", t)
	}
	ws := make(map[api.Resource]*window, len(rs))
	for _, r := range rs {
		ws[r] = newWindow(s.windowSize)
	}
	s.windows[t] = ws
	return nil
}

func (s *Statistics) window(t api.TaskType, r api.Resource) (*window, error) {
	if err := s.ensureWindows(t); err != nil {
		return nil, err
	}
	w, ok := s.windows[t][r]
	if !ok {
		return nil, errors.Wrapf(ErrNotEligible, "'%s' for '%s'", r, t)
	}
	return w, nil
}

//MeanDuration returns mean of completed durations for the pair
func (s *Statistics) MeanDuration(t api.TaskType, r api.Resource) Mean {
	w, ok := s.windows[t][r]
	if !ok {
		return Mean{}
	}
	return w.mean()
}

//RecordStart appends start timestamp to the pair's window evicting the oldest entry when full
func (s *Statistics) RecordStart(t api.TaskType, r api.Resource, ts float64) error {
	w, err := s.window(t, r)
	if err != nil {
		return err
	}
	if w.pending {
		return errors.Wrapf(ErrResourceBusy, "'%s' already started '%s'", r, t)
	}
	w.start(ts)
	return nil
}

//RecordCompletion replaces the pending start with the elapsed duration
func (s *Statistics) RecordCompletion(t api.TaskType, r api.Resource, ts float64) (float64, error) {
	w, err := s.window(t, r)
	if err != nil {
		return 0, err
	}
	d, err := w.complete(ts)
	if err != nil {
		return 0, errors.Wrapf(err, "'%s' on '%s' at %v", t, r, ts)
	}
	return d, nil
}

//WindowSnapshot is a read only view of one duration window
type WindowSnapshot struct {
	TaskType  api.TaskType `json:"taskType"`
	Resource  api.Resource `json:"resource"`
	Observed  bool         `json:"observed"`
	Pending   bool         `json:"pending"`
	Durations []float64    `json:"durations"`
	Mean      *float64     `json:"mean,omitempty"`
}

//Snapshot is a read only view of the statistics
type Snapshot struct {
	TaskTypeBreadth map[api.TaskType]int `json:"taskTypeBreadth"`
	ResourceBreadth map[api.Resource]int `json:"resourceBreadth"`
	Windows         []WindowSnapshot     `json:"windows"`
}

//Snapshot copies current statistics, windows ordered by task type and resource
func (s *Statistics) Snapshot() *Snapshot {
	res := &Snapshot{TaskTypeBreadth: make(map[api.TaskType]int, len(s.typeBreadth)),
		ResourceBreadth: make(map[api.Resource]int, len(s.resBreadth))}
	for k, v := range s.typeBreadth {
		res.TaskTypeBreadth[k] = v
	}
	for k, v := range s.resBreadth {
		res.ResourceBreadth[k] = v
	}
	for t, ws := range s.windows {
		for r, w := range ws {
			wsn := WindowSnapshot{TaskType: t, Resource: r, Observed: w.observed, Pending: w.pending}
			wsn.Durations = append([]float64{}, w.durations()...)
			if m := w.mean(); m.Observed {
				v := m.Value
				wsn.Mean = &v
			}
			res.Windows = append(res.Windows, wsn)
		}
	}
	sort.Slice(res.Windows, func(i, j int) bool {
		if res.Windows[i].TaskType != res.Windows[j].TaskType {
			return res.Windows[i].TaskType < res.Windows[j].TaskType
		}
		return res.Windows[i].Resource < res.Windows[j].Resource
	})
	return res
}
