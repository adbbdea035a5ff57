package dispatcher

import (
	"sync"
	"time"

	"github.com/airenas/bpoc/internal/pkg/persistence"
	"github.com/airenas/bpoc/internal/pkg/planner"
	"github.com/airenas/bpoc/internal/pkg/planner/api"
	"github.com/pkg/errors"
)

var (
	errRunNotFound = errors.New("Run not found")
	errRunFailed   = errors.New("Run stopped after invariant violation")
)

//simRun is one simulation run served by its own planner. All planner calls are serialized
type simRun struct {
	id       string
	strategy string
	pool     api.Pool
	planner  api.Planner
	created  time.Time

	m           sync.Mutex
	rounds      int
	assignments int
	events      int
	failure     error
}

func newRun(id, strategy string, pool api.Pool, p api.Planner) *simRun {
	return &simRun{id: id, strategy: strategy, pool: pool, planner: p, created: time.Now()}
}

//decide runs one planner round. onDecision is called before the run lock is released
func (r *simRun) decide(idle []api.Resource, waiting []api.Task, onDecision func(d *api.Decision, round int)) (*api.Decision, int, error) {
	r.m.Lock()
	defer r.m.Unlock()
	if r.failure != nil {
		return nil, 0, errors.Wrap(errRunFailed, r.failure.Error())
	}
	d, err := r.planner.Decide(idle, waiting)
	if err != nil {
		r.fail(err)
		return nil, 0, err
	}
	r.rounds++
	r.assignments += len(d.Assignments)
	if onDecision != nil {
		onDecision(d, r.rounds)
	}
	return d, r.rounds, nil
}

func (r *simRun) report(e *api.Event) error {
	r.m.Lock()
	defer r.m.Unlock()
	if r.failure != nil {
		return errors.Wrap(errRunFailed, r.failure.Error())
	}
	err := r.planner.Report(e)
	if err != nil {
		r.fail(err)
		return err
	}
	r.events++
	return nil
}

func (r *simRun) fail(err error) {
	if planner.IsInvariant(err) {
		r.failure = err
	}
}

func (r *simRun) record() *persistence.RunRecord {
	r.m.Lock()
	defer r.m.Unlock()
	res := &persistence.RunRecord{ID: r.id, Strategy: r.strategy, Pool: r.pool, Rounds: r.rounds,
		Assignments: r.assignments, Events: r.events, Created: r.created}
	if r.failure != nil {
		res.Failure = r.failure.Error()
	}
	if sp, ok := r.planner.(planner.StatisticsProvider); ok {
		res.Statistics = sp.Statistics()
	}
	return res
}

//runs keeps active runs by ID
type runs struct {
	m    sync.RWMutex
	data map[string]*simRun
}

func newRuns() *runs {
	return &runs{data: make(map[string]*simRun)}
}

func (rs *runs) add(r *simRun) {
	rs.m.Lock()
	defer rs.m.Unlock()
	rs.data[r.id] = r
}

func (rs *runs) get(id string) (*simRun, error) {
	rs.m.RLock()
	defer rs.m.RUnlock()
	r, ok := rs.data[id]
	if !ok {
		return nil, errors.Wrapf(errRunNotFound, "'%s'", id)
	}
	return r, nil
}

func (rs *runs) remove(id string) (*simRun, error) {
	rs.m.Lock()
	defer rs.m.Unlock()
	r, ok := rs.data[id]
	if !ok {
		return nil, errors.Wrapf(errRunNotFound, "'%s'", id)
	}
	delete(rs.data, id)
	return r, nil
}

func (rs *runs) count() int {
	rs.m.RLock()
	defer rs.m.RUnlock()
	return len(rs.data)
}
