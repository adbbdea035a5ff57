package planner

import (
	"math/rand"
	"time"

	"github.com/airenas/bpoc/internal/pkg/planner/api"
	"github.com/pkg/errors"
)

//Random is a baseline planner drawing resources at random
type Random struct {
	stats *Statistics
	rnd   *rand.Rand
}

//NewRandom creates random planner. Seed 0 means time based seed
func NewRandom(pool api.Pool, seed int64) (*Random, error) {
	st, err := NewStatistics(pool, 1)
	if err != nil {
		return nil, err
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Random{stats: st, rnd: rand.New(rand.NewSource(seed))}, nil
}

//Decide tries, for each waiting task in order, as many random draws as there are idle resources
func (p *Random) Decide(idle []api.Resource, waiting []api.Task) (*api.Decision, error) {
	idle = uniqueResources(idle)
	waiting = uniqueTasks(waiting)
	for _, t := range waiting {
		if !p.stats.Knows(t.Type) {
			return nil, errors.Wrapf(ErrUnknownTaskType, "task %s", t)
		}
	}
	left := append([]api.Resource{}, idle...)
	var as []api.Assignment
	for _, t := range waiting {
		n := len(left)
		for i := 0; i < n; i++ {
			r := left[p.rnd.Intn(len(left))]
			if p.stats.Eligible(t.Type, r) {
				as = append(as, api.Assignment{Task: t, Resource: r})
				left = removeResource(left, r)
				break
			}
		}
	}
	return newDecision(as, idle, waiting), nil
}

//Report validates the event, no statistics are kept
func (p *Random) Report(e *api.Event) error {
	if e == nil {
		return errors.New("No event")
	}
	if e.Lifecycle == api.LifecycleOther {
		return nil
	}
	if !p.stats.Knows(e.Task.Type) {
		return errors.Wrapf(ErrUnknownTaskType, "'%s'", e.Task.Type)
	}
	if !p.stats.Eligible(e.Task.Type, e.Resource) {
		return errors.Wrapf(ErrNotEligible, "'%s' for '%s'", e.Resource, e.Task.Type)
	}
	return nil
}
