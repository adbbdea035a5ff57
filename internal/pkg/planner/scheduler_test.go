package planner

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/airenas/bpoc/internal/pkg/planner/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tsk(t api.TaskType, id int64) api.Task {
	return api.Task{CaseID: id, Type: t}
}

func asg(t api.Task, r api.Resource) api.Assignment {
	return api.Assignment{Task: t, Resource: r}
}

func newTestScheduler(t *testing.T, pool api.Pool) *Scheduler {
	s, err := NewScheduler(pool)
	require.Nil(t, err)
	return s
}

func TestNewScheduler(t *testing.T) {
	s, err := NewScheduler(api.Pool{"A": {"R1"}})
	assert.Nil(t, err)
	assert.NotNil(t, s)
}

func TestNewScheduler_Fails(t *testing.T) {
	_, err := NewScheduler(api.Pool{})
	assert.NotNil(t, err)
	_, err = NewScheduler(api.Pool{"A": {"R1"}}, WithWindowSize(0))
	assert.NotNil(t, err)
}

func TestDecide_ScarceTypeServedFirst(t *testing.T) {
	s := newTestScheduler(t, api.Pool{"A": {"R1", "R2"}, "B": {"R2"}})
	d, err := s.Decide([]api.Resource{"R1", "R2"}, []api.Task{tsk("A", 1), tsk("B", 2)})
	assert.Nil(t, err)
	assert.Equal(t, []api.Assignment{asg(tsk("B", 2), "R2"), asg(tsk("A", 1), "R1")}, d.Assignments)
	assert.Empty(t, d.Idle)
	assert.Empty(t, d.Waiting)
}

func TestDecide_DoesNotModifyInput(t *testing.T) {
	s := newTestScheduler(t, api.Pool{"A": {"R1", "R2"}, "B": {"R2"}})
	idle := []api.Resource{"R1", "R2"}
	waiting := []api.Task{tsk("A", 1), tsk("B", 2)}
	_, err := s.Decide(idle, waiting)
	assert.Nil(t, err)
	assert.Equal(t, []api.Resource{"R1", "R2"}, idle)
	assert.Equal(t, []api.Task{tsk("A", 1), tsk("B", 2)}, waiting)
}

func TestDecide_Single_PrefersNarrowType(t *testing.T) {
	s := newTestScheduler(t, api.Pool{"A": {"R1"}, "B": {"R1", "R2", "R3"}})
	d, err := s.Decide([]api.Resource{"R1"}, []api.Task{tsk("B", 1), tsk("A", 2)})
	assert.Nil(t, err)
	assert.Equal(t, []api.Assignment{asg(tsk("A", 2), "R1")}, d.Assignments)
	assert.Equal(t, []api.Task{tsk("B", 1)}, d.Waiting)
	assert.Empty(t, d.Idle)
}

func TestDecide_Single_TieByCaseID(t *testing.T) {
	s := newTestScheduler(t, api.Pool{"A": {"R1"}})
	d, err := s.Decide([]api.Resource{"R1"}, []api.Task{tsk("A", 5), tsk("A", 3), tsk("A", 4)})
	assert.Nil(t, err)
	assert.Equal(t, []api.Assignment{asg(tsk("A", 3), "R1")}, d.Assignments)
	assert.Equal(t, []api.Task{tsk("A", 5), tsk("A", 4)}, d.Waiting)
}

func TestDecide_Single_NoEligible(t *testing.T) {
	s := newTestScheduler(t, api.Pool{"A": {"R1"}, "B": {"R2"}})
	d, err := s.Decide([]api.Resource{"R2"}, []api.Task{tsk("A", 1)})
	assert.Nil(t, err)
	assert.Empty(t, d.Assignments)
	assert.Equal(t, []api.Resource{"R2"}, d.Idle)
	assert.Equal(t, []api.Task{tsk("A", 1)}, d.Waiting)
}

func TestDecide_Single_IgnoresStatistics(t *testing.T) {
	s := newTestScheduler(t, api.Pool{"A": {"R1", "R2"}, "B": {"R1", "R2"}})
	runCycle(t, s, tsk("B", 10), "R1", 0, 100)
	d, err := s.Decide([]api.Resource{"R1"}, []api.Task{tsk("B", 2), tsk("A", 1)})
	assert.Nil(t, err)
	assert.Equal(t, []api.Assignment{asg(tsk("A", 1), "R1")}, d.Assignments)
}

func TestDecide_KeepsUnassignableInResidual(t *testing.T) {
	s := newTestScheduler(t, api.Pool{"A": {"R1"}, "B": {"R2"}, "C": {"R3"}})
	d, err := s.Decide([]api.Resource{"R1", "R2"}, []api.Task{tsk("C", 1), tsk("B", 3), tsk("A", 2)})
	assert.Nil(t, err)
	assert.Equal(t, []api.Assignment{asg(tsk("A", 2), "R1"), asg(tsk("B", 3), "R2")}, d.Assignments)
	assert.Equal(t, []api.Task{tsk("C", 1)}, d.Waiting)
	assert.Empty(t, d.Idle)
}

func TestDecide_StopsWhenNoIdle(t *testing.T) {
	s := newTestScheduler(t, api.Pool{"A": {"R1", "R2"}})
	d, err := s.Decide([]api.Resource{"R1", "R2"}, []api.Task{tsk("A", 3), tsk("A", 1), tsk("A", 2)})
	assert.Nil(t, err)
	require.Equal(t, 2, len(d.Assignments))
	assert.Equal(t, tsk("A", 1), d.Assignments[0].Task)
	assert.Equal(t, tsk("A", 2), d.Assignments[1].Task)
	assert.Equal(t, []api.Task{tsk("A", 3)}, d.Waiting)
}

func TestDecide_ResidualIdle(t *testing.T) {
	s := newTestScheduler(t, api.Pool{"A": {"R1", "R2", "R3"}})
	d, err := s.Decide([]api.Resource{"R3", "R1", "R2"}, []api.Task{tsk("A", 1)})
	assert.Nil(t, err)
	require.Equal(t, 1, len(d.Assignments))
	assert.Equal(t, []api.Resource{"R1", "R2"}, d.Idle)
}

func TestDecide_Empty(t *testing.T) {
	s := newTestScheduler(t, api.Pool{"A": {"R1", "R2"}})
	d, err := s.Decide(nil, []api.Task{tsk("A", 1)})
	assert.Nil(t, err)
	assert.Empty(t, d.Assignments)
	assert.Equal(t, []api.Task{tsk("A", 1)}, d.Waiting)

	d, err = s.Decide([]api.Resource{"R1", "R2"}, nil)
	assert.Nil(t, err)
	assert.Empty(t, d.Assignments)
	assert.Equal(t, []api.Resource{"R1", "R2"}, d.Idle)
}

func TestDecide_CollapsesDuplicateIdle(t *testing.T) {
	s := newTestScheduler(t, api.Pool{"A": {"R1"}})
	d, err := s.Decide([]api.Resource{"R1", "R1"}, []api.Task{tsk("A", 1), tsk("A", 2)})
	assert.Nil(t, err)
	assert.Equal(t, []api.Assignment{asg(tsk("A", 1), "R1")}, d.Assignments)
	assert.Empty(t, d.Idle)
}

func TestDecide_UnknownType(t *testing.T) {
	s := newTestScheduler(t, api.Pool{"A": {"R1"}})
	_, err := s.Decide([]api.Resource{"R1", "R2"}, []api.Task{tsk("X", 1)})
	assert.NotNil(t, err)
	assert.True(t, IsInvariant(err))
	assert.ErrorIs(t, err, ErrUnknownTaskType)
}

func TestDecide_PrefersFasterResource(t *testing.T) {
	s := newTestScheduler(t, api.Pool{"A": {"R1", "R2"}})
	runCycle(t, s, tsk("A", 10), "R1", 0, 10)
	runCycle(t, s, tsk("A", 11), "R2", 0, 2)
	d, err := s.Decide([]api.Resource{"R1", "R2"}, []api.Task{tsk("A", 1)})
	assert.Nil(t, err)
	assert.Equal(t, []api.Assignment{asg(tsk("A", 1), "R2")}, d.Assignments)
}

func TestDecide_PrefersObservedResource(t *testing.T) {
	s := newTestScheduler(t, api.Pool{"A": {"R1", "R2"}})
	runCycle(t, s, tsk("A", 10), "R2", 0, 1000)
	d, err := s.Decide([]api.Resource{"R1", "R2"}, []api.Task{tsk("A", 1)})
	assert.Nil(t, err)
	assert.Equal(t, []api.Assignment{asg(tsk("A", 1), "R2")}, d.Assignments)
}

func TestDecide_EqualMeans_PrefersBroaderResource(t *testing.T) {
	s := newTestScheduler(t, api.Pool{"A": {"R1", "R2"}, "B": {"R2"}})
	d, err := s.Decide([]api.Resource{"R1", "R2"}, []api.Task{tsk("A", 1)})
	assert.Nil(t, err)
	assert.Equal(t, []api.Assignment{asg(tsk("A", 1), "R2")}, d.Assignments)
	assert.Equal(t, []api.Resource{"R1"}, d.Idle)
}

func TestDecide_FewerCandidatesFirst(t *testing.T) {
	s := newTestScheduler(t, api.Pool{"A": {"R1", "R2", "R3"}, "B": {"R1", "R2", "R3", "R4"}})
	d, err := s.Decide([]api.Resource{"R1", "R2"}, []api.Task{tsk("B", 1), tsk("A", 2)})
	assert.Nil(t, err)
	require.Equal(t, 2, len(d.Assignments))
	assert.Equal(t, tsk("A", 2), d.Assignments[0].Task)
	assert.Equal(t, tsk("B", 1), d.Assignments[1].Task)
}

func TestDecide_Deterministic(t *testing.T) {
	pool := api.Pool{"A": {"R1", "R2", "R3"}, "B": {"R2", "R3"}, "C": {"R3", "R4"}}
	idle := []api.Resource{"R4", "R3", "R2", "R1"}
	waiting := []api.Task{tsk("C", 4), tsk("A", 1), tsk("B", 3), tsk("A", 2), tsk("C", 5)}
	s1 := newTestScheduler(t, pool)
	s2 := newTestScheduler(t, pool)
	for i := 0; i < 5; i++ {
		d1, err := s1.Decide(idle, waiting)
		require.Nil(t, err)
		d2, err := s2.Decide(idle, waiting)
		require.Nil(t, err)
		assert.Equal(t, d1, d2)
	}
}

func TestDecide_Properties(t *testing.T) {
	rnd := rand.New(rand.NewSource(17))
	for i := 0; i < 200; i++ {
		pool, idle, waiting := randomInput(rnd)
		s := newTestScheduler(t, pool)
		d, err := s.Decide(idle, waiting)
		require.Nil(t, err)
		checkDecision(t, pool, idle, waiting, d)
	}
}

func TestDecide_AssignsAllWhenPossible(t *testing.T) {
	s := newTestScheduler(t, api.Pool{"A": {"R1", "R2", "R3"}})
	d, err := s.Decide([]api.Resource{"R1", "R2", "R3"}, []api.Task{tsk("A", 1), tsk("A", 2), tsk("A", 3)})
	assert.Nil(t, err)
	assert.Equal(t, 3, len(d.Assignments))
	assert.Empty(t, d.Idle)
	assert.Empty(t, d.Waiting)
}

func randomInput(rnd *rand.Rand) (api.Pool, []api.Resource, []api.Task) {
	nr := 1 + rnd.Intn(6)
	nt := 1 + rnd.Intn(4)
	pool := api.Pool{}
	for i := 0; i < nt; i++ {
		tt := api.TaskType(fmt.Sprintf("T%d", i))
		for j := 0; j < nr; j++ {
			if rnd.Intn(2) == 0 {
				pool[tt] = append(pool[tt], api.Resource(fmt.Sprintf("R%d", j)))
			}
		}
		if len(pool[tt]) == 0 {
			pool[tt] = []api.Resource{api.Resource(fmt.Sprintf("R%d", rnd.Intn(nr)))}
		}
	}
	var idle []api.Resource
	for j := 0; j < nr; j++ {
		if rnd.Intn(3) > 0 {
			idle = append(idle, api.Resource(fmt.Sprintf("R%d", j)))
		}
	}
	var waiting []api.Task
	nw := rnd.Intn(8)
	for i := 0; i < nw; i++ {
		waiting = append(waiting, tsk(api.TaskType(fmt.Sprintf("T%d", rnd.Intn(nt))), int64(i)))
	}
	return pool, idle, waiting
}

func checkDecision(t *testing.T, pool api.Pool, idle []api.Resource, waiting []api.Task, d *api.Decision) {
	t.Helper()
	usedR := map[api.Resource]bool{}
	usedT := map[api.Task]bool{}
	for _, a := range d.Assignments {
		assert.False(t, usedR[a.Resource], "resource used twice")
		assert.False(t, usedT[a.Task], "task used twice")
		usedR[a.Resource] = true
		usedT[a.Task] = true
		assert.True(t, pool.Eligible(a.Task.Type, a.Resource), "not eligible")
		assert.Contains(t, idle, a.Resource)
		assert.Contains(t, waiting, a.Task)
	}
	assert.Equal(t, len(idle), len(d.Idle)+len(d.Assignments))
	assert.Equal(t, len(waiting), len(d.Waiting)+len(d.Assignments))
	for _, r := range d.Idle {
		assert.False(t, usedR[r])
	}
	for _, tk := range d.Waiting {
		assert.False(t, usedT[tk])
	}
	// maximality: nothing left could still be assigned
	for _, tk := range d.Waiting {
		for _, r := range d.Idle {
			assert.False(t, pool.Eligible(tk.Type, r), "%s could take %s", r, tk)
		}
	}
}

func TestDecide_DuplicateTaskTakenOnce(t *testing.T) {
	s := newTestScheduler(t, api.Pool{"A": {"R1", "R2"}})
	d, err := s.Decide([]api.Resource{"R1", "R2"}, []api.Task{tsk("A", 1), tsk("A", 1)})
	assert.Nil(t, err)
	require.Len(t, d.Assignments, 1)
	assert.Equal(t, tsk("A", 1), d.Assignments[0].Task)
	assert.Empty(t, d.Waiting)
	assert.Len(t, d.Idle, 1)
}

func TestDecide_Single_DuplicateTaskTakenOnce(t *testing.T) {
	s := newTestScheduler(t, api.Pool{"A": {"R1"}})
	d, err := s.Decide([]api.Resource{"R1"}, []api.Task{tsk("A", 1), tsk("A", 1), tsk("A", 2)})
	assert.Nil(t, err)
	assert.Equal(t, []api.Assignment{asg(tsk("A", 1), "R1")}, d.Assignments)
	assert.Equal(t, []api.Task{tsk("A", 2)}, d.Waiting)
}

func runCycle(t *testing.T, s *Scheduler, tk api.Task, r api.Resource, from, to float64) {
	t.Helper()
	require.Nil(t, s.Report(&api.Event{Lifecycle: api.LifecycleStart, Task: tk, Resource: r, Timestamp: from}))
	require.Nil(t, s.Report(&api.Event{Lifecycle: api.LifecycleComplete, Task: tk, Resource: r, Timestamp: to}))
}
