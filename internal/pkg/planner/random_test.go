package planner

import (
	"math/rand"
	"testing"

	"github.com/airenas/bpoc/internal/pkg/planner/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRandom_Init(t *testing.T) {
	p, err := NewRandom(api.Pool{"A": {"R1"}}, 0)
	assert.Nil(t, err)
	assert.NotNil(t, p)
	_, err = NewRandom(api.Pool{}, 1)
	assert.NotNil(t, err)
}

func TestRandom_SameSeedSameDecision(t *testing.T) {
	pool := api.Pool{"A": {"R1", "R2", "R3"}, "B": {"R2", "R3"}}
	idle := []api.Resource{"R1", "R2", "R3"}
	waiting := []api.Task{tsk("A", 1), tsk("B", 2), tsk("A", 3)}
	p1, _ := NewRandom(pool, 5)
	p2, _ := NewRandom(pool, 5)
	for i := 0; i < 10; i++ {
		d1, err := p1.Decide(idle, waiting)
		require.Nil(t, err)
		d2, err := p2.Decide(idle, waiting)
		require.Nil(t, err)
		assert.Equal(t, d1, d2)
	}
}

func TestRandom_SingleEligible(t *testing.T) {
	p, _ := NewRandom(api.Pool{"A": {"R1"}}, 3)
	d, err := p.Decide([]api.Resource{"R1"}, []api.Task{tsk("A", 1), tsk("A", 2)})
	assert.Nil(t, err)
	assert.Equal(t, []api.Assignment{asg(tsk("A", 1), "R1")}, d.Assignments)
	assert.Equal(t, []api.Task{tsk("A", 2)}, d.Waiting)
	assert.Empty(t, d.Idle)
}

func TestRandom_NoConflicts(t *testing.T) {
	rnd := rand.New(rand.NewSource(3))
	for i := 0; i < 200; i++ {
		pool, idle, waiting := randomInput(rnd)
		p, err := NewRandom(pool, int64(i+1))
		require.Nil(t, err)
		d, err := p.Decide(idle, waiting)
		require.Nil(t, err)
		usedR := map[api.Resource]bool{}
		usedT := map[api.Task]bool{}
		for _, a := range d.Assignments {
			assert.False(t, usedR[a.Resource])
			assert.False(t, usedT[a.Task])
			usedR[a.Resource] = true
			usedT[a.Task] = true
			assert.True(t, pool.Eligible(a.Task.Type, a.Resource))
		}
		assert.Equal(t, len(idle), len(d.Idle)+len(d.Assignments))
		assert.Equal(t, len(waiting), len(d.Waiting)+len(d.Assignments))
	}
}

func TestRandom_UnknownType(t *testing.T) {
	p, _ := NewRandom(api.Pool{"A": {"R1"}}, 3)
	_, err := p.Decide([]api.Resource{"R1"}, []api.Task{tsk("X", 1)})
	assert.ErrorIs(t, err, ErrUnknownTaskType)
}

func TestRandom_Report(t *testing.T) {
	p, _ := NewRandom(api.Pool{"A": {"R1"}}, 3)
	assert.Nil(t, p.Report(event(api.LifecycleStart, tsk("A", 1), "R1", 1)))
	assert.Nil(t, p.Report(event(api.LifecycleOther, tsk("X", 1), "R1", 1)))
	assert.ErrorIs(t, p.Report(event(api.LifecycleStart, tsk("A", 1), "R2", 1)), ErrNotEligible)
	assert.NotNil(t, p.Report(nil))
}

func TestNew_Strategies(t *testing.T) {
	pool := api.Pool{"A": {"R1"}}
	p, err := New(pool, Params{})
	assert.Nil(t, err)
	assert.IsType(t, &Scheduler{}, p)
	p, err = New(pool, Params{Strategy: "Greedy", WindowSize: 5})
	assert.Nil(t, err)
	assert.IsType(t, &Scheduler{}, p)
	p, err = New(pool, Params{Strategy: StrategyRandom, Seed: 1})
	assert.Nil(t, err)
	assert.IsType(t, &Random{}, p)
	_, err = New(pool, Params{Strategy: "fifo"})
	assert.NotNil(t, err)
}

func TestParams_Validate(t *testing.T) {
	assert.Nil(t, Params{}.Validate())
	assert.Nil(t, Params{Strategy: "RANDOM"}.Validate())
	assert.NotNil(t, Params{Strategy: "fifo"}.Validate())
	assert.NotNil(t, Params{WindowSize: -1}.Validate())
	_, err := New(api.Pool{"A": {"R1"}}, Params{WindowSize: -1})
	assert.NotNil(t, err)
}

func TestRandom_DuplicateTaskTakenOnce(t *testing.T) {
	p, err := NewRandom(api.Pool{"A": {"R1", "R2"}}, 1)
	require.Nil(t, err)
	d, err := p.Decide([]api.Resource{"R1", "R2"}, []api.Task{tsk("A", 1), tsk("A", 1)})
	assert.Nil(t, err)
	assert.Len(t, d.Assignments, 1)
	assert.Empty(t, d.Waiting)
	assert.Len(t, d.Idle, 1)
}
