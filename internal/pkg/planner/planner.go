package planner

import (
	"strings"

	"github.com/airenas/bpoc/internal/pkg/planner/api"
	"github.com/pkg/errors"
)

const (
	//StrategyGreedy selects the adaptive greedy scheduler
	StrategyGreedy = "greedy"
	//StrategyRandom selects the random baseline planner
	StrategyRandom = "random"
)

//Params keeps planner construction settings
type Params struct {
	Strategy   string
	WindowSize int
	Seed       int64
}

//Validate checks strategy name and window size
func (prm Params) Validate() error {
	switch strings.ToLower(prm.Strategy) {
	case "", StrategyGreedy, StrategyRandom:
	default:
		return errors.Errorf("Unknown strategy '%s'", prm.Strategy)
	}
	if prm.WindowSize < 0 {
		return errors.Errorf("Wrong window size %d", prm.WindowSize)
	}
	return nil
}

//New creates planner by strategy name. Empty name means greedy
func New(pool api.Pool, prm Params) (api.Planner, error) {
	if err := prm.Validate(); err != nil {
		return nil, err
	}
	switch strings.ToLower(prm.Strategy) {
	case "", StrategyGreedy:
		var opts []Option
		if prm.WindowSize > 0 {
			opts = append(opts, WithWindowSize(prm.WindowSize))
		}
		return NewScheduler(pool, opts...)
	case StrategyRandom:
		return NewRandom(pool, prm.Seed)
	}
	return nil, errors.Errorf("Unknown strategy '%s'", prm.Strategy)
}

//StatisticsProvider is implemented by planners collecting duration statistics
type StatisticsProvider interface {
	Statistics() *Snapshot
}
