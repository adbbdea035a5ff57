package planner

import (
	"github.com/airenas/bpoc/internal/pkg/cmdapp"
	"github.com/airenas/bpoc/internal/pkg/planner/api"
	"github.com/pkg/errors"
)

//Report updates duration statistics from the task lifecycle event
func (s *Scheduler) Report(e *api.Event) error {
	if e == nil {
		return errors.New("No event")
	}
	switch e.Lifecycle {
	case api.LifecycleStart:
		return s.onStart(e)
	case api.LifecycleComplete:
		return s.onComplete(e)
	}
	return nil
}

func (s *Scheduler) onStart(e *api.Event) error {
	if err := s.checkEvent(e); err != nil {
		return err
	}
	if t, ok := s.busy[e.Resource]; ok {
		return errors.Wrapf(ErrResourceBusy, "'%s' is executing %s, got start of %s", e.Resource, t, e.Task)
	}
	if err := s.stats.RecordStart(e.Task.Type, e.Resource, e.Timestamp); err != nil {
		return err
	}
	s.busy[e.Resource] = e.Task
	return nil
}

func (s *Scheduler) onComplete(e *api.Event) error {
	if err := s.checkEvent(e); err != nil {
		return err
	}
	if t, ok := s.busy[e.Resource]; !ok || t != e.Task {
		return errors.Wrapf(ErrNoMatchingStart, "%s on '%s'", e.Task, e.Resource)
	}
	d, err := s.stats.RecordCompletion(e.Task.Type, e.Resource, e.Timestamp)
	if err != nil {
		return err
	}
	delete(s.busy, e.Resource)
	cmdapp.Log.Debugf("%s on %s took %v", e.Task, e.Resource, d)
	return nil
}

func (s *Scheduler) checkEvent(e *api.Event) error {
	if !s.stats.Knows(e.Task.Type) {
		return errors.Wrapf(ErrUnknownTaskType, "'%s'", e.Task.Type)
	}
	if !s.stats.Eligible(e.Task.Type, e.Resource) {
		return errors.Wrapf(ErrNotEligible, "'%s' for '%s'", e.Resource, e.Task.Type)
	}
	return nil
}
