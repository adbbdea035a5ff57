package messages

import (
	"github.com/airenas/bpoc/internal/pkg/planner/api"
	"github.com/pkg/errors"
)

//EventMessage is a task lifecycle event for a run coming through the broker
type EventMessage struct {
	RunID     string       `json:"runId"`
	Lifecycle string       `json:"lifecycle"`
	CaseID    int64        `json:"caseId"`
	TaskType  api.TaskType `json:"taskType"`
	Resource  api.Resource `json:"resource"`
	Timestamp float64      `json:"timestamp"`
}

//DecisionMessage is published after each decision round
type DecisionMessage struct {
	RunID       string           `json:"runId"`
	Round       int              `json:"round"`
	Assignments []api.Assignment `json:"assignments"`
}

//Validate checks the required message fields
func (m *EventMessage) Validate() error {
	if m.RunID == "" {
		return errors.New("No runId")
	}
	if m.TaskType == "" {
		return errors.New("No taskType")
	}
	if m.Resource == "" {
		return errors.New("No resource")
	}
	return nil
}

//ToEvent converts message to planner event
func (m *EventMessage) ToEvent() *api.Event {
	return &api.Event{Lifecycle: api.ParseLifecycle(m.Lifecycle),
		Task:      api.Task{CaseID: m.CaseID, Type: m.TaskType},
		Resource:  m.Resource,
		Timestamp: m.Timestamp}
}

//Sender sends a message to the broker queue
type Sender interface {
	Send(msg interface{}, queue string) error
}
