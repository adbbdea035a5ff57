package api

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

//TaskType is a class of work item
type TaskType string

//Resource is an identifier of a worker able to execute tasks
type Resource string

//Task is a unit of work waiting to be assigned
type Task struct {
	CaseID int64    `json:"caseId"`
	Type   TaskType `json:"taskType"`
}

func (t Task) String() string {
	return fmt.Sprintf("%s#%d", t.Type, t.CaseID)
}

//Pool maps a task type to the resources eligible to execute it
type Pool map[TaskType][]Resource

//Assignment pairs a task with the resource selected for it
type Assignment struct {
	Task     Task     `json:"task"`
	Resource Resource `json:"resource"`
}

//Decision is the result of one decision round.
//Idle and Waiting hold what was left unconsumed by Assignments
type Decision struct {
	Assignments []Assignment `json:"assignments"`
	Idle        []Resource   `json:"idle"`
	Waiting     []Task       `json:"waiting"`
}

//Lifecycle is a stage of task execution reported by the engine
type Lifecycle int

const (
	//LifecycleOther marks stages not used for statistics
	LifecycleOther Lifecycle = iota
	//LifecycleStart - task execution started on a resource
	LifecycleStart
	//LifecycleComplete - task execution completed on a resource
	LifecycleComplete
)

var lifecycleNames = map[Lifecycle]string{LifecycleOther: "other", LifecycleStart: "start", LifecycleComplete: "complete"}

//ParseLifecycle converts name to Lifecycle. Unknown names map to LifecycleOther
func ParseLifecycle(s string) Lifecycle {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "start", "start_task":
		return LifecycleStart
	case "complete", "complete_task":
		return LifecycleComplete
	}
	return LifecycleOther
}

func (l Lifecycle) String() string {
	if s, ok := lifecycleNames[l]; ok {
		return s
	}
	return "other"
}

//MarshalText encodes lifecycle as a string
func (l Lifecycle) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

//UnmarshalText decodes lifecycle from a string
func (l *Lifecycle) UnmarshalText(b []byte) error {
	*l = ParseLifecycle(string(b))
	return nil
}

//Event is a lifecycle notification about a task on a resource
type Event struct {
	Lifecycle Lifecycle `json:"lifecycle"`
	Task      Task      `json:"task"`
	Resource  Resource  `json:"resource"`
	Timestamp float64   `json:"timestamp"`
}

//Planner decides which waiting tasks go to which idle resources
type Planner interface {
	Decide(idle []Resource, waiting []Task) (*Decision, error)
	Report(e *Event) error
}

//Validate checks the pool is usable for planning
func (p Pool) Validate() error {
	if len(p) == 0 {
		return errors.New("No task types in pool")
	}
	for k, v := range p {
		if k == "" {
			return errors.New("Empty task type in pool")
		}
		if len(v) == 0 {
			return errors.Errorf("No resources for task type '%s'", k)
		}
		for _, r := range v {
			if r == "" {
				return errors.Errorf("Empty resource for task type '%s'", k)
			}
		}
	}
	return nil
}

//Eligible returns true if resource r may execute tasks of type t
func (p Pool) Eligible(t TaskType, r Resource) bool {
	for _, pr := range p[t] {
		if pr == r {
			return true
		}
	}
	return false
}
