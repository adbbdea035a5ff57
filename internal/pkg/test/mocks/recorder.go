package mocks

import (
	"github.com/airenas/bpoc/internal/pkg/planner/api"
	"github.com/stretchr/testify/mock"
)

//Recorder is a mock
type Recorder struct {
	mock.Mock
}

//RecordDecision is a mocked RecordDecision function
func (m *Recorder) RecordDecision(runID string, round int, as []api.Assignment) error {
	args := m.Mock.Called(runID, round, as)
	return args.Error(0)
}

//RecordEvent is a mocked RecordEvent function
func (m *Recorder) RecordEvent(runID string, e *api.Event) error {
	args := m.Mock.Called(runID, e)
	return args.Error(0)
}
