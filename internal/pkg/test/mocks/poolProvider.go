package mocks

import (
	"github.com/airenas/bpoc/internal/pkg/planner/api"
	"github.com/stretchr/testify/mock"
)

//PoolProvider is a mock
type PoolProvider struct {
	mock.Mock
}

//Get is a mocked Get function
func (m *PoolProvider) Get() (api.Pool, error) {
	args := m.Mock.Called()
	p, _ := args.Get(0).(api.Pool)
	return p, args.Error(1)
}
