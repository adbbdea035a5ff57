package mocks

import (
	"github.com/airenas/bpoc/internal/pkg/persistence"
	"github.com/stretchr/testify/mock"
)

//RunSaver is a mock
type RunSaver struct {
	mock.Mock
}

//Save is a mocked Save function
func (m *RunSaver) Save(data *persistence.RunRecord) error {
	args := m.Mock.Called(data)
	return args.Error(0)

}

//Get is a mocked Get function
func (m *RunSaver) Get(id string) (*persistence.RunRecord, error) {
	args := m.Mock.Called(id)
	r, _ := args.Get(0).(*persistence.RunRecord)
	return r, args.Error(1)
}
