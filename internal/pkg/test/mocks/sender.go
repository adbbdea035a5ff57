package mocks

import "github.com/stretchr/testify/mock"

//Sender is a mock
type Sender struct {
	mock.Mock
}

//Send is a mocked Send function
func (m *Sender) Send(msg interface{}, queue string) error {
	args := m.Mock.Called(msg, queue)
	return args.Error(0)
}
