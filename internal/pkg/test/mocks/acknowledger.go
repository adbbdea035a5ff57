package mocks

import "github.com/stretchr/testify/mock"

//Acknowledger is a mock
type Acknowledger struct {
	mock.Mock
}

//Ack is a mocked Ack function
func (m *Acknowledger) Ack(tag uint64, multiple bool) error {
	args := m.Mock.Called(tag, multiple)
	return args.Error(0)

}

//Nack is a mocked Nack function
func (m *Acknowledger) Nack(tag uint64, multiple bool, requeue bool) error {
	args := m.Mock.Called(tag, multiple, requeue)
	return args.Error(0)
}

//Reject is a mocked Reject function
func (m *Acknowledger) Reject(tag uint64, requeue bool) error {
	args := m.Mock.Called(tag, requeue)
	return args.Error(0)
}
