package geo

import (
	"github.com/stretchr/testify/mock"
)

type MockResolver struct {
	mock.Mock
}

func (m *MockResolver) Country(id uint) (Country, bool) {
	args := m.Mock.Called(id)

	if v := args.Get(0); v != nil {
		return v.(Country), args.Bool(1)
	}

	return Country{}, args.Bool(1)
}
