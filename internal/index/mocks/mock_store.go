package mocks

import (
	"context"

	"memoir/internal/model"

	"github.com/stretchr/testify/mock"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Read(ctx context.Context, part string) ([]model.PhotoRecord, error) {
	args := m.Called(ctx, part)
	recs, _ := args.Get(0).([]model.PhotoRecord)
	return recs, args.Error(1)
}

func (m *MockStore) Append(ctx context.Context, part string, rec model.PhotoRecord) error {
	args := m.Called(ctx, part, rec)
	return args.Error(0)
}

func (m *MockStore) Remove(ctx context.Context, part string, id string) (bool, error) {
	args := m.Called(ctx, part, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) Partitions(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	parts, _ := args.Get(0).([]string)
	return parts, args.Error(1)
}
