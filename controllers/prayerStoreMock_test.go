package controllers

import (
	"context"
	"testing"

	"github.com/Churchly/models"
	"github.com/Churchly/repositories"

	"github.com/stretchr/testify/mock"
)

type mockPrayerStore struct {
	mock.Mock
}

func (m *mockPrayerStore) Create(ctx context.Context, request *models.PrayerRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

func (m *mockPrayerStore) List(ctx context.Context, opts repositories.ListOptions) ([]models.PrayerRequest, error) {
	args := m.Called(ctx, opts)
	requests, _ := args.Get(0).([]models.PrayerRequest)
	return requests, args.Error(1)
}

func (m *mockPrayerStore) Get(ctx context.Context, id string) (*models.PrayerRequest, error) {
	args := m.Called(ctx, id)
	request, _ := args.Get(0).(*models.PrayerRequest)
	return request, args.Error(1)
}

func (m *mockPrayerStore) AddResponse(ctx context.Context, id string, response models.PrayerResponse) (*models.PrayerRequest, error) {
	args := m.Called(ctx, id, response)
	request, _ := args.Get(0).(*models.PrayerRequest)
	return request, args.Error(1)
}

func (m *mockPrayerStore) Delete(ctx context.Context, id string, ownerID int) error {
	args := m.Called(ctx, id, ownerID)
	return args.Error(0)
}

func (m *mockPrayerStore) CountActive(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockPrayerStore) EnsureIndexes(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

// setupPrayerStore swaps in a mock store for the test.
func setupPrayerStore(t *testing.T) *mockPrayerStore {
	t.Helper()
	store := &mockPrayerStore{}
	original := repositories.PrayerRequests
	repositories.PrayerRequests = store
	t.Cleanup(func() { repositories.PrayerRequests = original })
	return store
}
