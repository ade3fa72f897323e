package identity

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/agenda-api/internal/model"
)

type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) GetProfiles(ctx context.Context, userIDs []uuid.UUID) ([]*model.Profile, error) {
	args := m.Called(ctx, userIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.Profile), args.Error(1)
}

func (m *MockProfileRepository) ProfessionalUserID(ctx context.Context, professionalID uuid.UUID) (uuid.UUID, error) {
	args := m.Called(ctx, professionalID)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

func TestCachedDirectory_GetDisplayNames(t *testing.T) {
	ctx := context.Background()
	ana, bob := uuid.New(), uuid.New()
	email := "ana@example.com"

	t.Run("caches found profiles", func(t *testing.T) {
		repo := new(MockProfileRepository)
		d := NewCachedDirectory(repo, time.Minute)
		repo.On("GetProfiles", ctx, []uuid.UUID{ana, bob}).Return([]*model.Profile{
			{UserID: ana, FullName: "Ana", Email: &email},
		}, nil).Once()
		repo.On("GetProfiles", ctx, []uuid.UUID{bob}).Return([]*model.Profile{}, nil).Once()

		names, err := d.GetDisplayNames(ctx, []uuid.UUID{ana, bob, ana})
		require.NoError(t, err)
		assert.Equal(t, map[uuid.UUID]string{ana: "Ana"}, names)

		// ana comes from the cache, bob is looked up again
		names, err = d.GetDisplayNames(ctx, []uuid.UUID{ana, bob})
		require.NoError(t, err)
		assert.Equal(t, "Ana", names[ana])
		repo.AssertExpectations(t)
	})

	t.Run("lookup failure is returned", func(t *testing.T) {
		repo := new(MockProfileRepository)
		d := NewCachedDirectory(repo, time.Minute)
		repo.On("GetProfiles", ctx, []uuid.UUID{ana}).Return(nil, errors.New("db down"))

		_, err := d.GetDisplayNames(ctx, []uuid.UUID{ana})
		assert.Error(t, err)
	})

	t.Run("emails skip users without address", func(t *testing.T) {
		repo := new(MockProfileRepository)
		d := NewCachedDirectory(repo, time.Minute)
		repo.On("GetProfiles", ctx, []uuid.UUID{ana, bob}).Return([]*model.Profile{
			{UserID: ana, FullName: "Ana", Email: &email},
			{UserID: bob, FullName: "Bob"},
		}, nil)

		emails, err := d.GetEmails(ctx, []uuid.UUID{ana, bob})
		require.NoError(t, err)
		assert.Equal(t, map[uuid.UUID]string{ana: email}, emails)
	})
}

func TestCachedDirectory_ProfessionalUserID(t *testing.T) {
	ctx := context.Background()
	repo := new(MockProfileRepository)
	d := NewCachedDirectory(repo, time.Minute)
	pro, user := uuid.New(), uuid.New()
	repo.On("ProfessionalUserID", ctx, pro).Return(user, nil).Once()

	for i := 0; i < 2; i++ {
		got, err := d.ProfessionalUserID(ctx, pro)
		require.NoError(t, err)
		assert.Equal(t, user, got)
	}
	repo.AssertExpectations(t)
}
