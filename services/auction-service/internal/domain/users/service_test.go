package users_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/floroz/gavel-live/pkg/domainerr"
	"github.com/floroz/gavel-live/services/auction-service/internal/adapters/memory"
	"github.com/floroz/gavel-live/services/auction-service/internal/domain/users"
)

// MockRepository is a mock implementation of users.Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) NextUserID(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockRepository) CreateUser(ctx context.Context, user *users.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockRepository) GetUser(ctx context.Context, id int64) (*users.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*users.User), args.Error(1)
}

func TestDefaultContact(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "single word", in: "Alice", want: "alice@gavel.local"},
		{name: "two words", in: "Ana Lima", want: "ana.lima@gavel.local"},
		{name: "extra spaces", in: "  Joao   da  Silva ", want: "joao.da.silva@gavel.local"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, users.DefaultContact(tt.in))
		})
	}
}

func TestRegister(t *testing.T) {
	t.Run("assigns sequential ids and derives contact", func(t *testing.T) {
		// Arrange
		store := memory.NewStore()
		svc := users.NewService(store, store)
		ctx := context.Background()

		// Act
		first, err := svc.Register(ctx, " Ana Lima ", "")
		require.NoError(t, err)
		second, err := svc.Register(ctx, "Bruno", "bruno@example.com")
		require.NoError(t, err)

		// Assert
		assert.Equal(t, int64(1), first.ID)
		assert.Equal(t, "Ana Lima", first.DisplayName)
		assert.Equal(t, "ana.lima@gavel.local", first.Contact)
		assert.Equal(t, int64(2), second.ID)
		assert.Equal(t, "bruno@example.com", second.Contact)

		loaded, err := svc.GetUser(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, first, loaded)
	})

	t.Run("empty name is rejected before touching the store", func(t *testing.T) {
		repo := new(MockRepository)
		svc := users.NewService(repo, nil)

		_, err := svc.Register(context.Background(), "   ", "")

		assert.ErrorIs(t, err, users.ErrInvalidDisplayName)
		assert.ErrorIs(t, err, domainerr.ErrInvalidArgument)
		repo.AssertNotCalled(t, "NextUserID", mock.Anything)
	})

	t.Run("store failure is store unavailable", func(t *testing.T) {
		repo := new(MockRepository)
		repo.On("NextUserID", mock.Anything).Return(int64(0), errors.New("dial tcp: connection refused"))
		svc := users.NewService(repo, nil)

		_, err := svc.Register(context.Background(), "Carla", "")

		assert.ErrorIs(t, err, domainerr.ErrStoreUnavailable)
		assert.True(t, domainerr.IsRetryable(err))
		repo.AssertExpectations(t)
	})
}

func TestDrainMailbox(t *testing.T) {
	// Arrange
	store := memory.NewStore()
	svc := users.NewService(store, store)
	ctx := context.Background()
	u, err := svc.Register(ctx, "Dora", "")
	require.NoError(t, err)
	require.NoError(t, store.Append(ctx, u.ID, "you won"))
	require.NoError(t, store.Append(ctx, u.ID, "you won again"))

	// Act
	first, err := svc.DrainMailbox(ctx, u.ID)
	require.NoError(t, err)
	second, err := svc.DrainMailbox(ctx, u.ID)
	require.NoError(t, err)

	// Assert
	assert.Equal(t, []string{"you won", "you won again"}, first)
	assert.NotNil(t, second)
	assert.Empty(t, second)

	_, err = svc.DrainMailbox(ctx, 999)
	assert.ErrorIs(t, err, users.ErrUserNotFound)
}
