package usergraph_test

import (
	"context"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-usergraph"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func assertTextCode(t *testing.T, err error, want error) {
	t.Helper()

	var got, expected *goerrors.Error
	require.True(t, goerrors.As(err, &got), "expected a rich error, got %v", err)
	require.True(t, goerrors.As(want, &expected))
	assert.Equal(t, expected.TextCode, got.TextCode)
}

func TestSubscribe(t *testing.T) {
	ctx := context.Background()
	follower := &usergraph.User{ID: uuid.New(), Username: "alice", Email: "alice@example.com"}
	followee := &usergraph.User{ID: uuid.New(), Username: "bob", Email: "bob@example.com"}

	t.Run("creates the edge", func(t *testing.T) {
		repo := newMockRepositoryManager()
		repo.users.On("GetByUsername", mock.Anything, "alice").Return(follower, nil).Once()
		repo.users.On("GetByID", mock.Anything, followee.ID.String()).Return(followee, nil).Once()
		repo.follows.On("Exists", mock.Anything, followee.ID, follower.ID).Return(false, nil).Once()
		repo.follows.On("CreateTx", mock.Anything, follower.ID, followee.ID).Return(nil).Once()

		graph := usergraph.NewGraph(repo)

		require.NoError(t, graph.Subscribe(ctx, "alice", followee.ID))
		repo.follows.AssertExpectations(t)
	})

	t.Run("duplicate edge", func(t *testing.T) {
		repo := newMockRepositoryManager()
		repo.users.On("GetByUsername", mock.Anything, "alice").Return(follower, nil).Once()
		repo.users.On("GetByID", mock.Anything, followee.ID.String()).Return(followee, nil).Once()
		repo.follows.On("Exists", mock.Anything, followee.ID, follower.ID).Return(true, nil).Once()

		graph := usergraph.NewGraph(repo)

		err := graph.Subscribe(ctx, "alice", followee.ID)
		assertTextCode(t, err, usergraph.ErrAlreadyFollowing)
		repo.follows.AssertNotCalled(t, "CreateTx", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("self follow", func(t *testing.T) {
		repo := newMockRepositoryManager()
		repo.users.On("GetByUsername", mock.Anything, "alice").Return(follower, nil).Once()
		repo.users.On("GetByID", mock.Anything, follower.ID.String()).Return(follower, nil).Once()

		graph := usergraph.NewGraph(repo)

		err := graph.Subscribe(ctx, "alice", follower.ID)
		assert.ErrorIs(t, err, usergraph.ErrSelfFollow)
	})

	t.Run("unknown follower", func(t *testing.T) {
		repo := newMockRepositoryManager()
		repo.users.On("GetByUsername", mock.Anything, "ghost").Return(nil, notFoundErr()).Once()

		graph := usergraph.NewGraph(repo)

		err := graph.Subscribe(ctx, "ghost", followee.ID)
		assertTextCode(t, err, usergraph.ErrUserNotFound)
	})

	t.Run("unknown followee", func(t *testing.T) {
		repo := newMockRepositoryManager()
		missing := uuid.New()
		repo.users.On("GetByUsername", mock.Anything, "alice").Return(follower, nil).Once()
		repo.users.On("GetByID", mock.Anything, missing.String()).Return(nil, notFoundErr()).Once()

		graph := usergraph.NewGraph(repo)

		err := graph.Subscribe(ctx, "alice", missing)
		assertTextCode(t, err, usergraph.ErrUserNotFound)
	})

	t.Run("store failure", func(t *testing.T) {
		repo := newMockRepositoryManager()
		repo.users.On("GetByUsername", mock.Anything, "alice").Return(follower, nil).Once()
		repo.users.On("GetByID", mock.Anything, followee.ID.String()).Return(followee, nil).Once()
		repo.follows.On("Exists", mock.Anything, followee.ID, follower.ID).Return(false, errBoom).Once()

		graph := usergraph.NewGraph(repo)

		err := graph.Subscribe(ctx, "alice", followee.ID)
		assert.True(t, usergraph.IsStoreFailure(err))
	})
}

func TestUnsubscribe(t *testing.T) {
	ctx := context.Background()
	follower := &usergraph.User{ID: uuid.New(), Username: "alice", Email: "alice@example.com"}
	followee := &usergraph.User{ID: uuid.New(), Username: "bob", Email: "bob@example.com"}

	t.Run("removes the edge", func(t *testing.T) {
		repo := newMockRepositoryManager()
		repo.users.On("GetByUsername", mock.Anything, "alice").Return(follower, nil).Once()
		repo.users.On("GetByID", mock.Anything, followee.ID.String()).Return(followee, nil).Once()
		repo.follows.On("Exists", mock.Anything, followee.ID, follower.ID).Return(true, nil).Once()
		repo.follows.On("DeleteTx", mock.Anything, follower.ID, followee.ID).Return(nil).Once()

		graph := usergraph.NewGraph(repo)

		require.NoError(t, graph.Unsubscribe(ctx, "alice", followee.ID))
		repo.follows.AssertExpectations(t)
	})

	t.Run("no edge to remove", func(t *testing.T) {
		repo := newMockRepositoryManager()
		repo.users.On("GetByUsername", mock.Anything, "alice").Return(follower, nil).Once()
		repo.users.On("GetByID", mock.Anything, followee.ID.String()).Return(followee, nil).Once()
		repo.follows.On("Exists", mock.Anything, followee.ID, follower.ID).Return(false, nil).Once()

		graph := usergraph.NewGraph(repo)

		err := graph.Unsubscribe(ctx, "alice", followee.ID)
		assertTextCode(t, err, usergraph.ErrNotFollowing)
		repo.follows.AssertNotCalled(t, "DeleteTx", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestGraphListings(t *testing.T) {
	ctx := context.Background()
	user := &usergraph.User{ID: uuid.New(), Username: "alice", Email: "alice@example.com"}
	others := []*usergraph.User{
		{ID: uuid.New(), Username: "bob"},
		{ID: uuid.New(), Username: "carol"},
	}

	t.Run("followers", func(t *testing.T) {
		repo := newMockRepositoryManager()
		repo.users.On("GetByEmail", mock.Anything, "alice@example.com").Return(user, nil).Once()
		repo.follows.On("FollowersOf", mock.Anything, user.ID).Return(others, nil).Once()

		graph := usergraph.NewGraph(repo)

		records, err := graph.Followers(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("subscriptions", func(t *testing.T) {
		repo := newMockRepositoryManager()
		repo.users.On("GetByEmail", mock.Anything, "alice@example.com").Return(user, nil).Once()
		repo.follows.On("SubscriptionsOf", mock.Anything, user.ID).Return(others, nil).Once()

		graph := usergraph.NewGraph(repo)

		records, err := graph.Subscriptions(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.Len(t, records, 2)
	})

	t.Run("unknown account", func(t *testing.T) {
		repo := newMockRepositoryManager()
		repo.users.On("GetByEmail", mock.Anything, "ghost@example.com").Return(nil, notFoundErr()).Once()

		graph := usergraph.NewGraph(repo)

		_, err := graph.Followers(ctx, "ghost@example.com")
		assertTextCode(t, err, usergraph.ErrUserNotFound)
	})
}
