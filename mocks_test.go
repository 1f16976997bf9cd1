package usergraph_test

import (
	"context"
	"database/sql"
	"errors"

	"github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-usergraph"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/uptrace/bun"
)

// MockUsers implements usergraph.Users. The embedded Repository interface
// satisfies the methods none of these tests reach.
type MockUsers struct {
	mock.Mock
	repository.Repository[*usergraph.User]
}

func (m *MockUsers) GetByID(ctx context.Context, id string, criteria ...repository.SelectCriteria) (*usergraph.User, error) {
	args := m.Called(ctx, id)
	if u := args.Get(0); u != nil {
		return u.(*usergraph.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUsers) GetByEmail(ctx context.Context, email string) (*usergraph.User, error) {
	args := m.Called(ctx, email)
	if u := args.Get(0); u != nil {
		return u.(*usergraph.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUsers) GetByEmailTx(ctx context.Context, tx bun.IDB, email string) (*usergraph.User, error) {
	return m.GetByEmail(ctx, email)
}

func (m *MockUsers) GetByUsername(ctx context.Context, username string) (*usergraph.User, error) {
	args := m.Called(ctx, username)
	if u := args.Get(0); u != nil {
		return u.(*usergraph.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUsers) GetByUsernameTx(ctx context.Context, tx bun.IDB, username string) (*usergraph.User, error) {
	return m.GetByUsername(ctx, username)
}

func (m *MockUsers) GetByActivationToken(ctx context.Context, token string) (*usergraph.User, error) {
	args := m.Called(ctx, token)
	if u := args.Get(0); u != nil {
		return u.(*usergraph.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUsers) GetByActivationTokenTx(ctx context.Context, tx bun.IDB, token string) (*usergraph.User, error) {
	return m.GetByActivationToken(ctx, token)
}

func (m *MockUsers) Create(ctx context.Context, record *usergraph.User, criteria ...repository.InsertCriteria) (*usergraph.User, error) {
	args := m.Called(ctx, record)
	if u := args.Get(0); u != nil {
		return u.(*usergraph.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockUsers) CreateTx(ctx context.Context, tx bun.IDB, record *usergraph.User, criteria ...repository.InsertCriteria) (*usergraph.User, error) {
	return m.Create(ctx, record)
}

func (m *MockUsers) Activate(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUsers) ActivateTx(ctx context.Context, tx bun.IDB, id uuid.UUID) error {
	return m.Activate(ctx, id)
}

// MockRefreshTokens implements usergraph.RefreshTokens
type MockRefreshTokens struct {
	mock.Mock
}

func (m *MockRefreshTokens) Save(ctx context.Context, userID uuid.UUID, token string) error {
	args := m.Called(ctx, userID, token)
	return args.Error(0)
}

func (m *MockRefreshTokens) SaveTx(ctx context.Context, tx bun.IDB, userID uuid.UUID, token string) error {
	return m.Save(ctx, userID, token)
}

func (m *MockRefreshTokens) Find(ctx context.Context, token string) (*usergraph.RefreshToken, error) {
	args := m.Called(ctx, token)
	if r := args.Get(0); r != nil {
		return r.(*usergraph.RefreshToken), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockRefreshTokens) FindTx(ctx context.Context, tx bun.IDB, token string) (*usergraph.RefreshToken, error) {
	return m.Find(ctx, token)
}

func (m *MockRefreshTokens) Remove(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockRefreshTokens) RemoveTx(ctx context.Context, tx bun.IDB, token string) error {
	return m.Remove(ctx, token)
}

// MockFollows implements usergraph.Follows
type MockFollows struct {
	mock.Mock
}

func (m *MockFollows) Exists(ctx context.Context, followeeID, followerID uuid.UUID) (bool, error) {
	args := m.Called(ctx, followeeID, followerID)
	return args.Bool(0), args.Error(1)
}

func (m *MockFollows) ExistsTx(ctx context.Context, tx bun.IDB, followeeID, followerID uuid.UUID) (bool, error) {
	return m.Exists(ctx, followeeID, followerID)
}

func (m *MockFollows) CreateTx(ctx context.Context, tx bun.IDB, followerID, followeeID uuid.UUID) error {
	args := m.Called(ctx, followerID, followeeID)
	return args.Error(0)
}

func (m *MockFollows) DeleteTx(ctx context.Context, tx bun.IDB, followerID, followeeID uuid.UUID) error {
	args := m.Called(ctx, followerID, followeeID)
	return args.Error(0)
}

func (m *MockFollows) FollowersOf(ctx context.Context, userID uuid.UUID) ([]*usergraph.User, error) {
	args := m.Called(ctx, userID)
	if r := args.Get(0); r != nil {
		return r.([]*usergraph.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockFollows) SubscriptionsOf(ctx context.Context, userID uuid.UUID) ([]*usergraph.User, error) {
	args := m.Called(ctx, userID)
	if r := args.Get(0); r != nil {
		return r.([]*usergraph.User), args.Error(1)
	}
	return nil, args.Error(1)
}

// MockRepositoryManager implements usergraph.RepositoryManager. RunInTx
// runs the callback directly so transactional paths are exercised without
// a live database.
type MockRepositoryManager struct {
	users         *MockUsers
	refreshTokens *MockRefreshTokens
	follows       *MockFollows
}

func newMockRepositoryManager() *MockRepositoryManager {
	return &MockRepositoryManager{
		users:         new(MockUsers),
		refreshTokens: new(MockRefreshTokens),
		follows:       new(MockFollows),
	}
}

func (m *MockRepositoryManager) Validate() error { return nil }
func (m *MockRepositoryManager) MustValidate()   {}

func (m *MockRepositoryManager) RunInTx(ctx context.Context, opts *sql.TxOptions, f func(ctx context.Context, tx bun.Tx) error) error {
	return f(ctx, bun.Tx{})
}

func (m *MockRepositoryManager) Users() usergraph.Users                 { return m.users }
func (m *MockRepositoryManager) RefreshTokens() usergraph.RefreshTokens { return m.refreshTokens }
func (m *MockRepositoryManager) Follows() usergraph.Follows             { return m.follows }

// plainHasher keeps password tests fast and deterministic.
type plainHasher struct{}

func (plainHasher) HashPassword(password string) (string, error) {
	return "plain:" + password, nil
}

func (plainHasher) ComparePasswordAndHash(password, hash string) error {
	if "plain:"+password != hash {
		return usergraph.ErrMismatchedHashAndPassword
	}
	return nil
}

func newTestConfig() usergraph.ConfigValues {
	return usergraph.ConfigValues{
		AccessSigningKey:  "access-secret",
		RefreshSigningKey: "refresh-secret",
		Issuer:            "usergraph-test",
		ActivationBaseURL: "https://app.example.com",
	}
}

func notFoundErr() error {
	return repository.NewRecordNotFound()
}

var errBoom = errors.New("boom")
