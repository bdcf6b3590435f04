package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"
	"www.github.com/Wanderer0074348/LinkedInAuth/src/models"
)

// MockIdentityProvider implements models.IdentityProvider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) AuthCodeURL(state string) string {
	args := m.Called(state)
	return args.String(0)
}

func (m *MockIdentityProvider) Exchange(ctx context.Context, code string) (*models.ProviderToken, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProviderToken), args.Error(1)
}

func (m *MockIdentityProvider) FetchUserInfo(ctx context.Context, accessToken string) (*models.UserInfo, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UserInfo), args.Error(1)
}

// MockStateStore implements models.StateStore
type MockStateStore struct {
	mock.Mock
}

func (m *MockStateStore) Save(ctx context.Context, sessionID string, state *models.OAuthState, ttl time.Duration) error {
	args := m.Called(ctx, sessionID, state, ttl)
	return args.Error(0)
}

func (m *MockStateStore) Load(ctx context.Context, sessionID string) (*models.OAuthState, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OAuthState), args.Error(1)
}

// MockSessionStore implements models.SessionStore
type MockSessionStore struct {
	mock.Mock
}

func (m *MockSessionStore) CreateSession(ctx context.Context, account *models.Account) (*models.Session, error) {
	args := m.Called(ctx, account)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockSessionStore) GetSession(ctx context.Context, sessionID string) (*models.Session, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *MockSessionStore) DeleteSession(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func (m *MockSessionStore) RefreshSession(ctx context.Context, sessionID string) error {
	args := m.Called(ctx, sessionID)
	return args.Error(0)
}

func (m *MockSessionStore) Duration() time.Duration {
	args := m.Called()
	return args.Get(0).(time.Duration)
}
