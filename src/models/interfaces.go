package models

import (
	"context"
	"time"
)

// StateStore keeps OAuth state keyed by the browser's OAuth session id.
type StateStore interface {
	Save(ctx context.Context, sessionID string, state *OAuthState, ttl time.Duration) error
	// Load returns nil, nil when nothing is stored for sessionID.
	Load(ctx context.Context, sessionID string) (*OAuthState, error)
}

// IdentityProvider talks to the provider's token and userinfo endpoints.
type IdentityProvider interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*ProviderToken, error)
	FetchUserInfo(ctx context.Context, accessToken string) (*UserInfo, error)
}

// BindingStore persists identity bindings. Both upserts are atomic on sub.
type BindingStore interface {
	GetBinding(ctx context.Context, sub string) (*IdentityBinding, error)
	SaveProviderToken(ctx context.Context, sub string, token *ProviderToken, now time.Time) error
	BindAccount(ctx context.Context, sub string, account *Account, now time.Time) error
	// ClaimBinding points sub at account unless another account already holds it.
	ClaimBinding(ctx context.Context, sub string, account *Account, now time.Time) (bool, error)
	ListBoundUsers(ctx context.Context) ([]BoundUser, error)
}

// AccountStore is the host application's user store.
type AccountStore interface {
	GetAccount(ctx context.Context, id uint64) (*Account, error)
	FindAccountByName(ctx context.Context, username string) (*Account, error)
	IsUsableName(username string) bool
	CreateAccount(ctx context.Context, account *Account) error
	SaveAccount(ctx context.Context, account *Account) error
	Groups(ctx context.Context, userID uint64) ([]string, error)
	AddToGroup(ctx context.Context, userID uint64, group string) error
}

// Directory combines accounts and bindings so provisioning can run in one transaction.
type Directory interface {
	AccountStore
	BindingStore
	WithinTransaction(ctx context.Context, fn func(Directory) error) error
}

type SessionStore interface {
	CreateSession(ctx context.Context, account *Account) (*Session, error)
	GetSession(ctx context.Context, sessionID string) (*Session, error)
	DeleteSession(ctx context.Context, sessionID string) error
	RefreshSession(ctx context.Context, sessionID string) error
	Duration() time.Duration
}

// JSONCache stores small JSON documents for the configured cache TTL.
type JSONCache interface {
	Get(ctx context.Context, key string, v any) (bool, error)
	Set(ctx context.Context, key string, v any) error
	Delete(ctx context.Context, key string) error
}

// AccountAdmin backs the provisioned-accounts admin page.
type AccountAdmin interface {
	ListBoundUsers(ctx context.Context) ([]BoundUser, error)
	PurgeFederatedAccount(ctx context.Context, sub string, userID uint64) error
}
