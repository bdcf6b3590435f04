package models

import (
	"time"
)

const (
	CtxKeyAccount   = "account"
	CtxKeyGroups    = "groups"
	CtxKeySession   = "session"
	CtxKeyRequestID = "request_id"
)

// Account is a local user of the host application.
type Account struct {
	ID                   uint64     `gorm:"primaryKey" json:"id"`
	Username             string     `gorm:"uniqueIndex;size:255;not null" json:"username"`
	Email                string     `gorm:"size:255" json:"email"`
	EmailAuthenticatedAt *time.Time `json:"email_authenticated_at,omitempty"`
	RealName             string     `gorm:"size:255" json:"real_name"`
	EditCount            int        `gorm:"default:0" json:"edit_count"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// IdentityBinding maps a LinkedIn subject to a local account.
type IdentityBinding struct {
	Sub         string    `gorm:"primaryKey;size:191" json:"sub"`
	UserID      uint64    `gorm:"index;default:0" json:"user_id"`
	Username    string    `gorm:"size:255" json:"username"`
	AccessToken string    `gorm:"type:text" json:"-"`
	ExpiresAt   time.Time `json:"expires_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type UserGroup struct {
	UserID    uint64 `gorm:"primaryKey;autoIncrement:false"`
	GroupName string `gorm:"primaryKey;size:64"`
}

type UserPreference struct {
	UserID uint64 `gorm:"primaryKey;autoIncrement:false"`
	Name   string `gorm:"primaryKey;size:64"`
	Value  string
}

type WatchlistItem struct {
	UserID uint64 `gorm:"primaryKey;autoIncrement:false"`
	Page   string `gorm:"primaryKey;size:255"`
}

// ActivityLog records edits and logged actions attributed to an account.
type ActivityLog struct {
	ID        uint64 `gorm:"primaryKey"`
	UserID    uint64 `gorm:"index"`
	Kind      string `gorm:"size:32"`
	CreatedAt time.Time
}

// BoundUser is one row of the provisioned accounts listing.
type BoundUser struct {
	Sub            string    `json:"sub"`
	Email          string    `json:"email"`
	Name           string    `json:"name"`
	UserID         uint64    `json:"user_id"`
	Username       string    `json:"username"`
	TokenUpdatedAt time.Time `json:"token_updated_at"`
}

// OAuthState is kept server-side between the login and callback requests.
type OAuthState struct {
	CSRF     string `json:"csrf"`
	ReturnTo string `json:"returnTo"`
}

// UserInfo is the provider's OpenID Connect userinfo response.
type UserInfo struct {
	Sub        string `json:"sub"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Picture    string `json:"picture"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
}

// HandoffPayload carries verified claims from the callback to the auto-login endpoint.
type HandoffPayload struct {
	Sub        string `json:"sub"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Picture    string `json:"picture"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	ReturnTo   string `json:"returnTo"`
	Exp        int64  `json:"exp"`
}

// Expired reports whether the payload is no longer usable at now.
func (p *HandoffPayload) Expired(now time.Time) bool {
	return p.Exp <= now.Unix()
}

type Session struct {
	ID        string    `json:"id"`
	UserID    uint64    `json:"user_id"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

type ProviderToken struct {
	AccessToken string
	ExpiresAt   time.Time
}

type ProbeResult struct {
	Label  string `json:"label"`
	Status string `json:"status"`
	Detail string `json:"detail"`
}
