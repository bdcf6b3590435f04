package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm/clause"

	"www.github.com/Wanderer0074348/LinkedInAuth/src/models"
)

func (s *Store) GetBinding(ctx context.Context, sub string) (*models.IdentityBinding, error) {
	var binding models.IdentityBinding
	if err := s.db.WithContext(ctx).Where("sub = ?", sub).First(&binding).Error; err != nil {
		return nil, notFound(err)
	}
	return &binding, nil
}

// SaveProviderToken records the latest access token for sub without touching
// the account it is bound to.
func (s *Store) SaveProviderToken(ctx context.Context, sub string, token *models.ProviderToken, now time.Time) error {
	expires := token.ExpiresAt
	if expires.IsZero() {
		expires = now
	}
	binding := models.IdentityBinding{
		Sub:         sub,
		AccessToken: token.AccessToken,
		ExpiresAt:   expires,
		UpdatedAt:   now,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "sub"}},
		DoUpdates: clause.AssignmentColumns([]string{"access_token", "expires_at", "updated_at"}),
	}).Create(&binding).Error
	if err != nil {
		return fmt.Errorf("failed to store provider token: %w", err)
	}
	return nil
}

// BindAccount points sub at account unconditionally.
func (s *Store) BindAccount(ctx context.Context, sub string, account *models.Account, now time.Time) error {
	binding := models.IdentityBinding{
		Sub:       sub,
		UserID:    account.ID,
		Username:  account.Username,
		ExpiresAt: now,
		UpdatedAt: now,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "sub"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "username", "updated_at"}),
	}).Create(&binding).Error
	if err != nil {
		return fmt.Errorf("failed to bind %s: %w", sub, err)
	}
	return nil
}

func (s *Store) ClaimBinding(ctx context.Context, sub string, account *models.Account, now time.Time) (bool, error) {
	binding := models.IdentityBinding{
		Sub:       sub,
		UserID:    account.ID,
		Username:  account.Username,
		ExpiresAt: now,
		UpdatedAt: now,
	}
	res := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "sub"}},
		DoUpdates: clause.AssignmentColumns([]string{"user_id", "username", "updated_at"}),
		Where: clause.Where{Exprs: []clause.Expression{
			clause.Expr{SQL: "identity_bindings.user_id IN (0, ?)", Vars: []interface{}{account.ID}},
		}},
	}).Create(&binding)
	if res.Error != nil {
		return false, fmt.Errorf("failed to claim %s: %w", sub, res.Error)
	}
	return res.RowsAffected > 0, nil
}

// ListBoundUsers returns every binding, including token-only rows and rows
// whose account is gone, so they can be purged.
func (s *Store) ListBoundUsers(ctx context.Context) ([]models.BoundUser, error) {
	var users []models.BoundUser
	err := s.db.WithContext(ctx).
		Table("identity_bindings AS b").
		Select("b.sub, COALESCE(a.email, '') AS email, COALESCE(a.real_name, '') AS name, " +
			"b.user_id, COALESCE(a.username, b.username, '') AS username, b.updated_at AS token_updated_at").
		Joins("LEFT JOIN accounts AS a ON a.id = b.user_id").
		Order("username, b.sub").
		Scan(&users).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list bound users: %w", err)
	}
	return users, nil
}
