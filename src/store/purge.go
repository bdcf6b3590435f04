package store

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"www.github.com/Wanderer0074348/LinkedInAuth/src/models"
)

// PurgeFederatedAccount hard-deletes the binding for sub and the account it
// points to. Accounts with edits or logged activity are left alone.
// A non-zero userID must match the bound account.
func (s *Store) PurgeFederatedAccount(ctx context.Context, sub string, userID uint64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var binding models.IdentityBinding
		if err := tx.Where("sub = ?", sub).First(&binding).Error; err != nil {
			return notFound(err)
		}
		if userID != 0 && binding.UserID != userID {
			return fmt.Errorf("%s is bound to %d: %w", sub, binding.UserID, models.ErrUserMismatch)
		}

		var account models.Account
		if binding.UserID != 0 {
			err := tx.First(&account, binding.UserID).Error
			if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
		}
		if account.ID == 0 {
			// nothing provisioned yet, or the account is already gone
			return tx.Where("sub = ?", sub).Delete(&models.IdentityBinding{}).Error
		}

		var activity int64
		if err := tx.Model(&models.ActivityLog{}).Where("user_id = ?", account.ID).Count(&activity).Error; err != nil {
			return err
		}
		if account.EditCount > 0 || activity > 0 {
			return fmt.Errorf("%s has %d edits and %d log entries: %w",
				account.Username, account.EditCount, activity, models.ErrIntegrityGuard)
		}

		if err := tx.Where("sub = ? OR user_id = ?", sub, account.ID).Delete(&models.IdentityBinding{}).Error; err != nil {
			return fmt.Errorf("failed to delete bindings of %s: %w", account.Username, err)
		}
		for _, dependent := range []interface{}{
			&models.UserGroup{},
			&models.UserPreference{},
			&models.WatchlistItem{},
		} {
			if err := tx.Where("user_id = ?", account.ID).Delete(dependent).Error; err != nil {
				return fmt.Errorf("failed to delete dependents of %s: %w", account.Username, err)
			}
		}
		return tx.Delete(&account).Error
	})
}
