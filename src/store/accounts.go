package store

import (
	"context"
	"fmt"
	"net"
	"strings"
	"unicode"
	"unicode/utf8"

	"gorm.io/gorm/clause"

	"www.github.com/Wanderer0074348/LinkedInAuth/src/models"
)

const (
	maxUsernameBytes = 255
	invalidNameChars = "#<>[]|{}/@:"
)

func (s *Store) GetAccount(ctx context.Context, id uint64) (*models.Account, error) {
	var account models.Account
	if err := s.db.WithContext(ctx).First(&account, id).Error; err != nil {
		return nil, notFound(err)
	}
	return &account, nil
}

func (s *Store) FindAccountByName(ctx context.Context, username string) (*models.Account, error) {
	var account models.Account
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&account).Error; err != nil {
		return nil, notFound(err)
	}
	return &account, nil
}

// IsUsableName applies the host's username rules: canonical capitalization,
// no reserved names, no IP addresses and none of the title-breaking characters.
func (s *Store) IsUsableName(username string) bool {
	if username == "" || username != strings.TrimSpace(username) || len(username) > maxUsernameBytes {
		return false
	}
	if strings.ContainsAny(username, invalidNameChars) || strings.Contains(username, "  ") {
		return false
	}
	for _, r := range username {
		if unicode.IsControl(r) || r == '_' {
			return false
		}
	}
	if first, _ := utf8.DecodeRuneInString(username); unicode.IsLower(first) {
		return false
	}
	if net.ParseIP(username) != nil {
		return false
	}
	if _, reserved := s.reservedNames[strings.ToLower(username)]; reserved {
		return false
	}
	return true
}

func (s *Store) CreateAccount(ctx context.Context, account *models.Account) error {
	if err := s.db.WithContext(ctx).Create(account).Error; err != nil {
		if isDuplicate(err) {
			return fmt.Errorf("%s: %w", account.Username, models.ErrNameTaken)
		}
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

func (s *Store) SaveAccount(ctx context.Context, account *models.Account) error {
	if err := s.db.WithContext(ctx).Save(account).Error; err != nil {
		return fmt.Errorf("failed to save account: %w", err)
	}
	return nil
}

func (s *Store) Groups(ctx context.Context, userID uint64) ([]string, error) {
	var groups []string
	err := s.db.WithContext(ctx).Model(&models.UserGroup{}).
		Where("user_id = ?", userID).
		Order("group_name").
		Pluck("group_name", &groups).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load groups: %w", err)
	}
	return groups, nil
}

func (s *Store) AddToGroup(ctx context.Context, userID uint64, group string) error {
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&models.UserGroup{UserID: userID, GroupName: group}).Error
	if err != nil {
		return fmt.Errorf("failed to add user %d to %s: %w", userID, group, err)
	}
	return nil
}
