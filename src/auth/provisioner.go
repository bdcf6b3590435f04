package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"www.github.com/Wanderer0074348/LinkedInAuth/src/config"
	"www.github.com/Wanderer0074348/LinkedInAuth/src/models"
)

const maxClaimAttempts = 3

// errLostRace means another request bound the subject first.
var errLostRace = errors.New("binding claimed concurrently")

// Provisioner finds or creates the local account for a verified identity.
type Provisioner struct {
	dir models.Directory
	cfg config.AccountsConfig
	now func() time.Time
}

func NewProvisioner(dir models.Directory, cfg config.AccountsConfig) *Provisioner {
	return &Provisioner{dir: dir, cfg: cfg, now: time.Now}
}

// Resolve returns the account bound to claims.Sub, creating and binding one
// when none exists. Calling it twice for the same subject yields the same
// account.
func (p *Provisioner) Resolve(ctx context.Context, claims *models.HandoffPayload) (*models.Account, error) {
	for attempt := 0; attempt < maxClaimAttempts; attempt++ {
		account, err := p.lookup(ctx, p.dir, claims.Sub)
		switch {
		case err == nil:
			if err := p.refresh(ctx, account, claims); err != nil {
				return nil, err
			}
		case errors.Is(err, models.ErrNotFound):
			account, err = p.create(ctx, claims)
			if errors.Is(err, errLostRace) {
				continue
			}
			if err != nil {
				return nil, err
			}
		default:
			return nil, err
		}

		if err := p.dir.AddToGroup(ctx, account.ID, p.cfg.ApprovedGroup); err != nil {
			return nil, err
		}
		return account, nil
	}
	return nil, fmt.Errorf("could not bind %s after %d attempts: %w", claims.Sub, maxClaimAttempts, models.ErrAccountProvisioning)
}

func (p *Provisioner) lookup(ctx context.Context, dir models.Directory, sub string) (*models.Account, error) {
	binding, err := dir.GetBinding(ctx, sub)
	if err != nil {
		return nil, err
	}
	if binding.UserID == 0 {
		return nil, models.ErrNotFound
	}
	return dir.GetAccount(ctx, binding.UserID)
}

// refresh copies changed profile details onto an existing account.
func (p *Provisioner) refresh(ctx context.Context, account *models.Account, claims *models.HandoffPayload) error {
	changed := false
	if claims.Email != "" && account.Email != claims.Email {
		now := p.now()
		account.Email = claims.Email
		account.EmailAuthenticatedAt = &now
		changed = true
	}
	if name := strings.TrimSpace(claims.Name); account.RealName == "" && name != "" {
		account.RealName = name
		changed = true
	}
	if !changed {
		return nil
	}
	return p.dir.SaveAccount(ctx, account)
}

func (p *Provisioner) create(ctx context.Context, claims *models.HandoffPayload) (*models.Account, error) {
	var created *models.Account
	err := p.dir.WithinTransaction(ctx, func(tx models.Directory) error {
		stale := false
		binding, err := tx.GetBinding(ctx, claims.Sub)
		switch {
		case err == nil && binding.UserID != 0:
			_, err := tx.GetAccount(ctx, binding.UserID)
			if err == nil {
				return errLostRace
			}
			if !errors.Is(err, models.ErrNotFound) {
				return err
			}
			// bound account was removed out from under us
			stale = true
		case err != nil && !errors.Is(err, models.ErrNotFound):
			return err
		}

		username, err := p.pickName(ctx, tx, claims)
		if err != nil {
			return err
		}

		now := p.now()
		account := &models.Account{
			Username:             username,
			Email:                claims.Email,
			EmailAuthenticatedAt: &now,
		}
		account.RealName = realName(claims, username)
		if err := tx.CreateAccount(ctx, account); err != nil {
			if errors.Is(err, models.ErrNameTaken) {
				return errLostRace
			}
			return err
		}

		if stale {
			if err := tx.BindAccount(ctx, claims.Sub, account, now); err != nil {
				return err
			}
		} else {
			claimed, err := tx.ClaimBinding(ctx, claims.Sub, account, now)
			if err != nil {
				return err
			}
			if !claimed {
				return errLostRace
			}
		}

		created = account
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// pickName probes the base name and then "base 1" ... "base N".
func (p *Provisioner) pickName(ctx context.Context, dir models.AccountStore, claims *models.HandoffPayload) (string, error) {
	base := BaseUsername(claims, p.cfg.PlaceholderName, p.cfg.NameSuffix)
	for i := 0; i <= p.cfg.MaxNameAttempts; i++ {
		candidate := base
		if i > 0 {
			candidate = base + " " + strconv.Itoa(i)
		}
		if !dir.IsUsableName(candidate) {
			continue
		}
		_, err := dir.FindAccountByName(ctx, candidate)
		if errors.Is(err, models.ErrNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", fmt.Errorf("no free username for %q: %w", base, models.ErrAccountProvisioning)
}

// BaseUsername builds the preferred username from the given and family
// names, falling back to the first and last words of the display name.
func BaseUsername(claims *models.HandoffPayload, placeholder, suffix string) string {
	name := cleanName(claims.GivenName + " " + claims.FamilyName)
	if name == "" {
		words := strings.Fields(cleanName(claims.Name))
		switch len(words) {
		case 0:
		case 1:
			name = words[0]
		default:
			name = words[0] + " " + words[len(words)-1]
		}
	}
	if name == "" {
		name = placeholder
	}
	return upperFirst(name) + suffix
}

func realName(claims *models.HandoffPayload, fallback string) string {
	if name := strings.TrimSpace(claims.Name); name != "" {
		return name
	}
	return fallback
}

// cleanName drops characters that are not allowed in usernames and collapses
// whitespace.
func cleanName(s string) string {
	s = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) || strings.ContainsRune("#<>[]|{}/@:_", r) {
			return ' '
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
