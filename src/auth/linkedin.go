package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/tidwall/gjson"
	"golang.org/x/oauth2"

	"www.github.com/Wanderer0074348/LinkedInAuth/src/config"
	"www.github.com/Wanderer0074348/LinkedInAuth/src/diag"
	"www.github.com/Wanderer0074348/LinkedInAuth/src/models"
)

const maxProviderBody = 1 << 20

// LinkedInProvider implements the authorization code flow against LinkedIn's
// OpenID Connect endpoints.
type LinkedInProvider struct {
	oauth       *oauth2.Config
	userInfoURL string
	client      *http.Client
	diag        *diag.Logger
}

func NewLinkedInProvider(cfg *config.LinkedInConfig, logger *diag.Logger) *LinkedInProvider {
	return &LinkedInProvider{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:   cfg.AuthURL,
				TokenURL:  cfg.TokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		userInfoURL: cfg.UserInfoURL,
		client:      &http.Client{Timeout: cfg.HTTPTimeout},
		diag:        logger,
	}
}

func (p *LinkedInProvider) AuthCodeURL(state string) string {
	return p.oauth.AuthCodeURL(state)
}

func (p *LinkedInProvider) Exchange(ctx context.Context, code string) (*models.ProviderToken, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.client)

	token, err := p.oauth.Exchange(ctx, code)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) {
			status := 0
			if re.Response != nil {
				status = re.Response.StatusCode
			}
			p.diag.Log("TOKEN_EXCHANGE_FAILED", diag.Fields{"status": status, "body": string(re.Body)})
			return nil, fmt.Errorf("token endpoint returned %d: %w", status, models.ErrTokenExchange)
		}
		p.diag.Log("TOKEN_EXCHANGE_FAILED", diag.Fields{"error": err.Error()})
		return nil, fmt.Errorf("%v: %w", err, models.ErrTokenExchange)
	}

	return &models.ProviderToken{
		AccessToken: token.AccessToken,
		ExpiresAt:   token.Expiry,
	}, nil
}

func (p *LinkedInProvider) FetchUserInfo(ctx context.Context, accessToken string) (*models.UserInfo, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.userInfoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		p.diag.Log("USERINFO_FAILED", diag.Fields{"error": err.Error()})
		return nil, fmt.Errorf("userinfo request: %v: %w", err, models.ErrProviderCommunication)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxProviderBody))
	if err != nil {
		return nil, fmt.Errorf("userinfo body: %v: %w", err, models.ErrProviderCommunication)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		p.diag.Log("USERINFO_FAILED", diag.Fields{"status": resp.StatusCode, "body": string(body)})
		return nil, fmt.Errorf("userinfo returned %d: %w", resp.StatusCode, models.ErrProviderCommunication)
	}
	if !gjson.ValidBytes(body) {
		p.diag.Log("USERINFO_FAILED", diag.Fields{"status": resp.StatusCode, "body": string(body)})
		return nil, fmt.Errorf("userinfo is not JSON: %w", models.ErrProviderCommunication)
	}

	fields := gjson.GetManyBytes(body, "sub", "name", "email", "picture", "given_name", "family_name")
	info := &models.UserInfo{
		Sub:        fields[0].String(),
		Name:       fields[1].String(),
		Email:      fields[2].String(),
		Picture:    fields[3].String(),
		GivenName:  fields[4].String(),
		FamilyName: fields[5].String(),
	}
	p.diag.Log("USERINFO", diag.Fields{"sub": info.Sub, "name": info.Name, "email": info.Email})

	if info.Sub == "" || info.Name == "" || info.Email == "" {
		return nil, fmt.Errorf("userinfo lacks sub/name/email: %w", models.ErrUserinfoMissing)
	}
	return info, nil
}
