package handlers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/tidwall/gjson"

	"www.github.com/Wanderer0074348/LinkedInAuth/src/config"
	"www.github.com/Wanderer0074348/LinkedInAuth/src/models"
)

const (
	statusOK    = "ok"
	statusWarn  = "warn"
	statusError = "error"

	probeTimeout = 5 * time.Second
)

// Prober checks that the provider's OpenID configuration is reachable and
// agrees with the configured endpoints.
type Prober struct {
	cfg    *config.LinkedInConfig
	client *http.Client
}

func NewProber(cfg *config.LinkedInConfig) *Prober {
	return &Prober{
		cfg:    cfg,
		client: &http.Client{Timeout: probeTimeout},
	}
}

func (p *Prober) Probe(ctx context.Context) []models.ProbeResult {
	const label = "openid-configuration"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.OpenIDConfigURL, nil)
	if err != nil {
		return []models.ProbeResult{{Label: label, Status: statusError, Detail: err.Error()}}
	}

	start := time.Now()
	resp, err := p.client.Do(req)
	if err != nil {
		return []models.ProbeResult{{Label: label, Status: statusError, Detail: err.Error()}}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return []models.ProbeResult{{Label: label, Status: statusError, Detail: err.Error()}}
	}
	if resp.StatusCode != http.StatusOK {
		return []models.ProbeResult{{Label: label, Status: statusError, Detail: fmt.Sprintf("HTTP %d", resp.StatusCode)}}
	}
	if !gjson.ValidBytes(body) {
		return []models.ProbeResult{{Label: label, Status: statusError, Detail: "response is not JSON"}}
	}

	doc := gjson.ParseBytes(body)
	results := []models.ProbeResult{{
		Label:  label,
		Status: statusOK,
		Detail: fmt.Sprintf("issuer %s (%d ms)", doc.Get("issuer").String(), time.Since(start).Milliseconds()),
	}}

	for _, ep := range []struct {
		key        string
		configured string
	}{
		{"authorization_endpoint", p.cfg.AuthURL},
		{"token_endpoint", p.cfg.TokenURL},
		{"userinfo_endpoint", p.cfg.UserInfoURL},
	} {
		advertised := doc.Get(ep.key).String()
		switch {
		case advertised == "":
			results = append(results, models.ProbeResult{Label: ep.key, Status: statusWarn, Detail: "not advertised"})
		case advertised != ep.configured:
			results = append(results, models.ProbeResult{Label: ep.key, Status: statusWarn, Detail: "provider advertises " + advertised})
		default:
			results = append(results, models.ProbeResult{Label: ep.key, Status: statusOK, Detail: advertised})
		}
	}
	return results
}
