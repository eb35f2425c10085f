package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/netip"
	"strings"

	"github.com/aussiebroadwan/geoadmin/internal/auth/domain"
)

const (
	DefaultIPAPIURL  = "https://ipapi.co"
	DefaultIPInfoURL = "https://ipinfo.io"

	maxResponseBytes = 64 << 10
)

type location domain.Location

func (l location) withDefaults() domain.Location {
	out := domain.Location(l)
	if strings.TrimSpace(out.City) == "" {
		out.City = Unknown
	}
	if strings.TrimSpace(out.Country) == "" {
		out.Country = Unknown
	}
	return out
}

// IPAPI queries ipapi.co ({base}/{ip}/json/).
type IPAPI struct {
	BaseURL string
}

func (p *IPAPI) Name() string { return "ipapi" }

type ipapiResponse struct {
	City        string `json:"city"`
	CountryName string `json:"country_name"`
	Error       bool   `json:"error"`
	Reason      string `json:"reason"`
}

func (p *IPAPI) Lookup(ctx context.Context, client *http.Client, ip netip.Addr) (domain.Location, error) {
	base := p.BaseURL
	if base == "" {
		base = DefaultIPAPIURL
	}

	var body ipapiResponse
	if err := getJSON(ctx, client, strings.TrimRight(base, "/")+"/"+ip.String()+"/json/", &body); err != nil {
		return domain.Location{}, err
	}
	if body.Error {
		return domain.Location{}, fmt.Errorf("%w: ipapi: %s", errLookupFailed, body.Reason)
	}
	return domain.Location{City: body.City, Country: body.CountryName}, nil
}

// IPInfo queries ipinfo.io ({base}/{ip}/json).
type IPInfo struct {
	BaseURL string
}

func (p *IPInfo) Name() string { return "ipinfo" }

type ipinfoResponse struct {
	City    string          `json:"city"`
	Country string          `json:"country"`
	Bogon   bool            `json:"bogon"`
	Error   json.RawMessage `json:"error"`
}

func (p *IPInfo) Lookup(ctx context.Context, client *http.Client, ip netip.Addr) (domain.Location, error) {
	base := p.BaseURL
	if base == "" {
		base = DefaultIPInfoURL
	}

	var body ipinfoResponse
	if err := getJSON(ctx, client, strings.TrimRight(base, "/")+"/"+ip.String()+"/json", &body); err != nil {
		return domain.Location{}, err
	}
	if body.Bogon {
		return domain.Location{}, fmt.Errorf("%w: ipinfo: bogon address", errLookupFailed)
	}
	if len(body.Error) > 0 && string(body.Error) != "null" {
		return domain.Location{}, fmt.Errorf("%w: ipinfo: %s", errLookupFailed, body.Error)
	}
	return domain.Location{City: body.City, Country: body.Country}, nil
}

func getJSON(ctx context.Context, client *http.Client, url string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return fmt.Errorf("%w: status %d", errLookupFailed, resp.StatusCode)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseBytes)).Decode(dst); err != nil {
		return fmt.Errorf("%w: decode: %v", errLookupFailed, err)
	}
	return nil
}
