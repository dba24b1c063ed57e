package api

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
)

// accountResponse mirrors the /api/account JSON exactly.
// Unexported — callers use Account via toAccount() normalization.
type accountResponse struct {
	ID      string        `json:"id"`
	Email   string        `json:"email"`
	Storage *storageFacet `json:"storage"`
	Plan    string        `json:"plan"`
}

type storageFacet struct {
	Used  uint64 `json:"used"`
	Total uint64 `json:"total"`
}

type locationResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Country string `json:"country"`
}

// toAccount normalizes an account response. Nil-safe for the optional
// storage facet.
func (a *accountResponse) toAccount() Account {
	acct := Account{
		ID:    a.ID,
		Email: a.Email,
		Plan:  a.Plan,
	}

	if a.Storage != nil {
		acct.Storage = &Storage{
			Used:  a.Storage.Used,
			Total: a.Storage.Total,
		}
	}

	return acct
}

// Account returns the authenticated account's profile and quota.
func (c *Client) Account(ctx context.Context) (*Account, error) {
	c.logger.Info("fetching account")

	resp, err := c.do(ctx, http.MethodGet, "/api/account", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var ar accountResponse
	if err := json.NewDecoder(resp.Body).Decode(&ar); err != nil {
		return nil, fmt.Errorf("%w: decoding account response: %w", ErrDecode, err)
	}

	acct := ar.toAccount()

	c.logger.Debug("fetched account",
		slog.String("id", acct.ID),
		slog.String("plan", acct.Plan),
	)

	return &acct, nil
}

// Locations returns the server's storage locations.
func (c *Client) Locations(ctx context.Context) ([]Location, error) {
	c.logger.Info("listing storage locations")

	resp, err := c.do(ctx, http.MethodGet, "/api/locations", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var lrs []locationResponse
	if err := json.NewDecoder(resp.Body).Decode(&lrs); err != nil {
		return nil, fmt.Errorf("%w: decoding locations response: %w", ErrDecode, err)
	}

	locations := make([]Location, 0, len(lrs))
	for _, lr := range lrs {
		locations = append(locations, Location{
			ID:      lr.ID,
			Name:    lr.Name,
			Country: lr.Country,
		})
	}

	c.logger.Debug("listed locations",
		slog.Int("count", len(locations)),
	)

	return locations, nil
}
