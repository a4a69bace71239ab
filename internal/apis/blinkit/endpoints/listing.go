package endpoints

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"blinkitparser/internal/apis/blinkit/responses"
)

const listingBodyLimit = 4 * 1024 * 1024

// ListingQuery describes one listing_widgets call. Coordinates ride along as
// headers on every request instead of living on the client, so two pairs can
// never bleed into each other.
type ListingQuery struct {
	Lat string
	Lon string

	// Target is the page to fetch: the first-page path built by
	// InitialListingPath, or a next_url handed back by the server.
	Target string

	// Subsequent marks every page after the first.
	Subsequent bool
}

type listingBody struct {
	AppliedFilters   any  `json:"applied_filters"`
	IsSubsequentPage bool `json:"is_subsequent_page"`
}

type listingEnvelope struct {
	Response responses.ListingPage `json:"response"`
}

// InitialListingPath builds the first-page path for one category pair.
func InitialListingPath(l1CatID, l2CatID string, pageSize int) string {
	return fmt.Sprintf(
		"/v1/layout/listing_widgets?offset=0&limit=%d&l0_cat=%s&l1_cat=%s&page_index=1",
		pageSize, url.QueryEscape(l1CatID), url.QueryEscape(l2CatID),
	)
}

func (c *Client) ListingWidgets(ctx context.Context, q ListingQuery) (responses.ListingPage, error) {
	req, err := c.newReq(ctx, http.MethodPost, q.Target, listingBody{IsSubsequentPage: q.Subsequent})
	if err != nil {
		return responses.ListingPage{}, err
	}
	req.Header.Set("lat", q.Lat)
	req.Header.Set("lon", q.Lon)

	resp, err := c.Doer.Do(req)
	if err != nil {
		return responses.ListingPage{}, err
	}

	b, err := readLimited(resp, listingBodyLimit)
	if err != nil {
		return responses.ListingPage{}, err
	}

	if resp.StatusCode != http.StatusOK {
		return responses.ListingPage{}, ParseAPIError(resp.StatusCode, b)
	}

	var out listingEnvelope
	if err := decodeJSON(b, &out); err != nil {
		return responses.ListingPage{}, fmt.Errorf("ListingWidgets: decode: %w", err)
	}
	return out.Response, nil
}
