package api

import (
	"context"
	"fmt"
	"net/url"
)

const (
	bannersPath      = "/api/banners"
	updateBannerPath = "/api/banners/update"
)

// --- Banner Methods ---

// ListBanners returns banners, optionally filtered to one page.
func (c *Client) ListBanners(ctx context.Context, page string) ([]Banner, error) {
	data, err := c.get(ctx, buildQuery(bannersPath, QueryParams{"page": page}))
	if err != nil {
		return nil, err
	}
	resp, err := decode[bannerListResponse](data)
	if err != nil {
		return nil, err
	}
	if resp.Banners == nil && resp.Data != nil {
		return resp.Data, nil
	}
	return resp.Banners, nil
}

// GetBanner fetches a single banner by id.
func (c *Client) GetBanner(ctx context.Context, id string) (*Banner, error) {
	data, err := c.get(ctx, fmt.Sprintf("%s/%s", bannersPath, url.PathEscape(id)))
	if err != nil {
		return nil, err
	}
	resp, err := decode[bannerResponse](data)
	if err != nil {
		return nil, err
	}
	if resp.Banner == nil {
		return nil, fmt.Errorf("get banner %s: %w: missing banner", id, ErrMalformedResponse)
	}
	return resp.Banner, nil
}

// UpdateBanner replaces the editable fields of a banner with a PUT.
func (c *Client) UpdateBanner(ctx context.Context, id string, input UpdateBannerInput) (*UpdateBannerResult, error) {
	data, err := c.put(ctx, fmt.Sprintf("%s/%s", updateBannerPath, url.PathEscape(id)), input)
	if err != nil {
		return nil, err
	}
	return decode[UpdateBannerResult](data)
}
