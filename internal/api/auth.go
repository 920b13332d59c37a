package api

import "context"

// Login exchanges admin credentials for a bearer token (unauthenticated).
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	data, err := c.post(ctx, "/api/auth/login", LoginInput{Email: email, Password: password})
	if err != nil {
		return nil, err
	}
	return decode[LoginResponse](data)
}
