package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/modelhub/portal/internal/model"
)

// GetProfile returns the signed-in user's profile.
func (c *Client) GetProfile(ctx context.Context, token string) (*model.Profile, error) {
	var p model.Profile
	if err := c.do(ctx, "get_profile", token, http.MethodGet, "/users/me", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// UpdateProfile saves profile changes and returns the stored profile.
func (c *Client) UpdateProfile(ctx context.Context, token string, in model.ProfileUpdate) (*model.Profile, error) {
	var p model.Profile
	if err := c.do(ctx, "update_profile", token, http.MethodPut, "/users/me", in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ChangePassword changes the user's password.
func (c *Client) ChangePassword(ctx context.Context, token string, in model.PasswordChange) error {
	body := struct {
		CurrentPassword string `json:"current_password"`
		NewPassword     string `json:"new_password"`
	}{in.CurrentPassword, in.NewPassword}
	return c.do(ctx, "change_password", token, http.MethodPost, "/users/me/password", body, nil)
}

// ListSubscriptions returns every subscription of the user.
func (c *Client) ListSubscriptions(ctx context.Context, token string) ([]model.Subscription, error) {
	var subs []model.Subscription
	if err := c.do(ctx, "list_subscriptions", token, http.MethodGet, "/subscriptions", nil, &subs); err != nil {
		return nil, err
	}
	if subs == nil {
		subs = []model.Subscription{}
	}
	return subs, nil
}

// GetSubscription returns one subscription.
func (c *Client) GetSubscription(ctx context.Context, token, id string) (*model.Subscription, error) {
	var s model.Subscription
	if err := c.do(ctx, "get_subscription", token, http.MethodGet, "/subscriptions/"+url.PathEscape(id), nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateSubscription creates a subscription after a successful checkout.
func (c *Client) CreateSubscription(ctx context.Context, token string, dto model.SubscriptionDTO) (*model.Subscription, error) {
	var s model.Subscription
	if err := c.do(ctx, "create_subscription", token, http.MethodPost, "/subscriptions", dto, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// ListAPIKeys returns the user's API keys with masked secrets.
func (c *Client) ListAPIKeys(ctx context.Context, token string) ([]model.APIKey, error) {
	var keys []model.APIKey
	if err := c.do(ctx, "list_api_keys", token, http.MethodGet, "/api-keys", nil, &keys); err != nil {
		return nil, err
	}
	if keys == nil {
		keys = []model.APIKey{}
	}
	return keys, nil
}
