package remote

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/mrops-br/hardware-storefront/internal/domain"
)

type roleResponse struct {
	Role string `json:"role"`
}

type adminResponse struct {
	Admin bool `json:"admin"`
}

type profileBody struct {
	Name string `json:"name"`
}

func (c *Client) CallerUserRole(ctx context.Context) (domain.UserRole, error) {
	var resp roleResponse
	if err := c.doJSON(ctx, "getCallerUserRole", http.MethodGet, "/caller/role", nil, &resp); err != nil {
		return domain.RoleGuest, err
	}
	return domain.UserRole(resp.Role), nil
}

func (c *Client) IsCallerAdmin(ctx context.Context) (bool, error) {
	var resp adminResponse
	if err := c.doJSON(ctx, "isCallerAdmin", http.MethodGet, "/caller/admin", nil, &resp); err != nil {
		return false, err
	}
	return resp.Admin, nil
}

// CallerUserProfile returns nil when the caller never saved a profile.
func (c *Client) CallerUserProfile(ctx context.Context) (*domain.UserProfile, error) {
	var raw json.RawMessage
	if err := c.doJSON(ctx, "getCallerUserProfile", http.MethodGet, "/caller/profile", nil, &raw); err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var body profileBody
	if err := json.Unmarshal(raw, &body); err != nil {
		return nil, nil
	}
	return &domain.UserProfile{Name: body.Name}, nil
}

func (c *Client) SaveCallerUserProfile(ctx context.Context, profile domain.UserProfile) error {
	return c.doJSON(ctx, "saveCallerUserProfile", http.MethodPut, "/caller/profile", profileBody{Name: profile.Name}, nil)
}
