package api

import (
	"context"
	"net/http"

	"github.com/sudharshan41/apartmentrentalportal/internal/model"
)

type UserClient struct {
	core *core
}

func (c *UserClient) List(ctx context.Context) ([]model.User, error) {
	var out []model.User
	if err := c.core.do(ctx, "list users", http.MethodGet, "/users", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

type DashboardClient struct {
	core *core
}

func (c *DashboardClient) Stats(ctx context.Context) (model.DashboardStats, error) {
	var out model.DashboardStats
	if err := c.core.do(ctx, "dashboard stats", http.MethodGet, "/stats/dashboard", nil, nil, &out); err != nil {
		return model.DashboardStats{}, err
	}
	return out, nil
}
