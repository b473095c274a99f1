package api

import (
	"context"
	"net/http"

	"github.com/sudharshan41/apartmentrentalportal/internal/model"
)

type TowerClient struct {
	core *core
}

func (c *TowerClient) List(ctx context.Context) ([]model.Tower, error) {
	var out []model.Tower
	if err := c.core.do(ctx, "list towers", http.MethodGet, "/towers", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *TowerClient) Get(ctx context.Context, id int64) (model.Tower, error) {
	var out model.Tower
	if err := c.core.do(ctx, "get tower", http.MethodGet, idPath("towers", id), nil, nil, &out); err != nil {
		return model.Tower{}, err
	}
	return out, nil
}

func (c *TowerClient) Create(ctx context.Context, tower model.Tower) (model.Tower, error) {
	if err := tower.Validate(); err != nil {
		return model.Tower{}, err
	}
	var out model.Tower
	if err := c.core.do(ctx, "create tower", http.MethodPost, "/towers", nil, tower, &out); err != nil {
		return model.Tower{}, err
	}
	return out, nil
}

func (c *TowerClient) Update(ctx context.Context, id int64, tower model.Tower) (model.Tower, error) {
	if err := tower.Validate(); err != nil {
		return model.Tower{}, err
	}
	var out model.Tower
	if err := c.core.do(ctx, "update tower", http.MethodPut, idPath("towers", id), nil, tower, &out); err != nil {
		return model.Tower{}, err
	}
	return out, nil
}

func (c *TowerClient) Delete(ctx context.Context, id int64) error {
	return c.core.do(ctx, "delete tower", http.MethodDelete, idPath("towers", id), nil, nil, nil)
}
