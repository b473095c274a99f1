package api

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/sudharshan41/apartmentrentalportal/internal/model"
)

type UnitClient struct {
	core *core
}

// UnitFilter maps to the query parameters GET /units understands.
type UnitFilter struct {
	Status  string
	TowerID int64
}

func (f UnitFilter) query() url.Values {
	query := url.Values{}
	if f.Status != "" {
		query.Set("status", f.Status)
	}
	if f.TowerID != 0 {
		query.Set("tower_id", strconv.FormatInt(f.TowerID, 10))
	}
	return query
}

func (c *UnitClient) List(ctx context.Context, filter UnitFilter) ([]model.Unit, error) {
	var out []model.Unit
	if err := c.core.do(ctx, "list units", http.MethodGet, "/units", filter.query(), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *UnitClient) Get(ctx context.Context, id int64) (model.Unit, error) {
	var out model.Unit
	if err := c.core.do(ctx, "get unit", http.MethodGet, idPath("units", id), nil, nil, &out); err != nil {
		return model.Unit{}, err
	}
	return out, nil
}

func (c *UnitClient) Create(ctx context.Context, unit model.Unit) (model.Unit, error) {
	if err := unit.Validate(); err != nil {
		return model.Unit{}, err
	}
	var out model.Unit
	if err := c.core.do(ctx, "create unit", http.MethodPost, "/units", nil, unit, &out); err != nil {
		return model.Unit{}, err
	}
	return out, nil
}

func (c *UnitClient) Update(ctx context.Context, id int64, unit model.Unit) (model.Unit, error) {
	if err := unit.Validate(); err != nil {
		return model.Unit{}, err
	}
	var out model.Unit
	if err := c.core.do(ctx, "update unit", http.MethodPut, idPath("units", id), nil, unit, &out); err != nil {
		return model.Unit{}, err
	}
	return out, nil
}

func (c *UnitClient) Delete(ctx context.Context, id int64) error {
	return c.core.do(ctx, "delete unit", http.MethodDelete, idPath("units", id), nil, nil, nil)
}
