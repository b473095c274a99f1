package api

import (
	"context"
	"net/http"

	"github.com/sudharshan41/apartmentrentalportal/internal/model"
)

type AmenityClient struct {
	core *core
}

func (c *AmenityClient) List(ctx context.Context) ([]model.Amenity, error) {
	var out []model.Amenity
	if err := c.core.do(ctx, "list amenities", http.MethodGet, "/amenities", nil, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AmenityClient) Get(ctx context.Context, id int64) (model.Amenity, error) {
	var out model.Amenity
	if err := c.core.do(ctx, "get amenity", http.MethodGet, idPath("amenities", id), nil, nil, &out); err != nil {
		return model.Amenity{}, err
	}
	return out, nil
}

func (c *AmenityClient) Create(ctx context.Context, amenity model.Amenity) (model.Amenity, error) {
	if err := amenity.Validate(); err != nil {
		return model.Amenity{}, err
	}
	var out model.Amenity
	if err := c.core.do(ctx, "create amenity", http.MethodPost, "/amenities", nil, amenity, &out); err != nil {
		return model.Amenity{}, err
	}
	return out, nil
}

func (c *AmenityClient) Update(ctx context.Context, id int64, amenity model.Amenity) (model.Amenity, error) {
	if err := amenity.Validate(); err != nil {
		return model.Amenity{}, err
	}
	var out model.Amenity
	if err := c.core.do(ctx, "update amenity", http.MethodPut, idPath("amenities", id), nil, amenity, &out); err != nil {
		return model.Amenity{}, err
	}
	return out, nil
}

func (c *AmenityClient) Delete(ctx context.Context, id int64) error {
	return c.core.do(ctx, "delete amenity", http.MethodDelete, idPath("amenities", id), nil, nil, nil)
}
