package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/swyde/swyde-backend/internal/domain/models"
)

type PlaceRepository interface {
	GetPlaces(ctx context.Context) ([]*models.Place, error)
	GetPlaceByID(ctx context.Context, id uuid.UUID) (*models.Place, error)
}

type placeRepo struct {
	db *sqlx.DB
}

func NewPlaceRepo(db *sqlx.DB) PlaceRepository {
	return &placeRepo{db: db}
}

func (r *placeRepo) GetPlaces(ctx context.Context) ([]*models.Place, error) {
	var places []*models.Place

	query := `
		SELECT id, name, address, rating, price_range, image_url, website_url, contact_number, created_at
		FROM places
		ORDER BY created_at
	`

	err := r.db.SelectContext(ctx, &places, query)
	if err != nil {
		return nil, fmt.Errorf("get places: %w", err)
	}

	return places, nil
}

func (r *placeRepo) GetPlaceByID(ctx context.Context, id uuid.UUID) (*models.Place, error) {
	var place models.Place

	err := r.db.GetContext(ctx, &place, "SELECT * FROM places WHERE id = $1", id)
	if err != nil {
		return nil, mapNoRows(err)
	}

	return &place, nil
}
