package usecase

import (
	"context"

	"github.com/google/uuid"

	"github.com/swyde/swyde-backend/internal/domain/models"
	"github.com/swyde/swyde-backend/internal/infra/adapters/postgres/repository"
)

type PlaceUsecase interface {
	GetPlaces(ctx context.Context) ([]*models.Place, error)
	GetPlaceByID(ctx context.Context, id uuid.UUID) (*models.Place, error)
}

type placeUsecase struct {
	placeRepo repository.PlaceRepository
}

func NewPlaceUsecase(placeRepo repository.PlaceRepository) PlaceUsecase {
	return &placeUsecase{placeRepo: placeRepo}
}

func (uc *placeUsecase) GetPlaces(ctx context.Context) ([]*models.Place, error) {
	return uc.placeRepo.GetPlaces(ctx)
}

func (uc *placeUsecase) GetPlaceByID(ctx context.Context, id uuid.UUID) (*models.Place, error) {
	return uc.placeRepo.GetPlaceByID(ctx, id)
}
