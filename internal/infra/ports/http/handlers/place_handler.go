package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/swyde/swyde-backend/internal/application/constant"
	"github.com/swyde/swyde-backend/internal/infra/adapters/postgres/repository"
	"github.com/swyde/swyde-backend/internal/usecase"
)

type PlaceHandler struct {
	placeUsecase usecase.PlaceUsecase
}

func NewPlaceHandler(placeUsecase usecase.PlaceUsecase) *PlaceHandler {
	return &PlaceHandler{placeUsecase: placeUsecase}
}

func (h *PlaceHandler) ListPlacesHandler(c echo.Context) error {
	places, err := h.placeUsecase.GetPlaces(c.Request().Context())
	if err != nil {
		slog.Error("get places", slog.Any(constant.Error, err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to get places"})
	}

	return c.JSON(http.StatusOK, places)
}

func (h *PlaceHandler) GetPlaceHandler(c echo.Context) error {
	placeID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid place id"})
	}

	place, err := h.placeUsecase.GetPlaceByID(c.Request().Context(), placeID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "place not found"})
		}

		slog.Error("get place", slog.Any(constant.Error, err))
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "failed to get place"})
	}

	return c.JSON(http.StatusOK, place)
}
