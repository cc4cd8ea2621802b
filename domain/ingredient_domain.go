package domain

import "errors"

var (
	MessageSuccessGetIngredients   = "success get ingredients"
	MessageSuccessCreateIngredient = "ingredient created successfully"
	MessageSuccessDeleteIngredient = "ingredient deleted successfully"

	MessageFailedGetIngredients   = "failed to get ingredients"
	MessageFailedCreateIngredient = "failed to create ingredient"
	MessageFailedDeleteIngredient = "failed to delete ingredient"

	ErrIngredientNotFound = errors.New("ingredient not found")
	ErrIngredientInUse    = errors.New("ingredient is used by a recipe and cannot be deleted")
)

type (
	CreateIngredientRequest struct {
		Name            string `json:"name" validate:"required,max=100"`
		MeasurementUnit string `json:"measurement_unit" validate:"required,max=100"`
	}

	IngredientResponse struct {
		ID              string `json:"id"`
		Name            string `json:"name"`
		MeasurementUnit string `json:"measurement_unit"`
	}
)
