package domain

import (
	"errors"
	"mime/multipart"
)

type UploadRecipeImageRequest struct {
	Image *multipart.FileHeader `validate:"required"`
}

const (
	MinCookingTime = 5
	MaxCookingTime = 1440
)

var (
	MessageSuccessGetRecipes      = "success get recipes"
	MessageSuccessGetRecipeDetail = "success get recipe detail"
	MessageSuccessCreateRecipe    = "recipe created successfully"
	MessageSuccessUpdateRecipe    = "recipe updated successfully"
	MessageSuccessUploadImage     = "recipe image uploaded successfully"
	MessageSuccessDeleteRecipe    = "recipe deleted successfully"

	MessageFailedGetRecipes      = "failed to get recipes"
	MessageFailedGetRecipeDetail = "failed to get recipe detail"
	MessageFailedCreateRecipe    = "failed to create recipe"
	MessageFailedUpdateRecipe    = "failed to update recipe"
	MessageFailedUploadImage     = "failed to upload recipe image"
	MessageFailedDeleteRecipe    = "failed to delete recipe"

	ErrRecipeNotFound           = errors.New("recipe not found")
	ErrRecipeNameTaken          = errors.New("recipe name already taken")
	ErrUnauthorizedRecipeAccess = errors.New("unauthorized access to recipe")

	ErrNoIngredients       = errors.New("no ingredients selected")
	ErrAmountNotPositive   = errors.New("amount must be positive")
	ErrInvalidIngredientID = errors.New("invalid ingredient id")
	ErrNoTags              = errors.New("no tags selected")
	ErrDuplicateTag        = errors.New("duplicate tag")
	ErrInvalidCookingTime  = errors.New("cooking time must be between 5 and 1440 minutes")
)

type (
	// IngredientAmount is one line of an incoming ingredient list. Amount
	// is deliberately untagged: the service rejects non-positive amounts
	// with its own message instead of a generic validator error.
	IngredientAmount struct {
		ID     string `json:"id" validate:"required"`
		Amount int    `json:"amount"`
	}

	CreateRecipeRequest struct {
		Name        string             `json:"name" validate:"required,max=100"`
		Text        string             `json:"text" validate:"required"`
		CookingTime int                `json:"cooking_time" validate:"required"`
		Ingredients []IngredientAmount `json:"ingredients"`
		Tags        []string           `json:"tags"`
	}

	// UpdateRecipeRequest treats nil Ingredients/Tags as "leave untouched";
	// a present list fully replaces the existing set.
	UpdateRecipeRequest struct {
		Name        string             `json:"name,omitempty"`
		Text        string             `json:"text,omitempty"`
		CookingTime int                `json:"cooking_time,omitempty"`
		Ingredients []IngredientAmount `json:"ingredients,omitempty"`
		Tags        []string           `json:"tags,omitempty"`
	}

	RecipeIngredientResponse struct {
		ID              string `json:"id"`
		Name            string `json:"name"`
		MeasurementUnit string `json:"measurement_unit"`
		Amount          int    `json:"amount"`
	}

	// RecipeSummary is the lightweight view returned by favorite and
	// shopping-cart actions.
	RecipeSummary struct {
		ID          string `json:"id"`
		Name        string `json:"name"`
		ImageURL    string `json:"image_url,omitempty"`
		CookingTime int    `json:"cooking_time"`
	}

	RecipeResponse struct {
		ID               string                     `json:"id"`
		Author           UserResponse               `json:"author"`
		Name             string                     `json:"name"`
		ImageURL         string                     `json:"image_url,omitempty"`
		Text             string                     `json:"text"`
		CookingTime      int                        `json:"cooking_time"`
		Tags             []TagResponse              `json:"tags"`
		Ingredients      []RecipeIngredientResponse `json:"ingredients"`
		IsFavorited      bool                       `json:"is_favorited"`
		IsInShoppingCart bool                       `json:"is_in_shopping_cart"`
	}

	// RecipeFilter is the query-parameter surface of the recipe list.
	RecipeFilter struct {
		AuthorID         string
		TagSlugs         []string
		IsFavorited      bool
		IsInShoppingCart bool
		Page             int
		Limit            int
	}
)
