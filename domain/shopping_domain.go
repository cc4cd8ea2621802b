package domain

import "errors"

const ShoppingListFileName = "to_buy.txt"

var (
	MessageSuccessAddFavorite    = "recipe added to favorites"
	MessageSuccessRemoveFavorite = "recipe removed from favorites"
	MessageSuccessAddToCart      = "recipe added to shopping cart"
	MessageSuccessRemoveFromCart = "recipe removed from shopping cart"

	MessageFailedAddFavorite    = "failed to add recipe to favorites"
	MessageFailedRemoveFavorite = "failed to remove recipe from favorites"
	MessageFailedAddToCart      = "failed to add recipe to shopping cart"
	MessageFailedRemoveFromCart = "failed to remove recipe from shopping cart"
	MessageFailedDownloadList   = "failed to download shopping list"

	ErrAlreadyFavorited = errors.New("recipe already favorited")
	ErrNotFavorited     = errors.New("recipe is not in favorites")
	ErrAlreadyInCart    = errors.New("recipe already in shopping cart")
	ErrNotInCart        = errors.New("recipe is not in shopping cart")
)
