package recipe

import (
	"context"
	"errors"
	"fmt"
	"log"

	"foodgram-backend/domain"
	"foodgram-backend/entities"
	"foodgram-backend/internal/utils/storage"
	"foodgram-backend/pkg/ingredient"
	"foodgram-backend/pkg/tag"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type (
	RecipeService interface {
		GetRecipes(ctx context.Context, filter domain.RecipeFilter, viewerID string) ([]domain.RecipeResponse, int64, error)
		GetRecipeDetail(ctx context.Context, recipeID string, viewerID string) (domain.RecipeResponse, error)
		CreateRecipe(ctx context.Context, req domain.CreateRecipeRequest, userID string) (domain.RecipeResponse, error)
		UpdateRecipe(ctx context.Context, recipeID string, req domain.UpdateRecipeRequest, userID, role string) (domain.RecipeResponse, error)
		UploadRecipeImage(ctx context.Context, recipeID string, req domain.UploadRecipeImageRequest, userID, role string) (string, error)
		DeleteRecipe(ctx context.Context, recipeID string, userID, role string) error

		AddFavorite(ctx context.Context, userID, recipeID string) (domain.RecipeSummary, error)
		RemoveFavorite(ctx context.Context, userID, recipeID string) error
		AddToCart(ctx context.Context, userID, recipeID string) (domain.RecipeSummary, error)
		RemoveFromCart(ctx context.Context, userID, recipeID string) error
		DownloadShoppingList(ctx context.Context, userID string) (string, error)
	}

	recipeService struct {
		recipeRepository     RecipeRepository
		ingredientRepository ingredient.IngredientRepository
		tagRepository        tag.TagRepository
		s3                   storage.AwsS3
	}
)

func NewRecipeService(
	recipeRepository RecipeRepository,
	ingredientRepository ingredient.IngredientRepository,
	tagRepository tag.TagRepository,
	s3 storage.AwsS3,
) RecipeService {
	return &recipeService{
		recipeRepository:     recipeRepository,
		ingredientRepository: ingredientRepository,
		tagRepository:        tagRepository,
		s3:                   s3,
	}
}

// CanModify is the authorization policy for recipe update and delete:
// the author or an admin, nobody else.
func CanModify(userID, role string, recipe *entities.Recipe) bool {
	return role == domain.RoleAdmin || recipe.AuthorID.String() == userID
}

// MergeIngredientLines folds an incoming ingredient list into one row per
// ingredient. A repeated ingredient id within the list merges additively
// into the existing row; first-occurrence order is preserved. Every list
// submission replaces the previous set in full, so the merge never spans
// submissions.
func MergeIngredientLines(recipeID uuid.UUID, lines []domain.IngredientAmount) ([]*entities.RecipeIngredient, error) {
	byIngredient := make(map[uuid.UUID]*entities.RecipeIngredient, len(lines))
	rows := make([]*entities.RecipeIngredient, 0, len(lines))

	for _, line := range lines {
		ingredientID, err := uuid.Parse(line.ID)
		if err != nil {
			return nil, domain.ErrInvalidIngredientID
		}
		if existing, ok := byIngredient[ingredientID]; ok {
			existing.Amount += line.Amount
			continue
		}
		row := &entities.RecipeIngredient{
			ID:           uuid.New(),
			RecipeID:     recipeID,
			IngredientID: ingredientID,
			Amount:       line.Amount,
		}
		byIngredient[ingredientID] = row
		rows = append(rows, row)
	}
	return rows, nil
}

func (s *recipeService) validateIngredients(ctx context.Context, lines []domain.IngredientAmount) error {
	if len(lines) == 0 {
		return domain.ErrNoIngredients
	}
	for _, line := range lines {
		if line.Amount <= 0 {
			return domain.ErrAmountNotPositive
		}
		if _, err := uuid.Parse(line.ID); err != nil {
			return domain.ErrInvalidIngredientID
		}
		if _, err := s.ingredientRepository.GetIngredientByID(ctx, line.ID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrIngredientNotFound
			}
			return err
		}
	}
	return nil
}

func validateTags(tagIDs []string) error {
	if len(tagIDs) == 0 {
		return domain.ErrNoTags
	}
	seen := make(map[string]struct{}, len(tagIDs))
	for _, id := range tagIDs {
		if _, ok := seen[id]; ok {
			return domain.ErrDuplicateTag
		}
		seen[id] = struct{}{}
	}
	return nil
}

func validateCookingTime(minutes int) error {
	if minutes < domain.MinCookingTime || minutes > domain.MaxCookingTime {
		return domain.ErrInvalidCookingTime
	}
	return nil
}

func (s *recipeService) resolveTags(ctx context.Context, recipeID uuid.UUID, tagIDs []string) ([]*entities.RecipeTag, error) {
	rows := make([]*entities.RecipeTag, 0, len(tagIDs))
	for _, id := range tagIDs {
		t, err := s.tagRepository.GetTagByID(ctx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, domain.ErrTagNotFound
			}
			return nil, err
		}
		rows = append(rows, &entities.RecipeTag{
			ID:       uuid.New(),
			RecipeID: recipeID,
			TagID:    t.ID,
		})
	}
	return rows, nil
}

func toRecipeSummary(recipe *entities.Recipe) domain.RecipeSummary {
	return domain.RecipeSummary{
		ID:          recipe.ID.String(),
		Name:        recipe.Name,
		ImageURL:    recipe.ImageURL,
		CookingTime: recipe.CookingTime,
	}
}

func toRecipeResponse(recipe *entities.Recipe, isFavorited, isInCart bool) domain.RecipeResponse {
	res := domain.RecipeResponse{
		ID:               recipe.ID.String(),
		Name:             recipe.Name,
		ImageURL:         recipe.ImageURL,
		Text:             recipe.Text,
		CookingTime:      recipe.CookingTime,
		Tags:             make([]domain.TagResponse, 0, len(recipe.Tags)),
		Ingredients:      make([]domain.RecipeIngredientResponse, 0, len(recipe.Ingredients)),
		IsFavorited:      isFavorited,
		IsInShoppingCart: isInCart,
	}

	if recipe.Author != nil {
		res.Author = domain.UserResponse{
			ID:        recipe.Author.ID.String(),
			Email:     recipe.Author.Email,
			Username:  recipe.Author.Username,
			FirstName: recipe.Author.FirstName,
			LastName:  recipe.Author.LastName,
		}
	}
	for _, rt := range recipe.Tags {
		if rt.Tag == nil {
			continue
		}
		res.Tags = append(res.Tags, domain.TagResponse{
			ID:    rt.Tag.ID.String(),
			Name:  rt.Tag.Name,
			Color: rt.Tag.Color,
			Slug:  rt.Tag.Slug,
		})
	}
	for _, ri := range recipe.Ingredients {
		if ri.Ingredient == nil {
			continue
		}
		res.Ingredients = append(res.Ingredients, domain.RecipeIngredientResponse{
			ID:              ri.Ingredient.ID.String(),
			Name:            ri.Ingredient.Name,
			MeasurementUnit: ri.Ingredient.MeasurementUnit,
			Amount:          ri.Amount,
		})
	}
	return res
}

// recipeFlags resolves the viewer-specific response flags. An anonymous
// viewer gets false flags; a failed lookup propagates.
func (s *recipeService) recipeFlags(ctx context.Context, recipeID, viewerID string) (bool, bool, error) {
	if viewerID == "" {
		return false, false, nil
	}
	isFavorited, err := s.recipeRepository.IsFavorited(ctx, viewerID, recipeID)
	if err != nil {
		return false, false, err
	}
	isInCart, err := s.recipeRepository.IsInCart(ctx, viewerID, recipeID)
	if err != nil {
		return false, false, err
	}
	return isFavorited, isInCart, nil
}

func (s *recipeService) GetRecipes(ctx context.Context, filter domain.RecipeFilter, viewerID string) ([]domain.RecipeResponse, int64, error) {
	recipes, count, err := s.recipeRepository.GetRecipes(ctx, filter, viewerID)
	if err != nil {
		return nil, 0, err
	}

	res := make([]domain.RecipeResponse, 0, len(recipes))
	for _, recipe := range recipes {
		isFavorited, isInCart, err := s.recipeFlags(ctx, recipe.ID.String(), viewerID)
		if err != nil {
			return nil, 0, err
		}
		res = append(res, toRecipeResponse(recipe, isFavorited, isInCart))
	}
	return res, count, nil
}

func (s *recipeService) GetRecipeDetail(ctx context.Context, recipeID string, viewerID string) (domain.RecipeResponse, error) {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.RecipeResponse{}, domain.ErrRecipeNotFound
		}
		return domain.RecipeResponse{}, err
	}

	isFavorited, isInCart, err := s.recipeFlags(ctx, recipeID, viewerID)
	if err != nil {
		return domain.RecipeResponse{}, err
	}
	return toRecipeResponse(recipe, isFavorited, isInCart), nil
}

func (s *recipeService) CreateRecipe(ctx context.Context, req domain.CreateRecipeRequest, userID string) (domain.RecipeResponse, error) {
	// all checks run before any persistence side effect
	if err := s.validateIngredients(ctx, req.Ingredients); err != nil {
		return domain.RecipeResponse{}, err
	}
	if err := validateTags(req.Tags); err != nil {
		return domain.RecipeResponse{}, err
	}
	if err := validateCookingTime(req.CookingTime); err != nil {
		return domain.RecipeResponse{}, err
	}

	authorUUID, err := uuid.Parse(userID)
	if err != nil {
		return domain.RecipeResponse{}, domain.ErrParseUUID
	}

	recipeID := uuid.New()
	ingredientRows, err := MergeIngredientLines(recipeID, req.Ingredients)
	if err != nil {
		return domain.RecipeResponse{}, err
	}
	tagRows, err := s.resolveTags(ctx, recipeID, req.Tags)
	if err != nil {
		return domain.RecipeResponse{}, err
	}

	recipe := &entities.Recipe{
		ID:          recipeID,
		AuthorID:    authorUUID,
		Name:        req.Name,
		Text:        req.Text,
		CookingTime: req.CookingTime,
	}

	if err := s.recipeRepository.CreateRecipe(ctx, recipe, ingredientRows, tagRows); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.RecipeResponse{}, domain.ErrRecipeNameTaken
		}
		return domain.RecipeResponse{}, err
	}

	return s.GetRecipeDetail(ctx, recipeID.String(), userID)
}

func (s *recipeService) UpdateRecipe(ctx context.Context, recipeID string, req domain.UpdateRecipeRequest, userID, role string) (domain.RecipeResponse, error) {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.RecipeResponse{}, domain.ErrRecipeNotFound
		}
		return domain.RecipeResponse{}, err
	}

	if !CanModify(userID, role, recipe) {
		return domain.RecipeResponse{}, domain.ErrUnauthorizedRecipeAccess
	}

	var ingredientRows []*entities.RecipeIngredient
	if req.Ingredients != nil {
		if err := s.validateIngredients(ctx, req.Ingredients); err != nil {
			return domain.RecipeResponse{}, err
		}
		ingredientRows, err = MergeIngredientLines(recipe.ID, req.Ingredients)
		if err != nil {
			return domain.RecipeResponse{}, err
		}
	}

	var tagRows []*entities.RecipeTag
	if req.Tags != nil {
		if err := validateTags(req.Tags); err != nil {
			return domain.RecipeResponse{}, err
		}
		tagRows, err = s.resolveTags(ctx, recipe.ID, req.Tags)
		if err != nil {
			return domain.RecipeResponse{}, err
		}
	}

	if req.CookingTime != 0 {
		if err := validateCookingTime(req.CookingTime); err != nil {
			return domain.RecipeResponse{}, err
		}
		recipe.CookingTime = req.CookingTime
	}
	if req.Name != "" {
		recipe.Name = req.Name
	}
	if req.Text != "" {
		recipe.Text = req.Text
	}

	if err := s.recipeRepository.UpdateRecipe(ctx, recipe, ingredientRows, tagRows); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.RecipeResponse{}, domain.ErrRecipeNameTaken
		}
		return domain.RecipeResponse{}, err
	}

	return s.GetRecipeDetail(ctx, recipeID, userID)
}

// UploadRecipeImage stores the recipe photo and records its public link.
// An existing photo is overwritten in place.
func (s *recipeService) UploadRecipeImage(ctx context.Context, recipeID string, req domain.UploadRecipeImageRequest, userID, role string) (string, error) {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", domain.ErrRecipeNotFound
		}
		return "", err
	}

	if !CanModify(userID, role, recipe) {
		return "", domain.ErrUnauthorizedRecipeAccess
	}

	var objectKey string
	var uploadErr error
	existingKey := ""
	if recipe.ImageURL != "" {
		existingKey = s.s3.GetObjectKeyFromLink(recipe.ImageURL)
	}
	if existingKey != "" {
		objectKey, uploadErr = s.s3.UpdateFile(existingKey, req.Image, storage.AllowImage...)
	} else {
		fileName := fmt.Sprintf("recipe-%s", recipe.ID.String())
		objectKey, uploadErr = s.s3.UploadFile(fileName, req.Image, "recipes", storage.AllowImage...)
	}
	if uploadErr != nil {
		return "", uploadErr
	}

	recipe.ImageURL = s.s3.GetPublicLinkKey(objectKey)
	if err := s.recipeRepository.UpdateRecipe(ctx, recipe, nil, nil); err != nil {
		return "", err
	}
	return recipe.ImageURL, nil
}

func (s *recipeService) DeleteRecipe(ctx context.Context, recipeID string, userID, role string) error {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrRecipeNotFound
		}
		return err
	}

	if !CanModify(userID, role, recipe) {
		return domain.ErrUnauthorizedRecipeAccess
	}

	if recipe.ImageURL != "" {
		objectKey := s.s3.GetObjectKeyFromLink(recipe.ImageURL)
		if objectKey != "" {
			// image cleanup is best effort; the row still goes away
			if err := s.s3.DeleteFile(objectKey); err != nil {
				log.Printf("failed to delete recipe image %s: %v", objectKey, err)
			}
		}
	}

	return s.recipeRepository.DeleteRecipe(ctx, recipeID)
}

func (s *recipeService) AddFavorite(ctx context.Context, userID, recipeID string) (domain.RecipeSummary, error) {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.RecipeSummary{}, domain.ErrRecipeNotFound
		}
		return domain.RecipeSummary{}, err
	}

	exists, err := s.recipeRepository.IsFavorited(ctx, userID, recipeID)
	if err != nil {
		return domain.RecipeSummary{}, err
	}
	if exists {
		return domain.RecipeSummary{}, domain.ErrAlreadyFavorited
	}

	if err := s.recipeRepository.AddFavorite(ctx, userID, recipeID); err != nil {
		// constraint backstop when two requests race past the check
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.RecipeSummary{}, domain.ErrAlreadyFavorited
		}
		return domain.RecipeSummary{}, err
	}

	return toRecipeSummary(recipe), nil
}

func (s *recipeService) RemoveFavorite(ctx context.Context, userID, recipeID string) error {
	deleted, err := s.recipeRepository.RemoveFavorite(ctx, userID, recipeID)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return domain.ErrNotFavorited
	}
	return nil
}

func (s *recipeService) AddToCart(ctx context.Context, userID, recipeID string) (domain.RecipeSummary, error) {
	recipe, err := s.recipeRepository.GetRecipeByID(ctx, recipeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.RecipeSummary{}, domain.ErrRecipeNotFound
		}
		return domain.RecipeSummary{}, err
	}

	exists, err := s.recipeRepository.IsInCart(ctx, userID, recipeID)
	if err != nil {
		return domain.RecipeSummary{}, err
	}
	if exists {
		return domain.RecipeSummary{}, domain.ErrAlreadyInCart
	}

	if err := s.recipeRepository.AddToCart(ctx, userID, recipeID); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.RecipeSummary{}, domain.ErrAlreadyInCart
		}
		return domain.RecipeSummary{}, err
	}

	return toRecipeSummary(recipe), nil
}

func (s *recipeService) RemoveFromCart(ctx context.Context, userID, recipeID string) error {
	deleted, err := s.recipeRepository.RemoveFromCart(ctx, userID, recipeID)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return domain.ErrNotInCart
	}
	return nil
}

func (s *recipeService) DownloadShoppingList(ctx context.Context, userID string) (string, error) {
	items, err := s.recipeRepository.GetCartIngredients(ctx, userID)
	if err != nil {
		return "", err
	}
	return BuildShoppingList(items), nil
}
