package user

import (
	"context"
	"testing"

	"foodgram-backend/domain"
	"foodgram-backend/entities"
	"foodgram-backend/pkg/jwt"
	"foodgram-backend/pkg/recipe"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeUserRepository struct {
	byID    map[uuid.UUID]*entities.User
	follows map[string]map[string]bool
}

func newFakeUserRepository() *fakeUserRepository {
	return &fakeUserRepository{
		byID:    make(map[uuid.UUID]*entities.User),
		follows: make(map[string]map[string]bool),
	}
}

func (f *fakeUserRepository) CreateUser(_ context.Context, user *entities.User) error {
	for _, existing := range f.byID {
		if existing.Email == user.Email || existing.Username == user.Username {
			return gorm.ErrDuplicatedKey
		}
	}
	f.byID[user.ID] = user
	return nil
}

func (f *fakeUserRepository) GetUserByID(_ context.Context, id string) (*entities.User, error) {
	userID, err := uuid.Parse(id)
	if err != nil {
		return nil, gorm.ErrRecordNotFound
	}
	user, ok := f.byID[userID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return user, nil
}

func (f *fakeUserRepository) GetUserByEmail(_ context.Context, email string) (*entities.User, error) {
	for _, user := range f.byID {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeUserRepository) UpdateUser(_ context.Context, user *entities.User) error {
	f.byID[user.ID] = user
	return nil
}

func (f *fakeUserRepository) CreateFollow(_ context.Context, follow *entities.Follow) error {
	userID := follow.UserID.String()
	if f.follows[userID] == nil {
		f.follows[userID] = make(map[string]bool)
	}
	if f.follows[userID][follow.AuthorID.String()] {
		return gorm.ErrDuplicatedKey
	}
	f.follows[userID][follow.AuthorID.String()] = true
	return nil
}

func (f *fakeUserRepository) DeleteFollow(_ context.Context, userID, authorID string) (int64, error) {
	if f.follows[userID][authorID] {
		delete(f.follows[userID], authorID)
		return 1, nil
	}
	return 0, nil
}

func (f *fakeUserRepository) IsFollowing(_ context.Context, userID, authorID string) (bool, error) {
	return f.follows[userID][authorID], nil
}

func (f *fakeUserRepository) GetFollowedAuthors(_ context.Context, userID string) ([]*entities.User, error) {
	var authors []*entities.User
	for authorID := range f.follows[userID] {
		id, err := uuid.Parse(authorID)
		if err != nil {
			return nil, err
		}
		if author, ok := f.byID[id]; ok {
			authors = append(authors, author)
		}
	}
	return authors, nil
}

// stubRecipeRepository satisfies recipe.RecipeRepository for subscription
// listings; only GetRecipesByAuthor carries state.
type stubRecipeRepository struct {
	recipe.RecipeRepository
	byAuthor map[string][]*entities.Recipe
}

func (s *stubRecipeRepository) GetRecipesByAuthor(_ context.Context, authorID string) ([]*entities.Recipe, error) {
	return s.byAuthor[authorID], nil
}

func newUserServiceFixture() (UserService, *fakeUserRepository, *stubRecipeRepository) {
	repo := newFakeUserRepository()
	recipes := &stubRecipeRepository{byAuthor: make(map[string][]*entities.Recipe)}
	return NewUserService(repo, recipes, jwt.NewJWTService()), repo, recipes
}

func registeredUser(t *testing.T, service UserService, email, username string) domain.UserResponse {
	t.Helper()
	res, err := service.Register(context.Background(), domain.RegisterRequest{
		Email:     email,
		Username:  username,
		FirstName: "Test",
		LastName:  "User",
		Password:  "secret-pass",
	})
	require.NoError(t, err)
	return res
}

func TestRegisterAndLogin(t *testing.T) {
	service, _, _ := newUserServiceFixture()
	ctx := context.Background()

	res := registeredUser(t, service, "cook@example.com", "cook")
	assert.Equal(t, "cook@example.com", res.Email)
	assert.False(t, res.IsVerified)

	login, err := service.Login(ctx, domain.LoginRequest{Email: "cook@example.com", Password: "secret-pass"})
	require.NoError(t, err)
	assert.NotEmpty(t, login.Token)
	assert.Equal(t, domain.RoleUser, login.Role)

	_, err = service.Login(ctx, domain.LoginRequest{Email: "cook@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = service.Login(ctx, domain.LoginRequest{Email: "nobody@example.com", Password: "secret-pass"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	service, _, _ := newUserServiceFixture()

	registeredUser(t, service, "dup@example.com", "first")

	_, err := service.Register(context.Background(), domain.RegisterRequest{
		Email:     "dup@example.com",
		Username:  "second",
		FirstName: "Test",
		LastName:  "User",
		Password:  "secret-pass",
	})
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)
}

func TestSubscribeLifecycle(t *testing.T) {
	service, _, _ := newUserServiceFixture()
	ctx := context.Background()

	follower := registeredUser(t, service, "follower@example.com", "follower")
	author := registeredUser(t, service, "author@example.com", "author")

	res, err := service.Subscribe(ctx, follower.ID, author.ID)
	require.NoError(t, err)
	assert.True(t, res.IsSubscribed)

	_, err = service.Subscribe(ctx, follower.ID, author.ID)
	assert.ErrorIs(t, err, domain.ErrAlreadySubscribed)

	require.NoError(t, service.Unsubscribe(ctx, follower.ID, author.ID))
	assert.ErrorIs(t, service.Unsubscribe(ctx, follower.ID, author.ID), domain.ErrSubscriptionMissing)
}

func TestSubscribeSelfRejected(t *testing.T) {
	service, _, _ := newUserServiceFixture()

	me := registeredUser(t, service, "self@example.com", "self")
	_, err := service.Subscribe(context.Background(), me.ID, me.ID)
	assert.ErrorIs(t, err, domain.ErrSelfSubscription)
}

func TestSubscribeUnknownAuthor(t *testing.T) {
	service, _, _ := newUserServiceFixture()

	me := registeredUser(t, service, "lonely@example.com", "lonely")
	_, err := service.Subscribe(context.Background(), me.ID, uuid.New().String())
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestGetSubscriptionsIncludesAuthorRecipes(t *testing.T) {
	service, _, recipes := newUserServiceFixture()
	ctx := context.Background()

	follower := registeredUser(t, service, "reader@example.com", "reader")
	author := registeredUser(t, service, "chef@example.com", "chef")

	recipes.byAuthor[author.ID] = []*entities.Recipe{
		{ID: uuid.New(), Name: "Soup", CookingTime: 40},
	}

	_, err := service.Subscribe(ctx, follower.ID, author.ID)
	require.NoError(t, err)

	subs, err := service.GetSubscriptions(ctx, follower.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.Equal(t, author.ID, subs[0].Author.ID)
	assert.True(t, subs[0].Author.IsSubscribed)
	require.Len(t, subs[0].Recipes, 1)
	assert.Equal(t, "Soup", subs[0].Recipes[0].Name)
}

func TestUpdateUserPartialFields(t *testing.T) {
	service, _, _ := newUserServiceFixture()
	ctx := context.Background()

	me := registeredUser(t, service, "update@example.com", "oldname")

	res, err := service.UpdateUser(ctx, me.ID, domain.UpdateUserRequest{Username: "newname"})
	require.NoError(t, err)
	assert.Equal(t, "newname", res.Username)
	assert.Equal(t, "update@example.com", res.Email)
}
