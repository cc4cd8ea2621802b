package middleware

import (
	"net/http/httptest"
	"testing"

	"foodgram-backend/domain"
	"foodgram-backend/pkg/jwt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// favoriteApp mounts the auth middleware in front of a favorite-removal
// route the way the route table does, with a handler that records whether
// it ran.
func favoriteApp(jwtService jwt.JWTService, reached *bool) *fiber.App {
	app := fiber.New()
	m := NewMiddleware()
	app.Delete("/api/v1/recipes/:id/favorite", m.AuthMiddleware(jwtService), func(c *fiber.Ctx) error {
		*reached = true
		return c.SendStatus(fiber.StatusNoContent)
	})
	return app
}

func TestAuthMiddlewareRejectsAnonymousFavoriteRemoval(t *testing.T) {
	jwtService := jwt.NewJWTService()
	var reached bool
	app := favoriteApp(jwtService, &reached)

	// the recipe id does not matter: an anonymous caller is rejected
	// before any lookup, whether or not the favorite exists
	for _, recipeID := range []string{uuid.New().String(), uuid.New().String()} {
		req := httptest.NewRequest(fiber.MethodDelete, "/api/v1/recipes/"+recipeID+"/favorite", nil)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
	}
	assert.False(t, reached)
}

func TestAuthMiddlewareRejectsMalformedHeader(t *testing.T) {
	jwtService := jwt.NewJWTService()
	var reached bool
	app := favoriteApp(jwtService, &reached)

	cases := map[string]string{
		"no bearer prefix": jwtService.GenerateTokenUser(uuid.New().String(), domain.RoleUser),
		"garbage token":    "Bearer not.a.token",
	}
	for name, header := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(fiber.MethodDelete, "/api/v1/recipes/"+uuid.New().String()+"/favorite", nil)
			req.Header.Set("Authorization", header)
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
		})
	}
	assert.False(t, reached)
}

func TestAuthMiddlewareAcceptsValidToken(t *testing.T) {
	jwtService := jwt.NewJWTService()
	var reached bool
	app := favoriteApp(jwtService, &reached)

	token := jwtService.GenerateTokenUser(uuid.New().String(), domain.RoleUser)
	req := httptest.NewRequest(fiber.MethodDelete, "/api/v1/recipes/"+uuid.New().String()+"/favorite", nil)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusNoContent, resp.StatusCode)
	assert.True(t, reached)
}

func TestOptionalAuthMiddlewareLetsAnonymousThrough(t *testing.T) {
	jwtService := jwt.NewJWTService()
	app := fiber.New()
	m := NewMiddleware()
	app.Get("/api/v1/recipes", m.OptionalAuthMiddleware(jwtService), func(c *fiber.Ctx) error {
		_, hasUser := c.Locals("user_id").(string)
		return c.JSON(fiber.Map{"authenticated": hasUser})
	})

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/api/v1/recipes", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestOptionalAuthMiddlewareSetsLocalsForValidToken(t *testing.T) {
	jwtService := jwt.NewJWTService()
	userID := uuid.New().String()
	app := fiber.New()
	m := NewMiddleware()

	var gotUserID string
	app.Get("/api/v1/recipes", m.OptionalAuthMiddleware(jwtService), func(c *fiber.Ctx) error {
		gotUserID, _ = c.Locals("user_id").(string)
		return c.SendStatus(fiber.StatusOK)
	})

	req := httptest.NewRequest(fiber.MethodGet, "/api/v1/recipes", nil)
	req.Header.Set("Authorization", "Bearer "+jwtService.GenerateTokenUser(userID, domain.RoleUser))
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, userID, gotUserID)
}
