package router

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"

	"eventhub/internal/auth"
	"eventhub/internal/config"
	"eventhub/internal/handler"
)

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	tokenStore auth.TokenStoreInterface,
	authHandler *handler.AuthHandler,
	eventHandler *handler.EventHandler,
	registrationHandler *handler.RegistrationHandler,
	userHandler *handler.UserHandler,
	notificationHandler *handler.NotificationHandler,
) {
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	// Add validator
	e.Validator = &CustomValidator{validator: validator.New()}

	e.GET("/healthz", func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// Public routes
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)
	api.POST("/auth/logout", authHandler.Logout)

	// Secured routes (require JWT authentication)
	secured := api.Group("", echojwt.WithConfig(echojwt.Config{
		SigningKey:  []byte(cfg.JWTSecret),
		TokenLookup: "header:" + echo.HeaderAuthorization,
		NewClaimsFunc: func(c echo.Context) jwt.Claims {
			return new(auth.Claims)
		},
	}), rejectBlacklisted(tokenStore))

	secured.PUT("/auth/password", authHandler.ChangePassword)

	// Event routes
	secured.GET("/events", eventHandler.ListEvents)
	secured.GET("/events/:id", eventHandler.GetEvent)
	secured.POST("/events", eventHandler.CreateEvent)
	secured.PUT("/events/:id", eventHandler.UpdateEvent)
	secured.DELETE("/events/:id", eventHandler.DeleteEvent)

	// Registration routes
	secured.POST("/events/:id/register", registrationHandler.Register)
	secured.DELETE("/events/:id/register", registrationHandler.Unregister)
	secured.GET("/events/:id/registration", registrationHandler.Status)

	// Feedback routes
	secured.POST("/events/:id/feedback", eventHandler.SubmitFeedback)
	secured.GET("/events/:id/feedback", eventHandler.ListFeedback)

	// User management routes (admin only, enforced in handlers)
	secured.GET("/users", userHandler.ListUsers)
	secured.GET("/users/:id", userHandler.GetUser)
	secured.POST("/users", userHandler.CreateUser)
	secured.PUT("/users/:id/active", userHandler.SetActive)
	secured.PUT("/users/:id/password", userHandler.SetPassword)

	// Notification routes
	secured.GET("/notifications", notificationHandler.ListMine)
	secured.PUT("/notifications/:id/read", notificationHandler.MarkRead)
}

// rejectBlacklisted refuses access tokens that were revoked at logout. Runs
// after the JWT middleware, so the token in context is already validated.
func rejectBlacklisted(tokenStore auth.TokenStoreInterface) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := c.Get("user").(*jwt.Token)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			claims, ok := token.Claims.(*auth.Claims)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token claims")
			}
			if claims.ID != "" {
				blacklisted, err := tokenStore.IsAccessTokenBlacklisted(c.Request().Context(), claims.ID)
				if err == nil && blacklisted {
					return echo.NewHTTPError(http.StatusUnauthorized, "token revoked")
				}
			}
			return next(c)
		}
	}
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
