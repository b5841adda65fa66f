// Аутентификация запросов по JWT.
//
// Токены выпускает основная платформа, сервис документов проверяет подпись общим секретом
// и загружает пользователя по claim user_id. Токен передается в заголовке Authorization: Bearer
// или в cookie access_token.
package coursehub

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aisa-it/coursehub/internal/coursehub/apierrors"
	"github.com/aisa-it/coursehub/internal/coursehub/dao"
	"github.com/gofrs/uuid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"gorm.io/gorm"
)

type AuthContext struct {
	echo.Context
	User        *dao.User
	AccessToken *Token
}

type AuthConfig struct {
	Skipper middleware.Skipper
	Secret  []byte
	DB      *gorm.DB
}

type Token struct {
	JWT          *jwt.Token
	SignedString string
	Type         string
}

func AuthMiddleware(config AuthConfig) echo.MiddlewareFunc {
	keyFunc := func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return config.Secret, nil
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if c.Request().Method == http.MethodOptions {
				return c.NoContent(http.StatusOK)
			}

			if config.Skipper != nil && config.Skipper(c) {
				return next(c)
			}

			accessToken := &Token{Type: "access"}
			schema, tokenString, ok := strings.Cut(c.Request().Header.Get("Authorization"), " ")
			if ok {
				if strings.TrimSpace(schema) != "Bearer" {
					return EErrorDefined(c, apierrors.ErrTokenInvalid)
				}
				accessToken.SignedString = strings.TrimSpace(tokenString)
			} else if accessCookie, err := c.Cookie("access_token"); err == nil && accessCookie.Value != "" {
				accessToken.SignedString = accessCookie.Value
			} else {
				return EErrorDefined(c, apierrors.ErrLoginRequired)
			}

			var err error
			accessToken.JWT, err = jwt.Parse(accessToken.SignedString, keyFunc, jwt.WithExpirationRequired())
			if err != nil {
				if errors.Is(err, jwt.ErrTokenExpired) {
					return EErrorDefined(c, apierrors.ErrTokenExpired)
				}
				return EErrorDefined(c, apierrors.ErrTokenInvalid)
			}

			claims, ok := accessToken.JWT.Claims.(jwt.MapClaims)
			if !ok {
				return EErrorDefined(c, apierrors.ErrTokenInvalid)
			}
			if tokenType, _ := claims["token_type"].(string); tokenType != "" && tokenType != "access" {
				return EErrorDefined(c, apierrors.ErrTokenInvalid)
			}
			rawID, _ := claims["user_id"].(string)
			userID, err := uuid.FromString(rawID)
			if err != nil {
				return EErrorDefined(c, apierrors.ErrTokenInvalid)
			}

			var user dao.User
			if err := config.DB.WithContext(c.Request().Context()).Where("id = ?", userID).First(&user).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return EErrorDefined(c, apierrors.ErrUserNotFound)
				}
				return EError(c, err)
			}
			if !user.IsActive {
				slog.Debug("Inactive user request", "userId", user.ID)
				return EErrorDefined(c, apierrors.ErrUserInactive)
			}

			return next(AuthContext{c, &user, accessToken})
		}
	}
}
