// Утилиты возврата ошибок API с логированием контекста запроса.
//
// Основные возможности:
//   - Единый формат JSON-ответа для ошибок из пакета apierrors, в том числе обернутых.
//   - Логирование непредвиденных ошибок с методом, адресом, пользователем и местом вызова.
//   - Замена неизвестных ошибок на универсальное сообщение.
package coursehub

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"runtime"

	"github.com/aisa-it/coursehub/internal/coursehub/apierrors"
	"github.com/aisa-it/coursehub/internal/coursehub/dao"
	"github.com/labstack/echo/v4"
)

// Возврат ошибки 400 с универсальным сообщением
func EError(c echo.Context, err error) error {
	var customErr apierrors.DefinedError
	if errors.As(err, &customErr) {
		return EErrorDefined(c, customErr)
	}
	var user *dao.User
	if ctx, ok := c.(AuthContext); ok {
		user = ctx.User
	}
	if err == nil {
		slog.Error("Unknown API error",
			"method", c.Request().Method,
			"url", c.Request().URL,
			"user", userLog(user),
			getCallerFile(),
		)
	} else {
		slog.Error("API error",
			"err", err,
			"method", c.Request().Method,
			"url", c.Request().URL,
			"user", userLog(user),
			getCallerFile(),
		)
	}
	return EErrorDefined(c, apierrors.ErrGeneric)
}

// Возврат ошибки <status> с сообщением ошибки (404 не логируется)
func EErrorMsgStatus(c echo.Context, err error, status int) error {
	if status == http.StatusRequestEntityTooLarge {
		return EErrorDefined(c, apierrors.ErrEntityToLarge)
	}
	var user *dao.User
	if ctx, ok := c.(AuthContext); ok {
		user = ctx.User
	}

	er := apierrors.ErrGeneric
	er.StatusCode = status
	if err != nil {
		er.Err = err.Error()
	}
	if status != http.StatusNotFound {
		slog.Error("API error",
			"err", err,
			"method", c.Request().Method,
			slog.Int("status", status),
			"url", c.Request().URL,
			"user", userLog(user),
			getCallerFile(),
		)
	}
	return EErrorDefined(c, er)
}

// EErrorDefined возвращает JSON-ответ с кодом статуса ошибки. Если код статуса не определен, используется 400 Bad Request.
func EErrorDefined(c echo.Context, err apierrors.DefinedError) error {
	// If unknown code use 400 Bad Request
	if http.StatusText(err.StatusCode) == "" {
		err.StatusCode = http.StatusBadRequest
	}
	return c.JSON(err.StatusCode, err)
}

func userLog(user *dao.User) string {
	if user == nil {
		return "anonymous"
	}
	return user.ID.String()
}

// getCallerFile возвращает файл и строку, из которых была вызвана функция логирования ошибки.
func getCallerFile() slog.Attr {
	_, path, no, ok := runtime.Caller(2)
	if !ok {
		return slog.Attr{}
	}
	_, file := filepath.Split(path)
	return slog.String("caller", fmt.Sprintf("%s:%d", file, no))
}
