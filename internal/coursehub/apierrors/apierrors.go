// Пакет содержит определения ошибок API coursehub. Каждая ошибка имеет код, статус HTTP и описание на двух языках,
// что позволяет единообразно возвращать ошибки клиенту.
//
// Основные возможности:
//   - Ошибки авторизации и сессий.
//   - Ошибки работы с документами, блоками и встраиваемым контентом.
//   - Ошибки загрузки и воспроизведения медиа.
//   - Функция для форматирования сообщений об ошибках с использованием аргументов.
package apierrors

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type DefinedError struct {
	Code       int    `json:"code"`
	StatusCode int    `json:"-"`
	Err        string `json:"error"`
	RuErr      string `json:"ru_error,omitempty"`
}

func (e DefinedError) Error() string {
	return e.Err
}

// Is сравнивает ошибки по коду, чтобы отформатированная ошибка совпадала с исходной.
func (e DefinedError) Is(target error) bool {
	var t DefinedError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

var (
	// 1*** - auth errors
	ErrLoginRequired = DefinedError{Code: 1001, StatusCode: http.StatusUnauthorized, Err: "authorization required", RuErr: "Требуется авторизация"}
	ErrUserInactive  = DefinedError{Code: 1002, StatusCode: http.StatusForbidden, Err: "user is inactive", RuErr: "Учетная запись отключена"}

	// 11** - session errors
	ErrTokenExpired = DefinedError{Code: 1102, StatusCode: http.StatusUnauthorized, Err: "token expired", RuErr: "Срок действия токена истек"}
	ErrTokenInvalid = DefinedError{Code: 1103, StatusCode: http.StatusUnauthorized, Err: "invalid token", RuErr: "Неверный токен"}

	// 4*** - document errors
	ErrUnknownBlockType             = DefinedError{Code: 4001, StatusCode: http.StatusBadRequest, Err: "unknown block type %s", RuErr: "Неизвестный тип блока %s"}
	ErrInvalidEmbedUrl              = DefinedError{Code: 4002, StatusCode: http.StatusBadRequest, Err: "invalid embed url: %s", RuErr: "Некорректная ссылка для встраивания: %s"}
	ErrDocumentForbidden            = DefinedError{Code: 4003, StatusCode: http.StatusForbidden, Err: "not enough rights to edit document", RuErr: "Недостаточно прав для редактирования документа"}
	ErrUploadDestinationUnavailable = DefinedError{Code: 4004, StatusCode: http.StatusBadGateway, Err: "upload destination unavailable", RuErr: "Хранилище файлов недоступно, повторите попытку позже"}
	ErrDocumentNotFound             = DefinedError{Code: 4005, StatusCode: http.StatusNotFound, Err: "document not found", RuErr: "Документ не найден"}
	ErrBlockNotFound                = DefinedError{Code: 4006, StatusCode: http.StatusNotFound, Err: "block not found", RuErr: "Блок не найден"}
	ErrPartialReconcile             = DefinedError{Code: 4007, StatusCode: http.StatusInternalServerError, Err: "document saved partially", RuErr: "Документ сохранен не полностью, повторите сохранение"}
	ErrUploadNotConfirmed           = DefinedError{Code: 4008, StatusCode: http.StatusConflict, Err: "upload was not found in storage", RuErr: "Загруженный файл не найден в хранилище"}
	ErrNotVideoBlock                = DefinedError{Code: 4009, StatusCode: http.StatusBadRequest, Err: "block is not a video block", RuErr: "Блок не является видео"}
	ErrInvalidBlocks                = DefinedError{Code: 4010, StatusCode: http.StatusBadRequest, Err: "invalid blocks: %s", RuErr: "Некорректные блоки документа: %s"}
	ErrMediaNotFound                = DefinedError{Code: 4011, StatusCode: http.StatusNotFound, Err: "media not found", RuErr: "Файл не найден"}

	// 5*** - validation and other errors
	ErrGeneric        = DefinedError{Code: 5000, StatusCode: http.StatusBadRequest, Err: "Something went wrong. Please try again later or contact the support team.", RuErr: "Что-то пошло не так. Повторите попытку позже или обратитесь в службу поддержки"}
	ErrInvalidID      = DefinedError{Code: 5001, StatusCode: http.StatusBadRequest, Err: "invalid ID", RuErr: "Указан неверный ID"}
	ErrInvalidRequest = DefinedError{Code: 5002, StatusCode: http.StatusBadRequest, Err: "invalid request: %s", RuErr: "Некорректный запрос: %s"}
	ErrEntityToLarge  = DefinedError{Code: 5010, StatusCode: http.StatusRequestEntityTooLarge, Err: "size exceeds the allowed limit", RuErr: "Размер запроса превышает допустимый."}

	// 6*** - user errors
	ErrUserNotFound = DefinedError{Code: 6001, StatusCode: http.StatusNotFound, Err: "user not found", RuErr: "Пользователь не найден"}
)

func (e DefinedError) WithFormattedMessage(args ...interface{}) DefinedError {
	if len(args) > 0 {
		e.Err = fmt.Sprintf(e.Err, args...)
		e.RuErr = fmt.Sprintf(e.RuErr, args...)
	} else {
		e.Err = strings.Replace(e.Err, "%s", "", -1)
		e.RuErr = strings.Replace(e.RuErr, "%s", "", -1)
	}
	return e
}
