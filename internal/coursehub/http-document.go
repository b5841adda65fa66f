// Обработчики API документов: создание, чтение, сохранение блоков, отрисовка HTML,
// проверка ссылок встраиваемого контента и жизненный цикл видео-блоков.
package coursehub

import (
	"errors"
	"net/http"

	"github.com/aisa-it/coursehub/internal/coursehub/apierrors"
	"github.com/aisa-it/coursehub/internal/coursehub/business"
	"github.com/aisa-it/coursehub/internal/coursehub/dao"
	"github.com/aisa-it/coursehub/internal/coursehub/editor/edtypes"
	"github.com/aisa-it/coursehub/internal/coursehub/editor/embed"
	"github.com/go-playground/validator"
	"github.com/gofrs/uuid"
	"github.com/labstack/echo/v4"
)

type CreateDocumentRequest struct {
	OwnerKind string `json:"owner_kind" validate:"required,ownerKind"`
	OwnerId   string `json:"owner_id" validate:"required,uuid"`
}

type BlockRequest struct {
	ID       string          `json:"id" validate:"omitempty,uuid"`
	Type     string          `json:"type" validate:"required,blockType"`
	Position int             `json:"position" validate:"min=0"`
	Props    edtypes.Props   `json:"props"`
	Content  edtypes.Content `json:"content"`
}

type SaveBlocksRequest struct {
	Blocks []BlockRequest `json:"blocks" validate:"dive"`
}

type EmbedValidateRequest struct {
	Provider string `json:"provider" validate:"required,embedProvider"`
	URL      string `json:"url"`
}

type ConfirmVideoRequest struct {
	Ref string `json:"ref" validate:"required"`
}

// PartialReconcileResponse - ответ при частично сохраненном документе: ошибка и то, что удалось записать.
type PartialReconcileResponse struct {
	apierrors.DefinedError
	Result *business.ReconcileResult `json:"result"`
}

func (s *Services) AddDocumentServices(g *echo.Group) {
	g.POST("documents/", s.createDocument)
	g.GET("documents/:docId/", s.getDocument)
	g.PUT("documents/:docId/blocks/", s.saveDocumentBlocks)
	g.GET("documents/:docId/html/", s.getDocumentHTML)

	g.GET("blocks/types/", s.getBlockTypes)
	g.POST("embeds/validate/", s.validateEmbed)

	g.POST("blocks/:blockId/video/upload/", s.requestVideoUpload)
	g.POST("blocks/:blockId/video/confirm/", s.confirmVideoUpload)
	g.DELETE("blocks/:blockId/video/", s.clearVideo)
	g.DELETE("blocks/:blockId/", s.deleteBlock)
}

// bindRequest разбирает и проверяет тело запроса. Ошибки валидатора переводятся в ошибки API.
func bindRequest(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return apierrors.ErrInvalidRequest.WithFormattedMessage(err.Error())
	}
	if err := c.Validate(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			if fe.Tag() == "blockType" {
				return apierrors.ErrUnknownBlockType.WithFormattedMessage(fe.Value())
			}
			return apierrors.ErrInvalidRequest.WithFormattedMessage(fe.Namespace())
		}
		return apierrors.ErrInvalidRequest.WithFormattedMessage(err.Error())
	}
	return nil
}

func paramUUID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.FromString(c.Param(name))
	if err != nil {
		return uuid.Nil, apierrors.ErrInvalidID
	}
	return id, nil
}

// createDocument godoc
// @id createDocument
// @Summary Создание документа
// @Description Создает пустой документ для курса, мероприятия или шаблона письма. Создавать документ может владелец сущности или администратор
// @Tags Documents
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param data body CreateDocumentRequest true "Владелец документа"
// @Success 201 {object} dao.Document "Созданный документ"
// @Failure 400 {object} apierrors.DefinedError "Некорректный запрос"
// @Failure 403 {object} apierrors.DefinedError "Нет прав на сущность"
// @Failure 500 {object} apierrors.DefinedError "Внутренняя ошибка сервера"
// @Router /api/auth/documents/ [post]
func (s *Services) createDocument(c echo.Context) error {
	user := *c.(AuthContext).User

	var req CreateDocumentRequest
	if err := bindRequest(c, &req); err != nil {
		return EError(c, err)
	}
	ownerID := uuid.FromStringOrNil(req.OwnerId)

	doc, err := s.business.CreateDocument(c.Request().Context(), dao.OwnerRef{Kind: dao.OwnerKind(req.OwnerKind), ID: ownerID}, user)
	if err != nil {
		return EError(c, err)
	}
	return c.JSON(http.StatusCreated, doc)
}

// getDocument godoc
// @id getDocument
// @Summary Получение документа
// @Description Возвращает блоки документа вместе с отрисованным HTML
// @Tags Documents
// @Security ApiKeyAuth
// @Produce json
// @Param docId path string true "ID документа"
// @Success 200 {object} business.DocumentView "Документ"
// @Failure 400 {object} apierrors.DefinedError "Некорректный ID"
// @Failure 403 {object} apierrors.DefinedError "Нет доступа к документу"
// @Failure 404 {object} apierrors.DefinedError "Документ не найден"
// @Router /api/auth/documents/{docId}/ [get]
func (s *Services) getDocument(c echo.Context) error {
	user := *c.(AuthContext).User
	docID, err := paramUUID(c, "docId")
	if err != nil {
		return EError(c, err)
	}

	view, err := s.business.GetDocument(c.Request().Context(), docID, user)
	if err != nil {
		return EError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// saveDocumentBlocks godoc
// @id saveDocumentBlocks
// @Summary Сохранение блоков документа
// @Description Сохраняет отредактированный документ целиком: создает новые блоки, обновляет измененные и удаляет отсутствующие. При частичном сохранении возвращается 500 с перечнем выполненных изменений
// @Tags Documents
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param docId path string true "ID документа"
// @Param data body SaveBlocksRequest true "Все блоки документа"
// @Success 200 {object} business.ReconcileResult "Результат сохранения"
// @Failure 400 {object} apierrors.DefinedError "Неизвестный тип блока или некорректный запрос"
// @Failure 403 {object} apierrors.DefinedError "Нет прав на редактирование"
// @Failure 404 {object} apierrors.DefinedError "Документ не найден"
// @Failure 500 {object} PartialReconcileResponse "Документ сохранен частично"
// @Router /api/auth/documents/{docId}/blocks/ [put]
func (s *Services) saveDocumentBlocks(c echo.Context) error {
	user := *c.(AuthContext).User
	docID, err := paramUUID(c, "docId")
	if err != nil {
		return EError(c, err)
	}

	var req SaveBlocksRequest
	if err := bindRequest(c, &req); err != nil {
		return EError(c, err)
	}

	blocks := make([]edtypes.Block, 0, len(req.Blocks))
	for _, b := range req.Blocks {
		block := edtypes.Block{
			ID:       uuid.FromStringOrNil(b.ID),
			Type:     edtypes.BlockType(b.Type),
			Position: b.Position,
			Props:    b.Props,
			Content:  b.Content,
		}
		if block.Props == nil {
			block.Props = edtypes.Props{}
		}
		blocks = append(blocks, block)
	}

	res, err := s.business.SaveDocument(c.Request().Context(), docID, blocks, user)
	if err != nil {
		if errors.Is(err, apierrors.ErrPartialReconcile) && res != nil {
			return c.JSON(apierrors.ErrPartialReconcile.StatusCode, PartialReconcileResponse{
				DefinedError: apierrors.ErrPartialReconcile,
				Result:       res,
			})
		}
		return EError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}

// getDocumentHTML godoc
// @id getDocumentHTML
// @Summary Получение HTML документа
// @Description Возвращает HTML документа, с параметром email=true минифицированную версию для письма
// @Tags Documents
// @Security ApiKeyAuth
// @Produce html
// @Param docId path string true "ID документа"
// @Param email query bool false "Версия для письма"
// @Success 200 {string} string "HTML документа"
// @Failure 403 {object} apierrors.DefinedError "Нет доступа к документу"
// @Failure 404 {object} apierrors.DefinedError "Документ не найден"
// @Router /api/auth/documents/{docId}/html/ [get]
func (s *Services) getDocumentHTML(c echo.Context) error {
	user := *c.(AuthContext).User
	docID, err := paramUUID(c, "docId")
	if err != nil {
		return EError(c, err)
	}

	email := c.QueryParam("email") == "true"
	html, err := s.business.GetDocumentHTML(c.Request().Context(), docID, user, email)
	if err != nil {
		return EError(c, err)
	}
	return c.HTML(http.StatusOK, html)
}

// getBlockTypes godoc
// @id getBlockTypes
// @Summary Типы блоков
// @Description Возвращает пустые блоки всех зарегистрированных типов со значениями свойств по умолчанию
// @Tags Blocks
// @Security ApiKeyAuth
// @Produce json
// @Success 200 {array} edtypes.Block "Блоки по умолчанию"
// @Router /api/auth/blocks/types/ [get]
func (s *Services) getBlockTypes(c echo.Context) error {
	reg := s.business.Registry()
	types := reg.Types()
	res := make([]edtypes.Block, 0, len(types))
	for _, t := range types {
		b, err := reg.NewBlock(t)
		if err != nil {
			return EError(c, err)
		}
		b.ID = uuid.Nil
		res = append(res, b)
	}
	return c.JSON(http.StatusOK, res)
}

// validateEmbed godoc
// @id validateEmbed
// @Summary Проверка ссылки для встраивания
// @Description Проверяет ссылку или iframe-код встраиваемого контента и возвращает нормализованный адрес. Пустая ссылка возвращает статус unset
// @Tags Blocks
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param data body EmbedValidateRequest true "Провайдер и ссылка"
// @Success 200 {object} embed.Result "Результат проверки"
// @Failure 400 {object} apierrors.DefinedError "Некорректная ссылка"
// @Router /api/auth/embeds/validate/ [post]
func (s *Services) validateEmbed(c echo.Context) error {
	var req EmbedValidateRequest
	if err := bindRequest(c, &req); err != nil {
		return EError(c, err)
	}

	res := embed.Validate(embed.Provider(req.Provider), req.URL)
	if res.Status == embed.Invalid {
		return EErrorDefined(c, apierrors.ErrInvalidEmbedUrl.WithFormattedMessage(res.Reason))
	}
	return c.JSON(http.StatusOK, res)
}

// requestVideoUpload godoc
// @id requestVideoUpload
// @Summary Ссылка для загрузки видео
// @Description Выдает подписанную ссылку для прямой загрузки видео в хранилище и переводит блок в состояние ожидания загрузки. Предыдущее видео блока удаляется
// @Tags Video
// @Security ApiKeyAuth
// @Produce json
// @Param blockId path string true "ID видео-блока"
// @Success 200 {object} business.UploadTicket "Ссылка для загрузки"
// @Failure 400 {object} apierrors.DefinedError "Блок не является видео"
// @Failure 403 {object} apierrors.DefinedError "Нет прав на редактирование"
// @Failure 404 {object} apierrors.DefinedError "Блок не найден"
// @Failure 502 {object} apierrors.DefinedError "Хранилище недоступно"
// @Router /api/auth/blocks/{blockId}/video/upload/ [post]
func (s *Services) requestVideoUpload(c echo.Context) error {
	user := *c.(AuthContext).User
	blockID, err := paramUUID(c, "blockId")
	if err != nil {
		return EError(c, err)
	}

	ticket, err := s.business.RequestVideoUpload(c.Request().Context(), blockID, user)
	if err != nil {
		return EError(c, err)
	}
	return c.JSON(http.StatusOK, ticket)
}

// confirmVideoUpload godoc
// @id confirmVideoUpload
// @Summary Подтверждение загрузки видео
// @Description Проверяет, что объект загружен в хранилище, и переводит блок в состояние ready
// @Tags Video
// @Security ApiKeyAuth
// @Accept json
// @Produce json
// @Param blockId path string true "ID видео-блока"
// @Param data body ConfirmVideoRequest true "Ссылка на загруженный объект"
// @Success 200 {object} edtypes.Block "Обновленный блок"
// @Failure 403 {object} apierrors.DefinedError "Нет прав на редактирование"
// @Failure 404 {object} apierrors.DefinedError "Блок не найден"
// @Failure 409 {object} apierrors.DefinedError "Загрузка не завершена"
// @Router /api/auth/blocks/{blockId}/video/confirm/ [post]
func (s *Services) confirmVideoUpload(c echo.Context) error {
	user := *c.(AuthContext).User
	blockID, err := paramUUID(c, "blockId")
	if err != nil {
		return EError(c, err)
	}

	var req ConfirmVideoRequest
	if err := bindRequest(c, &req); err != nil {
		return EError(c, err)
	}

	block, err := s.business.ConfirmVideoUpload(c.Request().Context(), blockID, req.Ref, user)
	if err != nil {
		return EError(c, err)
	}
	return c.JSON(http.StatusOK, block)
}

// clearVideo godoc
// @id clearVideo
// @Summary Удаление видео из блока
// @Description Очищает ссылку на видео в блоке и ставит объект хранилища в очередь на удаление
// @Tags Video
// @Security ApiKeyAuth
// @Produce json
// @Param blockId path string true "ID видео-блока"
// @Success 200 {object} edtypes.Block "Обновленный блок"
// @Failure 403 {object} apierrors.DefinedError "Нет прав на редактирование"
// @Failure 404 {object} apierrors.DefinedError "Блок не найден"
// @Router /api/auth/blocks/{blockId}/video/ [delete]
func (s *Services) clearVideo(c echo.Context) error {
	user := *c.(AuthContext).User
	blockID, err := paramUUID(c, "blockId")
	if err != nil {
		return EError(c, err)
	}

	block, err := s.business.ClearVideo(c.Request().Context(), blockID, user)
	if err != nil {
		return EError(c, err)
	}
	return c.JSON(http.StatusOK, block)
}

// deleteBlock godoc
// @id deleteBlock
// @Summary Удаление блока
// @Description Удаляет блок документа. Видео блока ставится в очередь на удаление
// @Tags Blocks
// @Security ApiKeyAuth
// @Param blockId path string true "ID блока"
// @Success 204 "Блок удален"
// @Failure 403 {object} apierrors.DefinedError "Нет прав на редактирование"
// @Failure 404 {object} apierrors.DefinedError "Блок не найден"
// @Router /api/auth/blocks/{blockId}/ [delete]
func (s *Services) deleteBlock(c echo.Context) error {
	user := *c.(AuthContext).User
	blockID, err := paramUUID(c, "blockId")
	if err != nil {
		return EError(c, err)
	}

	if err := s.business.DeleteBlock(c.Request().Context(), blockID, user); err != nil {
		return EError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}
