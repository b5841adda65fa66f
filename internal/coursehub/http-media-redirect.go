package coursehub

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

func (s *Services) AddMediaServices(g *echo.Group) {
	g.GET("media/*", s.redirectToMedia)
}

// redirectToMedia godoc
// @id redirectToMedia
// @Summary Воспроизведение видео
// @Description Перенаправляет на адрес воспроизведения готового видео. Подписанная ссылка живет ограниченное время, поэтому ответ не кэшируется
// @Tags Video
// @Param ref path string true "Ссылка на объект видео"
// @Success 307 "Перенаправление на видео"
// @Failure 404 {object} apierrors.DefinedError "Видео не найдено"
// @Router /api/media/{ref} [get]
func (s *Services) redirectToMedia(c echo.Context) error {
	url, err := s.business.ResolvePlayback(c.Request().Context(), c.Param("*"))
	if err != nil {
		return EError(c, err)
	}
	c.Response().Header().Set("Cache-Control", "no-store")
	return c.Redirect(http.StatusTemporaryRedirect, url)
}
