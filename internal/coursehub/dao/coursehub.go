// Пакет dao содержит модели базы данных coursehub и реализации хранилищ поверх GORM.
//
// Основные возможности:
//   - Модели пользователей, владельцев документов (курсы, события, шаблоны писем), документов и блоков.
//   - BlockStore: хранение блоков документа и кэша отрисованного HTML.
//   - OwnerAuthorizer: проверка прав владельца или администратора на документ.
//   - DeletionWatcher: отслеживание выполняющихся удалений объектов.
package dao

import (
	"github.com/gofrs/uuid"
)

// GenUUID генерирует уникальный идентификатор в формате UUID.
func GenUUID() uuid.UUID {
	u2, _ := uuid.NewV4()
	return u2
}

// AllModels возвращает модели для автоматической миграции.
func AllModels() []any {
	return []any{
		&User{},
		&Course{},
		&Event{},
		&EmailTemplate{},
		&Document{},
		&Block{},
	}
}
