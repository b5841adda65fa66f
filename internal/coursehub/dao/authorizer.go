package dao

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

var ErrUnknownOwnerKind = errors.New("unknown document owner kind")

// OwnerAuthorizer проверяет, что пользователь владеет сущностью документа или является суперпользователем.
type OwnerAuthorizer struct {
	db *gorm.DB
}

func NewOwnerAuthorizer(db *gorm.DB) *OwnerAuthorizer {
	return &OwnerAuthorizer{db: db}
}

func (a *OwnerAuthorizer) IsOwnerOrAdmin(ctx context.Context, userID uuid.UUID, owner OwnerRef) (bool, error) {
	tx := a.db.WithContext(ctx)

	var user User
	if err := tx.Where("id = ?", userID).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, nil
		}
		return false, err
	}
	if !user.IsActive {
		return false, nil
	}
	if user.IsSuperuser {
		return true, nil
	}

	var query *gorm.DB
	switch owner.Kind {
	case OwnerCourse:
		query = tx.Model(&Course{}).Where("id = ? and created_by_id = ?", owner.ID, userID)
	case OwnerEvent:
		query = tx.Model(&Event{}).Where("id = ? and host_id = ?", owner.ID, userID)
	case OwnerEmail:
		query = tx.Model(&EmailTemplate{}).Where("id = ? and created_by_id = ?", owner.ID, userID)
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownOwnerKind, owner.Kind)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
