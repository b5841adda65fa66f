// Валидация тел запросов API документов с помощью go-playground/validator.
//
// Основные возможности:
//   - blockType: тип блока зарегистрирован в реестре редактора.
//   - embedProvider: провайдер встраиваемого контента поддерживается.
//   - ownerKind: тип владельца документа известен.
package coursehub

import (
	"fmt"

	"github.com/aisa-it/coursehub/internal/coursehub/dao"
	"github.com/aisa-it/coursehub/internal/coursehub/editor"
	"github.com/aisa-it/coursehub/internal/coursehub/editor/edtypes"
	"github.com/aisa-it/coursehub/internal/coursehub/editor/embed"
	"github.com/go-playground/validator"
)

type RequestValidator struct {
	validator *validator.Validate
}

type validationRule struct {
	tag string
	fn  validator.Func
}

func NewRequestValidator(reg *editor.Registry) (*RequestValidator, error) {
	if reg == nil {
		reg = editor.Default
	}
	v := validator.New()
	err := registerRules(v, []validationRule{
		{"blockType", func(fl validator.FieldLevel) bool {
			return reg.Known(edtypes.BlockType(fl.Field().String()))
		}},
		{"embedProvider", embedProviderValidator},
		{"ownerKind", ownerKindValidator},
	})
	if err != nil {
		return nil, err
	}
	return &RequestValidator{v}, nil
}

func registerRules(v *validator.Validate, rules []validationRule) error {
	for _, r := range rules {
		if err := v.RegisterValidation(r.tag, r.fn); err != nil {
			return fmt.Errorf("register %q validation: %w", r.tag, err)
		}
	}
	return nil
}

func (rv *RequestValidator) Validate(i interface{}) error {
	if err := rv.validator.Struct(i); err != nil {
		_, ok := err.(validator.ValidationErrors)
		if !ok {
			return nil
		}
		return err
	}
	return nil
}

func embedProviderValidator(fl validator.FieldLevel) bool {
	return embed.Known(embed.Provider(fl.Field().String()))
}

func ownerKindValidator(fl validator.FieldLevel) bool {
	return dao.OwnerKind(fl.Field().String()).Valid()
}
