package controller

import (
	"github.com/go-playground/validator/v10"
	"github.com/ikkim/littlelemon-backend/internal/app/model"
	apperrors "github.com/ikkim/littlelemon-backend/internal/errors"
)

func init() {
	apperrors.RegisterValidation(map[string]validator.Func{
		"rolegroup":   validRoleGroup,
		"orderstatus": validOrderStatus,
	})
}

func validRoleGroup(fl validator.FieldLevel) bool {
	return model.IsKnownGroup(fl.Field().String())
}

func validOrderStatus(fl validator.FieldLevel) bool {
	return model.OrderStatus(fl.Field().String()).Valid()
}
