package services

import (
	"chat-presence/errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

type JoinRequest struct {
	Name string `validate:"required"`
}

type HeartbeatRequest struct {
	Name string `validate:"required"`
}

// validateStruct rejects missing fields and unknown message types as validation errors.
func validateStruct(request any) error {
	if err := validate.Struct(request); err != nil {
		return fmt.Errorf("%w: %v", errors.ErrValidation, err)
	}
	return nil
}
