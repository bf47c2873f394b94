package validator

import (
	"errors"

	bookingvalidator "roombook/internal/bookings/validator"
	"roombook/pkg/logger"
	"roombook/pkg/model"

	"github.com/go-playground/validator/v10"
)

// RoomValidator shares the field-error format of the booking validator so
// clients see one shape across the API.
type RoomValidator struct {
	validate *validator.Validate
	logger   *logger.Logger
}

func NewRoomValidator(log *logger.Logger) *RoomValidator {
	return &RoomValidator{
		validate: bookingvalidator.New(),
		logger:   log,
	}
}

func (v *RoomValidator) Validate(room *model.Room) error {
	if err := v.validate.Struct(room); err != nil {
		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return bookingvalidator.Translate(validationErrs)
		}
		return err
	}
	return nil
}
