package web

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type bookingForm struct {
	Name      string `validate:"required,min=2,max=100"`
	Email     string `validate:"required,email"`
	Date      string `validate:"required,datetime=2006-01-02"`
	Time      string `validate:"required,datetime=15:04"`
	PartySize int    `validate:"required,min=1,max=20"`
	Notes     string `validate:"max=500"`
}

type tableForm struct {
	Name  string `validate:"required,max=50"`
	Seats int    `validate:"required,min=1,max=40"`
}

type settingsForm struct {
	Token string `validate:"required,min=8"`
}

// checkForm turns the first validator failure into a message fit for a flash
// line.
func checkForm(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			return fmt.Errorf("%s is required", field)
		case "email":
			return fmt.Errorf("%s must be a valid email address", field)
		case "datetime":
			return fmt.Errorf("%s has the wrong format", field)
		case "min", "max":
			return fmt.Errorf("%s is out of range", field)
		default:
			return fmt.Errorf("%s is invalid", field)
		}
	}
	return err
}
