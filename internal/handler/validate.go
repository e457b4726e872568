package handler

import (
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"appointment-scheduler/internal/model"
	"appointment-scheduler/internal/rpc"
)

type appointmentForm struct {
	Name  string `validate:"notblank"`
	Email string `validate:"notblank,email"`
	Phone string `validate:"notblank"`
	Date  string `validate:"required,datetime=2006-01-02,notpast"`
	Time  string `validate:"required,datetime=15:04"`
	Notes string
}

type registerForm struct {
	Email    string `validate:"notblank,email"`
	Password string `validate:"min=8"`
	Name     string `validate:"notblank"`
}

// messages by struct field, or field.tag where one field can fail in
// more than one way
var messages = map[string]string{
	"Name":         "name is required",
	"Email":        "a valid email is required",
	"Phone":        "phone is required",
	"Date":         "date must be YYYY-MM-DD",
	"Date.notpast": "date cannot be in the past",
	"Time":         "time must be HH:MM",
	"Password":     "password must be at least 8 characters",
}

func newValidator(today func() time.Time) *validator.Validate {
	v := validator.New()
	v.RegisterValidation("notblank", validators.NotBlank)
	v.RegisterValidation("notpast", func(fl validator.FieldLevel) bool {
		midnight := today()
		d, err := time.ParseInLocation(model.DateLayout, fl.Field().String(), midnight.Location())
		return err == nil && !d.Before(midnight)
	})
	return v
}

// check runs v on form and turns the first failure into InvalidArgument.
func check(v *validator.Validate, form any) error {
	err := v.Struct(form)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return status.Error(codes.InvalidArgument, "invalid request")
	}
	fe := verrs[0]
	if msg, ok := messages[fe.StructField()+"."+fe.Tag()]; ok {
		return status.Error(codes.InvalidArgument, msg)
	}
	if msg, ok := messages[fe.StructField()]; ok {
		return status.Error(codes.InvalidArgument, msg)
	}
	return status.Error(codes.InvalidArgument, fe.Error())
}

func formFrom(in rpc.AppointmentInput) appointmentForm {
	return appointmentForm{
		Name:  strings.TrimSpace(in.Name),
		Email: strings.TrimSpace(in.Email),
		Phone: strings.TrimSpace(in.Phone),
		Date:  strings.TrimSpace(in.Date),
		Time:  strings.TrimSpace(in.Time),
		Notes: in.Notes,
	}
}

func (f appointmentForm) fields() model.Fields {
	return model.Fields{
		Name:  f.Name,
		Email: f.Email,
		Phone: f.Phone,
		Date:  f.Date,
		Time:  f.Time,
		Notes: f.Notes,
	}
}
