// Package forms validates user input before it is sent to the backend and
// turns backend rejections into per-field error messages.
package forms

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"

	"github.com/academy-dev/academy/internal/curriculum"
)

// General is the key for errors that belong to no single field.
const General = "general"

// Errors maps a field name to its message. A nil or empty map means valid.
type Errors map[string]string

// OK reports whether no field failed.
func (e Errors) OK() bool { return len(e) == 0 }

// Set records msg for field unless the field already has a message.
func (e Errors) Set(field, msg string) {
	if _, ok := e[field]; !ok {
		e[field] = msg
	}
}

// Messages maps "field.tag" (or just "field") to the message shown when the
// tag fails on that field.
type Messages map[string]string

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("form"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
	mustRegister(v, "notblank", validators.NotBlank)
	mustRegister(v, "difficulty", func(fl validator.FieldLevel) bool {
		_, err := curriculum.ParseDifficulty(fl.Field().String())
		return err == nil
	})
	return v
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic("forms: register " + tag + ": " + err.Error())
	}
}

// Check validates a tagged struct and translates every failure through msgs.
// Only the first failure per field is kept.
func Check(s any, msgs Messages) Errors {
	err := validate.Struct(s)
	if err == nil {
		return Errors{}
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return Errors{General: err.Error()}
	}
	out := Errors{}
	for _, fe := range verrs {
		field := fe.Field()
		msg, ok := msgs[field+"."+fe.Tag()]
		if !ok {
			msg, ok = msgs[field]
		}
		if !ok {
			msg = fe.Error()
		}
		out.Set(field, msg)
	}
	return out
}
