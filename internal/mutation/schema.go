package mutation

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Schema validates a decoded input struct. Field names come from the `form`
// tag so errors line up with the submitted form; messages are looked up by
// "field.tag", then "field", then a generic fallback.
type Schema struct {
	v        *validator.Validate
	messages map[string]string
}

func NewSchema(messages map[string]string) *Schema {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		switch name {
		case "-":
			return ""
		case "":
			return fld.Name
		}
		return name
	})
	return &Schema{v: v, messages: messages}
}

// Check returns nil when in satisfies its constraints.
func (s *Schema) Check(in any) FieldErrors {
	err := s.v.Struct(in)
	if err == nil {
		return nil
	}
	fe := FieldErrors{}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		fe.Add("_form", err.Error())
		return fe
	}
	for _, e := range verrs {
		fe.Add(e.Field(), s.message(e))
	}
	return fe
}

func (s *Schema) message(e validator.FieldError) string {
	if m, ok := s.messages[e.Field()+"."+e.Tag()]; ok {
		return m
	}
	if m, ok := s.messages[e.Field()]; ok {
		return m
	}
	switch e.Tag() {
	case "required":
		return fmt.Sprintf("%s is required.", e.Field())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s.", e.Field(), e.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s.", e.Field(), e.Param())
	default:
		return fmt.Sprintf("%s is invalid.", e.Field())
	}
}
