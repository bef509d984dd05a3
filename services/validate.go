package services

import (
	"math"
	"reflect"

	"github.com/go-playground/validator/v10"
)

// newValidator registers "truthy": the value must be present and not a
// zero number, empty string or false.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("truthy", truthy); err != nil {
		panic(err)
	}
	return v
}

func truthy(fl validator.FieldLevel) bool {
	f := fl.Field()
	switch f.Kind() {
	case reflect.Invalid:
		return false
	case reflect.String:
		return f.Len() > 0
	case reflect.Bool:
		return f.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return f.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return f.Uint() != 0
	case reflect.Float32, reflect.Float64:
		x := f.Float()
		return x != 0 && !math.IsNaN(x)
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice:
		return !f.IsNil()
	}
	return true
}
