package httpapi

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		for _, tag := range []string{"json", "query"} {
			name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return f.Name
	})
	return v
}

func validationError(problems []string) *apiError {
	return &apiError{
		status:  fiber.StatusUnprocessableEntity,
		code:    "VALIDATION_ERROR",
		message: "Please check these parameters: " + strings.Join(problems, ", "),
	}
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "field required"
	case "email":
		return "value is not a valid email address"
	case "min", "gte":
		return "must be greater than or equal to " + fe.Param()
	case "max", "lte":
		return "must be less than or equal to " + fe.Param()
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}

// checkStruct runs struct tags on v and renders failures field by field.
func checkStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}
	problems := make([]string, 0, len(ves))
	for _, fe := range ves {
		problems = append(problems, fe.Field()+": "+describe(fe))
	}
	return validationError(problems)
}

// bindBody parses the JSON body into v and validates it.
func bindBody(c *fiber.Ctx, v any) error {
	if err := c.BodyParser(v); err != nil {
		return validationError([]string{"body: " + err.Error()})
	}
	return checkStruct(v)
}

// bindQuery parses query parameters into v and validates it.
func bindQuery(c *fiber.Ctx, v any) error {
	if err := c.QueryParser(v); err != nil {
		return validationError([]string{"query: " + err.Error()})
	}
	return checkStruct(v)
}
