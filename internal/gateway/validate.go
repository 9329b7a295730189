package gateway

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/felixgeelhaar/secprops/internal/errors"
	"github.com/felixgeelhaar/secprops/internal/runtime"
)

// validate is a singleton validator instance
var validate *validator.Validate

func init() {
	validate = validator.New()

	// Report fields by their JSON names
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	_ = validate.RegisterValidation("javaversion", func(fl validator.FieldLevel) bool {
		return runtime.IsSupported(runtime.VersionKey(fl.Field().String()))
	})
}

// validateRequest checks req against its struct tags. Missing required
// fields are reported together; otherwise the first failure wins.
func validateRequest(req any) error {
	err := validate.Struct(req)
	if err == nil {
		return nil
	}

	var validationErrs validator.ValidationErrors
	if !stderrors.As(err, &validationErrs) {
		return errors.NewInvalidRequestError(err.Error())
	}

	var missing []string
	for _, e := range validationErrs {
		if e.Tag() == "required" {
			missing = append(missing, e.Field())
		}
	}
	if len(missing) > 0 {
		return errors.NewMissingParameterError(missing...)
	}

	e := validationErrs[0]
	switch e.Tag() {
	case "javaversion":
		return errors.NewUnsupportedVersionError(fmt.Sprint(e.Value()), runtime.Strings(runtime.Supported))
	case "gt", "min":
		return errors.NewInvalidRequestError(fmt.Sprintf("missing or invalid %s array", e.Field()))
	default:
		return errors.NewInvalidRequestError(fmt.Sprintf("%s: validation failed (%s)", e.Field(), e.Tag()))
	}
}
