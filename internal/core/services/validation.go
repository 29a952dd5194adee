package services

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/SscSPs/ledger-posting/internal/core/domain"
)

// structValidator runs the struct-tag rules of the document inputs and reports them as
// field-level posting errors named by their JSON paths.
type structValidator struct {
	validate *validator.Validate
}

func newStructValidator() *structValidator {
	v := validator.New()
	// Decimal amounts are compared numerically by gt/gte/lte.
	v.RegisterCustomTypeFunc(func(field reflect.Value) any {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			f, _ := d.Float64()
			return f
		}
		return nil
	}, decimal.Decimal{})
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &structValidator{validate: v}
}

func (v *structValidator) check(input any) domain.PostingErrors {
	err := v.validate.Struct(input)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return domain.PostingErrors{domain.NewValidationError("", "%s", err.Error())}
	}

	errs := make(domain.PostingErrors, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		errs = append(errs, domain.NewValidationError(fieldPath(fe.Namespace()), "%s", describeFieldError(fe)))
	}
	return errs
}

// checkCurrency validates a currency code that does not live on a tagged struct.
func (v *structValidator) checkCurrency(field, code string) *domain.PostingError {
	if err := v.validate.Var(code, "iso4217"); err != nil {
		return domain.NewValidationError(field, "must be an upper-case ISO 4217 currency code")
	}
	return nil
}

// fieldPath drops the struct type name from a validator namespace,
// e.g. "InvoiceInput.lines[0].quantity" becomes "lines[0].quantity".
func fieldPath(namespace string) string {
	if i := strings.IndexByte(namespace, '.'); i >= 0 {
		return namespace[i+1:]
	}
	return namespace
}

func describeFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "iso4217":
		return "must be an upper-case ISO 4217 currency code"
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "min":
		return fmt.Sprintf("must contain at least %s items", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	}
	return fmt.Sprintf("failed the %s check", fe.Tag())
}
