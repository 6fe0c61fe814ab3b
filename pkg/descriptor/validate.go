package descriptor

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	slugRe        = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)
	productCodeRe = regexp.MustCompile(`^\{[0-9A-Fa-f]{8}-[0-9A-Fa-f]{4}-[0-9A-Fa-f]{4}-[0-9A-Fa-f]{4}-[0-9A-Fa-f]{12}\}$`)
)

// jinjaDelimiters open an Ansible template expression, statement or comment.
var jinjaDelimiters = []string{"{{", "{%", "{#"}

// registryHives are the hive prefixes win_reg_stat accepts for uninstall keys.
var registryHives = []string{`HKLM:\`, `HKCU:\`}

// FieldError is a single descriptor validation failure.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects all failures for one descriptor.
type ValidationErrors []FieldError

func (e ValidationErrors) Error() string {
	msgs := make([]string, 0, len(e))
	for _, fe := range e {
		msgs = append(msgs, fe.Error())
	}
	return strings.Join(msgs, "; ")
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// structValidator returns the shared validator with the descriptor rules registered.
func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New()
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
			if name == "-" || name == "" {
				return fld.Name
			}
			return name
		})
		mustRegister(v, "slug", func(fl validator.FieldLevel) bool {
			return slugRe.MatchString(fl.Field().String())
		})
		mustRegister(v, "filename", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			return s != "" && !strings.ContainsAny(s, `/\:`) && s != "." && s != ".."
		})
		mustRegister(v, "regpath", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			for _, hive := range registryHives {
				if strings.HasPrefix(strings.ToUpper(s), hive) && len(s) > len(hive) {
					return true
				}
			}
			return false
		})
		mustRegister(v, "productcode", func(fl validator.FieldLevel) bool {
			return productCodeRe.MatchString(fl.Field().String())
		})
		mustRegister(v, "nojinja", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			for _, d := range jinjaDelimiters {
				if strings.Contains(s, d) {
					return false
				}
			}
			return true
		})
		validate = v
	})
	return validate
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(err)
	}
}

// Validate checks the descriptor against its field rules.
// It returns ValidationErrors when any rule fails.
func (p *Package) Validate() error {
	err := structValidator().Struct(p)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := make(ValidationErrors, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, FieldError{Field: fe.Field(), Message: ruleMessage(fe)})
	}
	return out
}

// ruleMessage renders a human readable message for a failed rule.
func ruleMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "slug":
		return "must be lowercase alphanumeric with optional '-' or '_'"
	case "filename":
		return "must be a bare file name without directories"
	case "regpath":
		return `must start with HKLM:\ or HKCU:\`
	case "productcode":
		return "must be a product code like {XXXXXXXX-XXXX-XXXX-XXXX-XXXXXXXXXXXX}"
	case "nojinja":
		return "must not contain Jinja delimiters ({{, {% or {#)"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be >= %s", fe.Param())
	default:
		return fmt.Sprintf("failed %q rule", fe.Tag())
	}
}

// ValidateValue checks a single value against a rule list such as
// "required,slug", using the same messages as Validate.
func ValidateValue(value, rules string) error {
	err := structValidator().Var(value, rules)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return errors.New(ruleMessage(verrs[0]))
	}
	return err
}
