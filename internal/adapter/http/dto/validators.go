package dto

import (
	"errors"
	"html"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	traderIDRe   = regexp.MustCompile(`^[a-zA-Z0-9_\-\.:]{1,64}$`)
	evmAddressRe = regexp.MustCompile(`^0x[0-9a-fA-F]{40}$`)
)

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("trader_id", validateTraderID)
		_ = v.RegisterValidation("evm_address", validateEVMAddress)
	}
}

// validateTraderID allows alphanumeric, underscore, dash, dot and colon.
func validateTraderID(fl validator.FieldLevel) bool {
	return traderIDRe.MatchString(fl.Field().String())
}

func validateEVMAddress(fl validator.FieldLevel) bool {
	return evmAddressRe.MatchString(fl.Field().String())
}

// ParseDate accepts an RFC 3339 timestamp or a YYYY-MM-DD day. A bare day
// with endOfDay set covers the whole day.
func ParseDate(s string, endOfDay bool) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	day, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return time.Time{}, errors.New("date must be RFC 3339 or YYYY-MM-DD")
	}
	if endOfDay {
		return day.Add(24*time.Hour - time.Nanosecond), nil
	}
	return day, nil
}

// SanitizeStruct trims whitespace and HTML-escapes every exported string
// field (including *string) of a struct pointer.
func SanitizeStruct(v interface{}) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Ptr || rv.Elem().Kind() != reflect.Struct {
		return
	}
	sanitizeFields(rv.Elem())
}

func sanitizeFields(rv reflect.Value) {
	for i := 0; i < rv.NumField(); i++ {
		f := rv.Field(i)
		if !f.CanSet() {
			continue
		}
		switch f.Kind() {
		case reflect.String:
			f.SetString(sanitize(f.String()))
		case reflect.Ptr:
			if f.IsNil() {
				continue
			}
			elem := f.Elem()
			if elem.Kind() == reflect.String {
				elem.SetString(sanitize(elem.String()))
			}
		}
	}
}

func sanitize(s string) string {
	return html.EscapeString(strings.TrimSpace(s))
}
