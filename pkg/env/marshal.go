package env

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
	"time"
)

var durationType = reflect.TypeOf(time.Duration(0))

// MarshalEnv renders the env-tagged fields of a struct pointer as .env
// lines. Fields equal to their envDefault, or zero without a default, are
// left out so the file only pins what differs.
func MarshalEnv(c any) (string, error) {
	v := reflect.ValueOf(c)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return "", fmt.Errorf("marshal env: want pointer to struct, got %T", c)
	}
	v = v.Elem()
	t := v.Type()

	var lines []string
	for i := 0; i < v.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		// "KEY,required,notEmpty" or "KEY"
		key, _, _ := strings.Cut(field.Tag.Get("env"), ",")
		if key == "" {
			continue
		}

		val := v.Field(i)
		str, err := formatValue(val)
		if err != nil {
			return "", fmt.Errorf("field %s: %w", field.Name, err)
		}

		def, hasDefault := field.Tag.Lookup("envDefault")
		if hasDefault && sameValue(val, str, def) {
			continue
		}
		if !hasDefault && val.IsZero() {
			continue
		}

		lines = append(lines, key+"="+quote(str))
	}

	if len(lines) == 0 {
		return "", nil
	}
	return strings.Join(lines, "\n") + "\n", nil
}

func formatValue(v reflect.Value) (string, error) {
	if v.Type() == durationType {
		return time.Duration(v.Int()).String(), nil
	}
	switch v.Kind() {
	case reflect.String:
		return v.String(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(v.Int(), 10), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(v.Uint(), 10), nil
	case reflect.Float32:
		return strconv.FormatFloat(v.Float(), 'f', -1, 32), nil
	case reflect.Float64:
		return strconv.FormatFloat(v.Float(), 'f', -1, 64), nil
	case reflect.Bool:
		return strconv.FormatBool(v.Bool()), nil
	default:
		return "", fmt.Errorf("unsupported kind %s", v.Kind())
	}
}

// sameValue compares against the default after parsing it with the
// field's type, so "0.50" and "0.5" or "60s" and "1m0s" match.
func sameValue(v reflect.Value, str, def string) bool {
	if str == def {
		return true
	}
	if v.Type() == durationType {
		d, err := time.ParseDuration(def)
		return err == nil && int64(d) == v.Int()
	}
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		n, err := strconv.ParseInt(def, 10, 64)
		return err == nil && n == v.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		n, err := strconv.ParseUint(def, 10, 64)
		return err == nil && n == v.Uint()
	case reflect.Float32, reflect.Float64:
		f, err := strconv.ParseFloat(def, 64)
		return err == nil && f == v.Float()
	case reflect.Bool:
		b, err := strconv.ParseBool(def)
		return err == nil && b == v.Bool()
	}
	return false
}

// quote wraps values godotenv would otherwise split or strip.
func quote(s string) string {
	if s == "" || strings.ContainsAny(s, " \t#\"'\\\n=") {
		return strconv.Quote(s)
	}
	return s
}
