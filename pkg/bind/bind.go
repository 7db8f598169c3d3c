// Package bind decodes an HTTP request body into a struct and validates it.
//
// JSON bodies are decoded with encoding/json. URL-encoded and multipart
// bodies are mapped onto fields by their json tag names, so the same request
// struct serves API clients and plain HTML forms.
package bind

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/shashiranjanraj/farmlink/pkg/validate"
)

// MaxBodyBytes caps non-multipart request bodies.
const MaxBodyBytes = 1 << 20

// MaxMultipartBytes caps multipart bodies (image uploads).
const MaxMultipartBytes = 8 << 20

// ErrEmptyBody is returned by JSON decoding when the body is empty.
var ErrEmptyBody = errors.New("request body is empty")

// Request decodes r into dest according to its Content-Type and validates
// it. A decode failure is returned as err; validation failures as errs.
func Request(w http.ResponseWriter, r *http.Request, dest any) (errs validate.Errors, err error) {
	if err := Decode(w, r, dest); err != nil {
		return nil, err
	}
	errs = validate.Struct(dest)
	if validate.HasErrors(errs) {
		return errs, nil
	}
	return nil, nil
}

// Decode fills dest from the request body without validating.
func Decode(w http.ResponseWriter, r *http.Request, dest any) error {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch mediaType {
	case "multipart/form-data":
		r.Body = http.MaxBytesReader(w, r.Body, MaxMultipartBytes)
		if err := r.ParseMultipartForm(MaxMultipartBytes); err != nil {
			return tooLargeOr(err, "invalid multipart form")
		}
		return Values(r.MultipartForm.Value, dest)
	case "application/x-www-form-urlencoded":
		r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
		if err := r.ParseForm(); err != nil {
			return tooLargeOr(err, "invalid form")
		}
		return Values(r.PostForm, dest)
	default:
		r.Body = http.MaxBytesReader(w, r.Body, MaxBodyBytes)
		dec := json.NewDecoder(r.Body)
		if err := dec.Decode(dest); err != nil {
			if errors.Is(err, io.EOF) {
				return ErrEmptyBody
			}
			return tooLargeOr(err, "invalid JSON")
		}
		return nil
	}
}

func tooLargeOr(err error, what string) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return fmt.Errorf("request body too large (max %d bytes)", maxErr.Limit)
	}
	return fmt.Errorf("%s: %w", what, err)
}

// Values maps form values onto the exported fields of the struct dest
// points to. Supported field kinds are strings, ints, uints, floats, bools
// and pointers to those. Absent keys leave the field untouched.
func Values(values map[string][]string, dest any) error {
	rv := reflect.ValueOf(dest)
	if rv.Kind() != reflect.Ptr || rv.IsNil() || rv.Elem().Kind() != reflect.Struct {
		return errors.New("bind: dest must be a non-nil struct pointer")
	}
	rv = rv.Elem()
	rt := rv.Type()

	for i := 0; i < rt.NumField(); i++ {
		sf := rt.Field(i)
		if !sf.IsExported() || sf.Tag.Get("json") == "-" {
			continue
		}
		vals, ok := values[validate.FieldName(sf)]
		if !ok || len(vals) == 0 {
			continue
		}
		if err := setField(rv.Field(i), strings.TrimSpace(vals[0])); err != nil {
			return fmt.Errorf("bind: field %s: %w", validate.FieldName(sf), err)
		}
	}
	return nil
}

func setField(fv reflect.Value, raw string) error {
	if fv.Kind() == reflect.Ptr {
		if raw == "" {
			return nil
		}
		ptr := reflect.New(fv.Type().Elem())
		if err := setField(ptr.Elem(), raw); err != nil {
			return err
		}
		fv.Set(ptr)
		return nil
	}

	switch fv.Kind() {
	case reflect.String:
		fv.SetString(raw)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if raw == "" {
			return nil
		}
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("not an integer: %q", raw)
		}
		fv.SetInt(n)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if raw == "" {
			return nil
		}
		n, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("not a positive integer: %q", raw)
		}
		fv.SetUint(n)
	case reflect.Float32, reflect.Float64:
		if raw == "" {
			return nil
		}
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("not a number: %q", raw)
		}
		fv.SetFloat(f)
	case reflect.Bool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return fmt.Errorf("not a boolean: %q", raw)
		}
		fv.SetBool(b)
	default:
		return fmt.Errorf("unsupported kind %s", fv.Kind())
	}
	return nil
}
