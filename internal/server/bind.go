package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

// errBadRequest marks request-shape failures that map to 400
var errBadRequest = errors.New("bad request")

type validatorSvc struct {
	validate   *validator.Validate
	translator ut.Translator
}

var (
	vOnce sync.Once
	vSvc  *validatorSvc
)

// validation returns the shared validator with english messages and json field names
func validation() *validatorSvc {
	vOnce.Do(func() {
		enLoc := en.New()
		uni := ut.New(enLoc, enLoc)
		trans, _ := uni.GetTranslator("en")

		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			tag := fld.Tag.Get("json")
			if tag == "-" || tag == "" {
				return fld.Name
			}
			if idx := strings.Index(tag, ","); idx >= 0 {
				tag = tag[:idx]
			}
			return tag
		})
		_ = en_translations.RegisterDefaultTranslations(v, trans)

		vSvc = &validatorSvc{validate: v, translator: trans}
	})
	return vSvc
}

// decodeJSON reads one JSON object into T and validates it.
// Every failure wraps errBadRequest.
func decodeJSON[T any](r *http.Request, maxBytes int64) (T, error) {
	var dst T

	body := io.Reader(r.Body)
	if maxBytes > 0 {
		body = io.LimitReader(r.Body, maxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return dst, fmt.Errorf("%w: read body: %v", errBadRequest, err)
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return dst, fmt.Errorf("%w: body exceeds %d bytes", errBadRequest, maxBytes)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return dst, fmt.Errorf("%w: empty body", errBadRequest)
	}

	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&dst); err != nil {
		return dst, fmt.Errorf("%w: invalid JSON: %v", errBadRequest, err)
	}
	if dec.More() {
		return dst, fmt.Errorf("%w: unexpected trailing data", errBadRequest)
	}

	if err := validation().validate.Struct(dst); err != nil {
		return dst, fmt.Errorf("%w: %s", errBadRequest, validationMessage(err))
	}
	return dst, nil
}

// validationMessage returns the first translated validation failure
func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return verrs[0].Translate(validation().translator)
	}
	return err.Error()
}
