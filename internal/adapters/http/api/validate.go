package api

import (
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// fieldMessages maps "Field.tag" or "Field" to the message shown to clients.
type fieldMessages map[string]string

// validateRequest validates v and reports the first failing field as an ErrBadRequest.
func validateRequest(op string, v any, msgs fieldMessages) error {
	err := getValidator().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return WrapKind(op, ErrBadRequest, err)
	}
	fe := verrs[0]
	if m, ok := msgs[fe.Field()+"."+fe.Tag()]; ok {
		return WrapKind(op, ErrBadRequest, errors.New(m))
	}
	if m, ok := msgs[fe.Field()]; ok {
		return WrapKind(op, ErrBadRequest, errors.New(m))
	}
	return WrapKind(op, ErrBadRequest, fmt.Errorf("%s failed %s validation", fe.Field(), fe.Tag()))
}
