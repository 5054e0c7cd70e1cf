package model

import (
	stderrors "errors"

	pkgerrors "ocontest/pkg/errors"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// validationFailed converts ozzo-validation output into a coded error. The first field
// error becomes the message so the REPL can print it as is.
func validationFailed(err error) error {
	if err == nil {
		return nil
	}
	var fieldErrs validation.Errors
	if stderrors.As(err, &fieldErrs) {
		out := pkgerrors.New(pkgerrors.ValidationFailed).WithMessage(fieldErrs.Error())
		for field, fieldErr := range fieldErrs {
			if fieldErr != nil {
				out.WithDetail(field, fieldErr.Error())
			}
		}
		return out
	}
	return pkgerrors.Wrap(err, pkgerrors.ValidationFailed)
}
