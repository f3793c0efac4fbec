package validation

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator"

	"github.com/jonwraymond/pipelineplus/pipeline"
)

// Struct validates requests with `validate` struct tags.
type Struct[Req any] struct {
	validate *validator.Validate
}

// NewStruct returns a struct-tag validator. A nil v uses validator.New().
func NewStruct[Req any](v *validator.Validate) *Struct[Req] {
	if v == nil {
		v = validator.New()
	}
	return &Struct[Req]{validate: v}
}

// Validate reports one failure per failed tag, keyed by field namespace
// without the root type name.
func (s *Struct[Req]) Validate(ctx context.Context, req Req) []pipeline.FieldFailure {
	err := s.validate.StructCtx(ctx, req)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []pipeline.FieldFailure{{Message: err.Error()}}
	}

	failures := make([]pipeline.FieldFailure, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		failures = append(failures, pipeline.FieldFailure{
			Field:   fieldPath(fe.Namespace()),
			Message: message(fe.Tag(), fe.Param()),
		})
	}
	return failures
}

func fieldPath(namespace string) string {
	for i := 0; i < len(namespace); i++ {
		if namespace[i] == '.' {
			return namespace[i+1:]
		}
	}
	return namespace
}

func message(tag, param string) string {
	switch tag {
	case "required":
		return "is required"
	case "min":
		return fmt.Sprintf("must be at least %s", param)
	case "max":
		return fmt.Sprintf("must be at most %s", param)
	case "gt":
		return fmt.Sprintf("must be greater than %s", param)
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", param)
	case "lt":
		return fmt.Sprintf("must be less than %s", param)
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", param)
	case "len":
		return fmt.Sprintf("must have length %s", param)
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", param)
	case "email":
		return "must be a valid email address"
	}
	if param != "" {
		return fmt.Sprintf("failed %s=%s", tag, param)
	}
	return "failed " + tag
}
