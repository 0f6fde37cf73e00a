package middleware

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"connectrpc.com/connect"
	"github.com/go-playground/validator/v10"
)

// ValidationInterceptor rejects requests whose message fails its `validate`
// struct tags with CodeInvalidArgument before the handler runs.
func ValidationInterceptor() connect.UnaryInterceptorFunc {
	validate := validator.New()
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			if err := validate.Struct(req.Any()); err != nil {
				var invalid *validator.InvalidValidationError
				if errors.As(err, &invalid) {
					// Not a struct; nothing to check.
					return next(ctx, req)
				}
				return nil, connect.NewError(connect.CodeInvalidArgument, validationMessage(err))
			}
			return next(ctx, req)
		}
	}
}

func validationMessage(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, fmt.Sprintf("field '%s' failed validation '%s'", e.Field(), e.Tag()))
	}
	return errors.New(strings.Join(msgs, "; "))
}
