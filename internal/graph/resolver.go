package graph

import (
	"context"
	"errors"
	"net/http"

	"github.com/graphql-go/graphql"

	"github.com/purit/auth-api/internal/auth"
	"github.com/purit/auth-api/internal/usecase"
)

// fail maps err to its transport form, records it for the HTTP handler, and
// hides infrastructure failures behind a generic message.
func (r *Resolver) fail(ctx context.Context, err error) error {
	mapped := mapDomainError(err)

	var domainErr *Error
	if !errors.As(mapped, &domainErr) {
		r.logger.Error().Err(err).Msg("unclassified failure")
		domainErr = &Error{Code: "INTERNAL", Status: http.StatusInternalServerError, Message: "Something went wrong"}
	}

	if rec := recorderFrom(ctx); rec != nil {
		rec.record(domainErr)
	}

	return domainErr
}

func (r *Resolver) resolveRegister(p graphql.ResolveParams) (interface{}, error) {
	input := registerInput{
		Name:     p.Args["name"].(string),
		Email:    p.Args["email"].(string),
		Password: p.Args["password"].(string),
	}
	if err := r.validateInput(input); err != nil {
		return nil, r.fail(p.Context, err)
	}

	message, err := r.auth.Register(p.Context, usecase.RegisterParams{
		Name:     input.Name,
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		return nil, r.fail(p.Context, err)
	}

	return message, nil
}

func (r *Resolver) resolveVerifyEmail(p graphql.ResolveParams) (interface{}, error) {
	input := verifyEmailInput{
		Email: p.Args["email"].(string),
		OTP:   p.Args["otp"].(string),
	}
	if err := r.validateInput(input); err != nil {
		return nil, r.fail(p.Context, err)
	}

	message, err := r.auth.VerifyEmail(p.Context, usecase.VerifyEmailParams{
		Email: input.Email,
		OTP:   input.OTP,
	})
	if err != nil {
		return nil, r.fail(p.Context, err)
	}

	return message, nil
}

func (r *Resolver) resolveLogin(p graphql.ResolveParams) (interface{}, error) {
	input := loginInput{
		Email:    p.Args["email"].(string),
		Password: p.Args["password"].(string),
	}
	if err := r.validateInput(input); err != nil {
		return nil, r.fail(p.Context, err)
	}

	result, err := r.auth.Login(p.Context, usecase.LoginParams{
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		return nil, r.fail(p.Context, err)
	}

	return result, nil
}

func (r *Resolver) resolveMe(p graphql.ResolveParams) (interface{}, error) {
	identity, ok := auth.IdentityFromContext(p.Context)
	if !ok {
		return nil, r.fail(p.Context, errUnauthenticated)
	}

	user, err := r.auth.Me(p.Context, identity.UserID)
	if err != nil {
		return nil, r.fail(p.Context, err)
	}
	if user == nil {
		return nil, nil
	}

	return user, nil
}
