package auth

import "context"

// ClaimsDecorator can populate the extension fields of a claim set
// before it is signed, e.g. to attach scopes or tenant metadata minted
// elsewhere. Registered and identity claims are off limits; a decorator
// that touches them fails the mint with ErrImmutableClaimMutation.
type ClaimsDecorator interface {
	Decorate(ctx context.Context, identity Identity, claims *JWTClaims) error
}

// ClaimsDecoratorFunc adapts a function into a ClaimsDecorator.
type ClaimsDecoratorFunc func(ctx context.Context, identity Identity, claims *JWTClaims) error

// Decorate satisfies the ClaimsDecorator interface.
func (f ClaimsDecoratorFunc) Decorate(ctx context.Context, identity Identity, claims *JWTClaims) error {
	if f == nil {
		return nil
	}
	return f(ctx, identity, claims)
}

// decorateClaims runs the decorator against claims and verifies the
// protected fields came back untouched.
func decorateClaims(ctx context.Context, decorator ClaimsDecorator, identity Identity, claims *JWTClaims) error {
	if decorator == nil || claims == nil {
		return nil
	}

	fp := fingerprintClaims(claims)

	if err := decorator.Decorate(ctx, identity, claims); err != nil {
		return err
	}

	return fp.verify(claims)
}
