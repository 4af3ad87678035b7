package api

import (
	"context"
	"errors"
)

type keyType string

const (
	userIDKey    keyType = "userID"
	userEmailKey keyType = "userEmail"
)

// ctxWithUser adds the authenticated caller's identity to the context
func ctxWithUser(ctx context.Context, userID, email string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, userEmailKey, email)
}

// ctxGetUserID retrieves the authenticated caller's ID from the context
func ctxGetUserID(ctx context.Context) (string, error) {
	return ctxGetStringValue(ctx, userIDKey)
}

// ctxGetStringValue is a helper function to retrieve string values from the context by key
func ctxGetStringValue(ctx context.Context, key keyType) (string, error) {
	ctxValue := ctx.Value(key)
	if ctxValue == nil {
		return "", errors.New("key not found in context")
	}
	valueAsString, ok := ctxValue.(string)
	if !ok {
		return "", errors.New("value is not of type `string`")
	}
	return valueAsString, nil
}
