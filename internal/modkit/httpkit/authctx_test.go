package httpkit

import (
	"context"
	"net/http"
	"testing"

	"slotwatch/internal/modkit/scope"
)

// req helper
func newReq() *http.Request {
	req, _ := http.NewRequest(http.MethodGet, "http://x.test/y", nil)
	return req
}

// anyValCtx returns a context that always yields a given value for any key
type anyValCtx struct {
	context.Context
	val any
}

func (c anyValCtx) Value(key any) any {
	return c.val
}

func TestOperator_SuccessAndError(t *testing.T) {
	// success: force any ctx.Value(...) to return a non-empty operator id
	{
		ctx := anyValCtx{Context: context.Background(), val: "op-123"}
		got, err := Operator(newReq().WithContext(ctx))
		if err != nil {
			t.Fatalf("Operator unexpected error: %v", err)
		}
		if got != "op-123" {
			t.Fatalf("Operator got %q want %q", got, "op-123")
		}
	}

	// error: empty/default context
	{
		_, err := Operator(newReq())
		if err == nil {
			t.Fatal("Operator expected error, got nil")
		}
		if got := err.Error(); got != "missing bearer token" {
			t.Fatalf("Operator error = %q want %q", got, "missing bearer token")
		}
	}
}

func TestOperator_ScopeWins(t *testing.T) {
	ctx := scope.With(context.Background(), map[string]string{"operator": "op-s"})
	got, err := Operator(newReq().WithContext(ctx))
	if err != nil {
		t.Fatalf("Operator unexpected error: %v", err)
	}
	if got != "op-s" {
		t.Fatalf("Operator got %q want %q", got, "op-s")
	}
}

func TestToken_SuccessVariants(t *testing.T) {
	cases := []struct {
		name string
		h    string
		want string
	}{
		{"canonical", "Bearer abc123", "abc123"},
		{"lowercase", "bearer xyz", "xyz"},
		{"weird-case", "BeArEr token", "token"},
		{"extra-spaces", "bearer     stuff", "stuff"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := newReq()
			req.Header.Set("Authorization", tc.h)
			got, err := Token(req)
			if err != nil {
				t.Fatalf("Token unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("Token got %q want %q", got, tc.want)
			}
		})
	}
}

func TestToken_ErrorPaths(t *testing.T) {
	assertUnauthorized := func(t *testing.T, err error) {
		t.Helper()
		if err == nil {
			t.Fatal("expected error, got nil")
		}
		if err.Error() != "missing bearer token" {
			t.Fatalf("error = %q want %q", err.Error(), "missing bearer token")
		}
	}

	// missing header
	{
		req := newReq()
		_, err := Token(req)
		assertUnauthorized(t, err)
	}

	// wrong prefix
	{
		req := newReq()
		req.Header.Set("Authorization", "Token abc")
		_, err := Token(req)
		assertUnauthorized(t, err)
	}

	// prefix only, no token (no space after word)
	{
		req := newReq()
		req.Header.Set("Authorization", "Bearer")
		_, err := Token(req)
		assertUnauthorized(t, err)
	}

	// prefix + single space only (explicit raw == "")
	{
		req := newReq()
		req.Header.Set("Authorization", "Bearer ")
		_, err := Token(req)
		assertUnauthorized(t, err)
	}

	// prefix + spaces only (still raw == "")
	{
		req := newReq()
		req.Header.Set("Authorization", "Bearer     ")
		_, err := Token(req)
		assertUnauthorized(t, err)
	}
}

