// Package middleware provides composable HTTP middleware for the service:
// CORS, request logging, panic recovery, and body limits.
package middleware

import "net/http"

// Func wraps an http.Handler with additional behavior.
type Func func(http.Handler) http.Handler

// Stack is an ordered list of middleware. The first entry is outermost
// and sees each request before the others.
type Stack []Func

// Use appends mw to the stack.
func (s *Stack) Use(mw ...Func) {
	*s = append(*s, mw...)
}

// Then wraps handler with every middleware in the stack.
// An empty stack returns handler unchanged.
func (s Stack) Then(handler http.Handler) http.Handler {
	for i := len(s) - 1; i >= 0; i-- {
		handler = s[i](handler)
	}
	return handler
}
