// Package auth issues and verifies the HS256 bearer tokens that protect the
// HTTP API. Tokens carry a subject and a scope ("read" or "write"); a token
// without a scope may do both.
//
//	svc, err := auth.NewService(auth.Config{Secret: secret})
//	token, err := svc.Issue("ci-bot", auth.ScopeWrite)
//	claims, err := svc.Parse(token)
package auth
