// Package authz implements the authorization gate in front of the resource
// routes.
//
// A Gate authenticates every protected request with the bearer-token
// verifier before any guard runs. Guards receive the verified identity as a
// mandatory argument, so a role or ownership check can never observe a
// missing identity:
//
//	gate.Protect()                      // authenticated callers only
//	gate.Protect(gate.RequireAdmin())   // callers whose stored role is admin
//	gate.Protect(gate.RequireSelf("email"))
//
// Roles are looked up by email through a RoleResolver, optionally backed by
// a cache that is invalidated whenever an account is promoted or deleted.
package authz
