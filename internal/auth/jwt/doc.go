// Package jwt issues and verifies the bearer tokens of the restaurant
// service.
//
// Tokens are HS256-signed JWTs. The Signer stamps server-controlled
// registered claims (exp, iat, nbf, jti and optionally iss) over whatever
// payload it is given; the Verifier checks the signature and the time
// claims and returns the remaining payload as an Identity:
//
//	signer, err := jwt.NewSigner(jwt.Config{Secret: secret, TTL: time.Hour})
//	token, err := signer.Issue(ctx, map[string]any{"email": "a@x.com"})
//
//	verifier, err := jwt.NewVerifier(jwt.Config{Secret: secret})
//	id, err := verifier.Verify(ctx, token)
//
// Raw tokens are never logged.
package jwt
