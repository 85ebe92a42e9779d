// Package jwt signs and parses the access tokens handed out after a login
// verification. Tokens are HS512 with issuer and audience pinned by config;
// the authentication middleware stores the parsed Claims in the request
// context.
package jwt
