// Package auth issues and verifies the bearer tokens that guard the
// realtime API.
//
// There is no user store. Tokens are HS256 JWTs minted by the operator
// (dhtctl token) with a role that maps to a fixed permission set:
//   - viewer: read the reading table and the current selection
//   - operator: viewer plus changing the focused device
package auth
