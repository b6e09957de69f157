// Package ninjarmm is a Go client for the NinjaOne (NinjaRMM) public API.
//
// The client authenticates with the OAuth2 client-credentials grant. Tokens
// are fetched lazily on the first call and renewed just before they expire;
// every outbound request carries the current bearer token.
//
// Configuration can be read from environment variables:
//
//   - NINJA_HOST (optional; defaults to https://app.ninjarmm.com)
//   - NINJA_CLIENT_ID and NINJA_CLIENT_SECRET (both or neither)
//   - NINJA_TOKEN_SCOPE (optional, e.g. "monitoring")
//
// A client built without credentials runs unauthenticated and never sends an
// Authorization header.
//
// Use Client.CallAPI for raw requests (non-2xx responses are returned, not
// raised), Client.Do for JSON requests that fail on non-2xx, and the System
// API methods for typed access.
package ninjarmm
