// Package central is the HTTP adapter for the remote form-management
// service. It implements the driven.FormService port: draft, attachment
// and publish operations on the form lifecycle, the OData submission
// table fetch with server-side review-state filtering, and review-state
// patches.
//
// Authentication uses the service's session-token handshake exposed as an
// oauth2.TokenSource, so every request carries a valid bearer credential.
// Tokens are refreshed transparently on expiry, and once more when the
// service rejects a cached token it revoked early. Requests are paced
// with a proactive token-bucket rate limiter.
package central
