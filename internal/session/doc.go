// File: internal/session/doc.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
// Package session
//
// Session ownership tracking for the transport front-end.
// A session identifier is chosen by the client and may outlive any single
// connection; Registry records which connection currently serves it, and
// ExtractSessionID pulls the identifier out of a request/response exchange.
//
// Registry keeps its two indexes behind one mutex and exposes only composite
// operations, so the byID and byHandle views can never be observed out of step.
package session
