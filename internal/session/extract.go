// File: internal/session/extract.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
// Package session

package session

import (
	"github.com/tidwall/gjson"
)

// Envelope paths inspected for the session identifier.
const (
	responseSessionPath = "result.sessionId"
	requestSessionPath  = "params.sessionId"
	errorMember         = "error"
)

// ExtractSessionID returns the session identifier carried by an exchange.
// A successful response is authoritative: once it carries a string sessionId the
// request is not consulted, and an empty value means no session. Otherwise the
// request parameters are used. Malformed or session-less messages yield
// ok == false, never an error.
func ExtractSessionID(request, response string) (id string, ok bool) {
	if id, present := fromResponse(response); present {
		return id, id != ""
	}
	id, present := fromRequest(request)
	return id, present && id != ""
}

func fromResponse(response string) (string, bool) {
	if !gjson.Valid(response) {
		return "", false
	}
	env := gjson.Parse(response)
	if !env.IsObject() || env.Get(errorMember).Exists() {
		return "", false
	}
	return stringField(env, responseSessionPath)
}

func fromRequest(request string) (string, bool) {
	if !gjson.Valid(request) {
		return "", false
	}
	env := gjson.Parse(request)
	if !env.IsObject() {
		return "", false
	}
	return stringField(env, requestSessionPath)
}

// stringField reports the value at path and whether it is present as a string.
func stringField(env gjson.Result, path string) (string, bool) {
	v := env.Get(path)
	if v.Type != gjson.String {
		return "", false
	}
	return v.Str, true
}
