package api

import _ "embed"

// Spec is the OpenAPI document for the JSON API, served at /openapi.yml and
// used to validate /api/v1 requests.
//
//go:embed openapi.yml
var Spec []byte
