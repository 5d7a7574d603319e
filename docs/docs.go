// Package docs carries the OpenAPI description served by the API. The document
// is embedded so the route works regardless of the process working directory.
package docs

import _ "embed"

//go:embed swagger.yml
var Swagger []byte
