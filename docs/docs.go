// Package docs embute a descrição OpenAPI servida em /swagger/doc.json.
package docs

import (
	_ "embed"
	"net/http"
)

//go:embed swagger.json
var SwaggerJSON []byte

// Handler serve o swagger.json embutido.
func Handler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write(SwaggerJSON)
}
