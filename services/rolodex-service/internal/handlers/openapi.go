package handlers

import (
	"embed"
	"net/http"
)

//go:embed assets/openapi.yaml
var openAPISpec embed.FS

// OpenAPI serves the API description. It is public like /healthz.
func OpenAPI(w http.ResponseWriter, _ *http.Request) {
	data, err := openAPISpec.ReadFile("assets/openapi.yaml")
	if err != nil {
		http.Error(w, "openapi not available", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
