package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/gorilla/mux"
	"gopkg.in/yaml.v3"
)

// OpenAPIHandler serves the API description as YAML and JSON
type OpenAPIHandler struct {
	path string

	once     sync.Once
	yamlDoc  []byte
	jsonDoc  []byte
	loadErr  error
	readFile func(string) ([]byte, error)
}

// NewOpenAPIHandler creates a handler for the document at openAPIPath. The
// file is read and converted on first request.
func NewOpenAPIHandler(openAPIPath string) *OpenAPIHandler {
	absPath, err := filepath.Abs(filepath.Clean(openAPIPath))
	if err != nil {
		absPath = filepath.Clean(openAPIPath)
	}
	return &OpenAPIHandler{path: absPath, readFile: os.ReadFile}
}

// RegisterRoutes registers OpenAPI routes
func (h *OpenAPIHandler) RegisterRoutes(r *mux.Router) {
	r.HandleFunc("/api/v1/openapi.yaml", h.ServeYAML).Methods("GET")
	r.HandleFunc("/api/v1/openapi.json", h.ServeJSON).Methods("GET")
}

type openAPIHeader struct {
	OpenAPI string `yaml:"openapi"`
}

func (h *OpenAPIHandler) load() {
	data, err := h.readFile(h.path)
	if err != nil {
		h.loadErr = fmt.Errorf("failed to read openapi document: %w", err)
		return
	}

	var header openAPIHeader
	if err := yaml.Unmarshal(data, &header); err != nil {
		h.loadErr = fmt.Errorf("failed to parse openapi document: %w", err)
		return
	}
	if header.OpenAPI == "" {
		h.loadErr = errors.New("openapi document has no openapi version")
		return
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		h.loadErr = fmt.Errorf("failed to parse openapi document: %w", err)
		return
	}
	jsonDoc, err := json.Marshal(doc)
	if err != nil {
		h.loadErr = fmt.Errorf("failed to convert openapi document to json: %w", err)
		return
	}

	h.yamlDoc = data
	h.jsonDoc = jsonDoc
}

func (h *OpenAPIHandler) serve(w http.ResponseWriter, contentType string, pick func() []byte) {
	h.once.Do(h.load)
	if h.loadErr != nil {
		http.Error(w, "OpenAPI specification not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", contentType)
	_, _ = w.Write(pick())
}

// ServeYAML serves the OpenAPI spec in YAML format
func (h *OpenAPIHandler) ServeYAML(w http.ResponseWriter, r *http.Request) {
	h.serve(w, "application/x-yaml", func() []byte { return h.yamlDoc })
}

// ServeJSON serves the OpenAPI spec in JSON format
func (h *OpenAPIHandler) ServeJSON(w http.ResponseWriter, r *http.Request) {
	h.serve(w, "application/json", func() []byte { return h.jsonDoc })
}
