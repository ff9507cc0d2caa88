package catalog

import "github.com/google/jsonschema-go/jsonschema"

// Catalog is the set of resources, tools and prompts advertised to callers.
// Order is significant: listings return entries in declaration order.
type Catalog struct {
	Resources []Resource `json:"resources"`
	Tools     []Tool     `json:"tools"`
	Prompts   []Prompt   `json:"prompts"`
}

type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description"`
	MIMEType    string `json:"mimeType"`
}

type Tool struct {
	Name        string             `json:"name"`
	Description string             `json:"description"`
	InputSchema *jsonschema.Schema `json:"inputSchema"`
}

type Prompt struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}
