package openapi

import "strings"

type generatorConfig struct {
	openAPIVersion string
	info           openapiInfo
	contentType    string
	responses      map[string]responseConfig
}

type openapiInfo struct {
	Title       string
	Version     string
	Description string
}

type responseConfig struct {
	Description string
}

func defaultGeneratorConfig() generatorConfig {
	return generatorConfig{
		openAPIVersion: "3.0.3",
		info: openapiInfo{
			Version: "1.0.0",
		},
		contentType: "application/json",
		responses: map[string]responseConfig{
			"204": {Description: "Saved"},
			"422": {Description: "Validation failed"},
		},
	}
}

// GeneratorOption configures the OpenAPI generator.
type GeneratorOption func(*generatorConfig)

// WithOpenAPIVersion overrides the OpenAPI version string (default: 3.0.3).
func WithOpenAPIVersion(version string) GeneratorOption {
	return func(cfg *generatorConfig) {
		if version == "" {
			return
		}
		cfg.openAPIVersion = version
	}
}

// InfoOption configures optional fields on the info section.
type InfoOption func(*openapiInfo)

// WithInfoDescription sets the info description.
func WithInfoDescription(description string) InfoOption {
	return func(info *openapiInfo) {
		info.Description = description
	}
}

// WithInfo configures the info block. The title defaults to the wizard name.
// Empty strings retain the existing values.
func WithInfo(title, version string, opts ...InfoOption) GeneratorOption {
	return func(cfg *generatorConfig) {
		if title != "" {
			cfg.info.Title = title
		}
		if version != "" {
			cfg.info.Version = version
		}
		for _, opt := range opts {
			if opt != nil {
				opt(&cfg.info)
			}
		}
	}
}

// WithContentType sets the request body content type.
func WithContentType(contentType string) GeneratorOption {
	return func(cfg *generatorConfig) {
		contentType = strings.TrimSpace(contentType)
		if contentType == "" {
			return
		}
		cfg.contentType = contentType
	}
}

// WithResponse registers or overrides the response for status on every
// operation.
func WithResponse(status, description string) GeneratorOption {
	return func(cfg *generatorConfig) {
		if status == "" {
			return
		}
		if cfg.responses == nil {
			cfg.responses = map[string]responseConfig{}
		}
		resp := cfg.responses[status]
		if description != "" {
			resp.Description = description
		}
		cfg.responses[status] = resp
	}
}
