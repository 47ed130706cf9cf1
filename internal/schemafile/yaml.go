package schemafile

import (
	"gopkg.in/yaml.v3"
)

// yamlDoc is the top-level structure of a YAML schema file.
type yamlDoc struct {
	Shapes map[string]*node `yaml:"shapes"`
}

// LoadYAML parses a YAML schema document.
func LoadYAML(path string, data []byte) (*Document, error) {
	var doc yamlDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ParseError{File: path, Message: err.Error()}
	}
	if doc.Shapes == nil {
		return nil, &ParseError{File: path, Message: `missing top-level "shapes" mapping`}
	}
	return buildDocument(path, doc.Shapes)
}
