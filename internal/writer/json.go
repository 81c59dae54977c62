package writer

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/dgallion1/papergest/internal/doctree"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

// JSON writes the document as indented JSON without HTML escaping.
type JSON struct{}

func (JSON) Extension() string { return "json" }

func (JSON) Write(w io.Writer, doc *doctree.Document) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode json: %w", err)
	}
	return nil
}

//go:embed schema.json
var documentSchema []byte

var compileSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("document.schema.json", bytes.NewReader(documentSchema)); err != nil {
		return nil, fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("document.schema.json")
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}
	return schema, nil
})

// ValidateDocumentJSON checks data against the document schema.
func ValidateDocumentJSON(data []byte) error {
	schema, err := compileSchema()
	if err != nil {
		return err
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal document: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("document does not match schema: %w", err)
	}
	return nil
}

// DecodeDocument validates data and decodes it.
func DecodeDocument(data []byte) (*doctree.Document, error) {
	if err := ValidateDocumentJSON(data); err != nil {
		return nil, err
	}
	var doc doctree.Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &doc, nil
}
