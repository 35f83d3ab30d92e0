// Package schema validates assembled orders against declarative JSON schemas.
package schema

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// Schema is a compiled JSON schema document
type Schema struct {
	compiled *gojsonschema.Schema
}

// Compile parses a JSON schema document
func Compile(document string) (*Schema, error) {
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(document))
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return &Schema{compiled: compiled}, nil
}

// MustCompile is like Compile but panics on error
func MustCompile(document string) *Schema {
	s, err := Compile(document)
	if err != nil {
		panic(err)
	}
	return s
}

// Result lists validation errors, empty means valid
type Result struct {
	Errors []string
}

// Valid reports whether no errors were found
func (r Result) Valid() bool {
	return len(r.Errors) == 0
}

func (r Result) String() string {
	if r.Valid() {
		return "valid"
	}
	return strings.Join(r.Errors, "; ")
}

// Validator checks values against schemas
type Validator struct{}

// NewValidator creates a Validator
func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks instance, any JSON-marshalable value, against s
func (v *Validator) Validate(instance any, s *Schema) Result {
	res, err := s.compiled.Validate(gojsonschema.NewGoLoader(instance))
	if err != nil {
		return Result{Errors: []string{fmt.Sprintf("failed to load document: %v", err)}}
	}
	if res.Valid() {
		return Result{}
	}

	errs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		errs = append(errs, e.String())
	}
	return Result{Errors: errs}
}

// ValidateOrder checks an assembled signed order against OrderSchema
func (v *Validator) ValidateOrder(order any) []string {
	return v.Validate(order, OrderSchema).Errors
}
