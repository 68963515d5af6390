// Package schema supplies the form fields whose changes are recorded in a record's history.
package schema

import (
	"context"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

var ErrUnknownForm = errors.New("unknown form")

// FieldDescriptor names a form field and its type (text_field, radio_button, photo_upload_box...).
type FieldDescriptor struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	Visible *bool  `yaml:"visible,omitempty"`
}

func (f FieldDescriptor) visible() bool { return f.Visible == nil || *f.Visible }

// Provider lists the trackable fields of a form.
type Provider interface {
	TrackableFields(ctx context.Context, form string) ([]FieldDescriptor, error)
}

// Section groups fields inside a form.
type Section struct {
	Name    string            `yaml:"name"`
	Visible *bool             `yaml:"visible,omitempty"`
	Fields  []FieldDescriptor `yaml:"fields"`
}

// Form is a named set of sections.
type Form struct {
	Name     string    `yaml:"name"`
	Sections []Section `yaml:"sections"`
}

type document struct {
	Forms []Form `yaml:"forms"`
}

// YAMLProvider serves form definitions parsed from YAML.
type YAMLProvider struct {
	forms map[string]Form
}

// LoadFile parses a YAML form definition file.
func LoadFile(path string) (*YAMLProvider, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read form schema: %w", err)
	}
	return Parse(b)
}

// Parse builds a provider from YAML bytes.
func Parse(b []byte) (*YAMLProvider, error) {
	var doc document
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("parse form schema: %w", err)
	}
	p := &YAMLProvider{forms: make(map[string]Form, len(doc.Forms))}
	for _, f := range doc.Forms {
		p.forms[f.Name] = f
	}
	return p, nil
}

// TrackableFields returns the visible fields of visible sections, in declaration order.
func (p *YAMLProvider) TrackableFields(_ context.Context, form string) ([]FieldDescriptor, error) {
	f, ok := p.forms[form]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownForm, form)
	}
	var out []FieldDescriptor
	for _, s := range f.Sections {
		if s.Visible != nil && !*s.Visible {
			continue
		}
		for _, fd := range s.Fields {
			if fd.visible() {
				out = append(out, fd)
			}
		}
	}
	return out, nil
}

// StaticProvider returns the same fields for every form.
type StaticProvider []FieldDescriptor

func (s StaticProvider) TrackableFields(context.Context, string) ([]FieldDescriptor, error) {
	return append([]FieldDescriptor(nil), s...), nil
}

// Names extracts field names.
func Names(fields []FieldDescriptor) []string {
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		out = append(out, f.Name)
	}
	return out
}
