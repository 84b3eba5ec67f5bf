package ui

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Theme maps each primitive to the CSS class it renders with.
type Theme struct {
	FormSection   string `yaml:"form_section"`
	SectionHeader string `yaml:"section_header"`
	SectionBody   string `yaml:"section_body"`
	SectionFooter string `yaml:"section_footer"`
	Row           string `yaml:"row"`
	Error         string `yaml:"error"`
	Radio         string `yaml:"radio"`
	Input         string `yaml:"input"`
	Button        string `yaml:"button"`
	Link          string `yaml:"link"`
}

// DefaultTheme is used when a step is given no theme.
var DefaultTheme = Theme{
	FormSection:   "amplify-form-section",
	SectionHeader: "amplify-section-header",
	SectionBody:   "amplify-section-body",
	SectionFooter: "amplify-section-footer",
	Row:           "amplify-form-row",
	Error:         "amplify-form-error",
	Radio:         "amplify-form-radio",
	Input:         "amplify-form-input",
	Button:        "amplify-form-button",
	Link:          "amplify-form-link",
}

// LoadTheme reads a YAML theme file. Keys missing from the file keep the
// default class.
func LoadTheme(path string) (*Theme, error) {
	th := DefaultTheme
	if path == "" {
		return &th, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read theme: %w", err)
	}
	if err := yaml.Unmarshal(b, &th); err != nil {
		return nil, fmt.Errorf("parse theme: %w", err)
	}
	return &th, nil
}

// OrDefault returns th, or the default theme when th is nil.
func (th *Theme) OrDefault() *Theme {
	if th == nil {
		d := DefaultTheme
		return &d
	}
	return th
}
