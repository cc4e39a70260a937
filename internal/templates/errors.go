package templates

import "errors"

var (
	// ErrTemplateNotFound means no source exists for the template identifier.
	ErrTemplateNotFound = errors.New("template not found")
	// ErrTemplateReadFailure covers every other failure to read a template source.
	ErrTemplateReadFailure = errors.New("template read failure")
	// ErrTemplateSyntax is returned at compile time for malformed sources.
	ErrTemplateSyntax = errors.New("template syntax error")
	// ErrTemplateRender is returned when a context value cannot be rendered.
	ErrTemplateRender = errors.New("template render error")
)
