package templates

import (
	"fmt"
	"reflect"

	"github.com/aymerick/raymond"
)

// Renderer is a compiled template. It is safe for concurrent use.
type Renderer interface {
	Render(data map[string]any) (string, error)
}

// Engine compiles Handlebars sources. Compilation performs no I/O.
type Engine struct{}

// NewEngine creates a new Handlebars engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Compile parses source into a reusable Renderer.
func (e *Engine) Compile(name, source string) (Renderer, error) {
	tpl, err := raymond.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrTemplateSyntax, name, err)
	}
	return &handlebarsRenderer{name: name, tpl: tpl}, nil
}

type handlebarsRenderer struct {
	name string
	tpl  *raymond.Template
}

// Render executes the template. Keys missing from data render as empty strings.
func (r *handlebarsRenderer) Render(data map[string]any) (out string, err error) {
	if data == nil {
		data = map[string]any{}
	}
	if path, ok := findCycle(reflect.ValueOf(data), map[uintptr]bool{}, "context"); ok {
		return "", fmt.Errorf("%w: %s: cyclic value at %s", ErrTemplateRender, r.name, path)
	}

	defer func() {
		if p := recover(); p != nil {
			out = ""
			err = fmt.Errorf("%w: %s: %v", ErrTemplateRender, r.name, p)
		}
	}()

	out, err = r.tpl.Exec(data)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrTemplateRender, r.name, err)
	}
	return out, nil
}

// findCycle walks maps, slices and pointers and reports the first value that contains itself.
// onPath holds the containers of the current walk only, so shared non-cyclic values are fine.
func findCycle(v reflect.Value, onPath map[uintptr]bool, path string) (string, bool) {
	for v.Kind() == reflect.Interface {
		if v.IsNil() {
			return "", false
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Map, reflect.Pointer, reflect.Slice:
		if v.IsNil() {
			return "", false
		}
		ptr := v.Pointer()
		if v.Kind() == reflect.Slice && v.Len() == 0 {
			return "", false
		}
		if onPath[ptr] {
			return path, true
		}
		onPath[ptr] = true
		defer delete(onPath, ptr)
	}

	switch v.Kind() {
	case reflect.Pointer:
		return findCycle(v.Elem(), onPath, path)
	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			if p, ok := findCycle(iter.Value(), onPath, fmt.Sprintf("%s.%v", path, iter.Key())); ok {
				return p, true
			}
		}
	case reflect.Slice, reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if p, ok := findCycle(v.Index(i), onPath, fmt.Sprintf("%s[%d]", path, i)); ok {
				return p, true
			}
		}
	case reflect.Struct:
		t := v.Type()
		for i := 0; i < v.NumField(); i++ {
			if !t.Field(i).IsExported() {
				continue
			}
			if p, ok := findCycle(v.Field(i), onPath, path+"."+t.Field(i).Name); ok {
				return p, true
			}
		}
	}
	return "", false
}
