package templates_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ilindan-dev/mail-dispatcher/internal/templates"
)

func render(t *testing.T, source string, data map[string]any) (string, error) {
	t.Helper()
	r, err := templates.NewEngine().Compile("test", source)
	require.NoError(t, err)
	return r.Render(data)
}

func TestEngine_Render(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		source string
		data   map[string]any
		want   string
	}{
		{
			name:   "substitutes a key",
			source: "Hi {{name}}, welcome!",
			data:   map[string]any{"name": "Ada"},
			want:   "Hi Ada, welcome!",
		},
		{
			name:   "missing key renders empty",
			source: "Hello {{name}}",
			data:   map[string]any{},
			want:   "Hello ",
		},
		{
			name:   "nil context renders empty",
			source: "Hello {{name}}",
			data:   nil,
			want:   "Hello ",
		},
		{
			name:   "missing nested key renders empty",
			source: "[{{user.address.city}}]",
			data:   map[string]any{"user": map[string]any{}},
			want:   "[]",
		},
		{
			name:   "escapes html",
			source: "{{name}}",
			data:   map[string]any{"name": "<b>Ada</b>"},
			want:   "&lt;b&gt;Ada&lt;/b&gt;",
		},
		{
			name:   "triple stash is raw",
			source: "{{{name}}}",
			data:   map[string]any{"name": "<b>Ada</b>"},
			want:   "<b>Ada</b>",
		},
		{
			name:   "conditional",
			source: "{{#if vip}}VIP{{else}}regular{{/if}}",
			data:   map[string]any{"vip": true},
			want:   "VIP",
		},
		{
			name:   "conditional on missing key",
			source: "{{#if vip}}VIP{{else}}regular{{/if}}",
			data:   map[string]any{},
			want:   "regular",
		},
		{
			name:   "loop",
			source: "{{#each items}}{{this}};{{/each}}",
			data:   map[string]any{"items": []any{"a", "b"}},
			want:   "a;b;",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := render(t, tt.source, tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEngine_RenderIsDeterministic(t *testing.T) {
	t.Parallel()

	r, err := templates.NewEngine().Compile("welcome", "Hi {{name}} {{#each tags}}{{this}}{{/each}}")
	require.NoError(t, err)

	data := map[string]any{"name": "Ada", "tags": []string{"x", "y"}}
	first, err := r.Render(data)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := r.Render(data)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestEngine_CompileSyntaxError(t *testing.T) {
	t.Parallel()

	for _, source := range []string{
		"{{#if ok}}never closed",
		"{{#each items}}x{{/if}}",
	} {
		_, err := templates.NewEngine().Compile("broken", source)
		assert.ErrorIs(t, err, templates.ErrTemplateSyntax, source)
	}
}

func TestEngine_RenderCyclicContext(t *testing.T) {
	t.Parallel()

	self := map[string]any{"name": "loop"}
	self["self"] = self

	_, err := render(t, "{{name}}", map[string]any{"data": self})
	assert.ErrorIs(t, err, templates.ErrTemplateRender)

	list := []any{"a", nil}
	list[1] = list
	_, err = render(t, "{{name}}", map[string]any{"list": list})
	assert.ErrorIs(t, err, templates.ErrTemplateRender)
}

func TestEngine_RenderSharedValuesAreNotCycles(t *testing.T) {
	t.Parallel()

	shared := map[string]any{"city": "London"}
	got, err := render(t, "{{a.city}}/{{b.city}}", map[string]any{"a": shared, "b": shared})
	require.NoError(t, err)
	assert.Equal(t, "London/London", got)
}
