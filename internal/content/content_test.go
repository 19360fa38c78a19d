package content

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormat_StripsScriptAndRendersMarkdown(t *testing.T) {
	out, err := Format("<script>alert(1)</script>**bold**")
	require.NoError(t, err)

	rendered := string(out)
	assert.NotContains(t, rendered, "<script")
	assert.NotContains(t, rendered, "alert(1)")
	assert.Contains(t, rendered, "<strong>bold</strong>")
}

func TestFormat(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		contains    []string
		notContains []string
	}{
		{
			name:        "event handler attributes are removed",
			raw:         `<p onclick="steal()">Hello</p>`,
			contains:    []string{"<p>Hello</p>"},
			notContains: []string{"onclick", "steal"},
		},
		{
			name:     "allowed html passes through",
			raw:      "<ul><li>Go</li><li>SQL</li></ul>",
			contains: []string{"<ul>", "<li>Go</li>", "<li>SQL</li>"},
		},
		{
			name:     "markdown headings and lists",
			raw:      "## Requirements\n\n- Go\n- Postgres\n",
			contains: []string{"<h2>Requirements</h2>", "<li>Go</li>", "<li>Postgres</li>"},
		},
		{
			name:        "javascript link in markdown is neutralized",
			raw:         "[click](javascript:alert(1))",
			contains:    []string{`href="#"`, "click"},
			notContains: []string{"javascript:"},
		},
		{
			name:        "javascript autolink is rendered as text",
			raw:         "<javascript:alert(1)>",
			notContains: []string{`href="javascript`},
		},
		{
			name:        "iframe is removed",
			raw:         `<iframe src="https://evil.example"></iframe>Apply here`,
			contains:    []string{"Apply here"},
			notContains: []string{"<iframe"},
		},
		{
			name:     "plain links survive",
			raw:      "Send your CV to [jobs](https://example.com/apply)",
			contains: []string{`href="https://example.com/apply"`},
		},
		{
			name: "empty input",
			raw:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Format(tt.raw)
			require.NoError(t, err)

			for _, want := range tt.contains {
				assert.Contains(t, string(out), want)
			}
			for _, unwanted := range tt.notContains {
				assert.NotContains(t, string(out), unwanted)
			}
		})
	}
}

func TestFormatter_SanitizeRunsBeforeRender(t *testing.T) {
	f := NewFormatter(Options{})

	sanitized := f.Sanitize(`<img src=x onerror="alert(1)">`)
	assert.NotContains(t, sanitized.String(), "onerror")

	out, err := f.Render(sanitized)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "onerror")
}

func TestFormatter_Options(t *testing.T) {
	t.Run("target blank on absolute links", func(t *testing.T) {
		f := NewFormatter(Options{TargetBlankLinks: true})
		out, err := f.Format(`<a href="https://example.com">site</a>`)
		require.NoError(t, err)
		assert.Contains(t, string(out), `target="_blank"`)
	})

	t.Run("hard wraps", func(t *testing.T) {
		f := NewFormatter(Options{HardWraps: true})
		out, err := f.Format("line one\nline two")
		require.NoError(t, err)
		assert.Contains(t, string(out), "<br")
	})

	t.Run("soft wraps by default", func(t *testing.T) {
		f := NewFormatter(Options{})
		out, err := f.Format("line one\nline two")
		require.NoError(t, err)
		assert.False(t, strings.Contains(string(out), "<br"))
	})
}
