package templates

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDashboardRenders(t *testing.T) {
	var b strings.Builder
	err := Dashboard(Page{Title: "Sales <Live>", TopN: 7, Horizon: 4}).Render(context.Background(), &b)
	require.NoError(t, err)

	html := b.String()
	assert.True(t, strings.HasPrefix(html, "<!DOCTYPE html>"))
	assert.Contains(t, html, "<title>Sales &lt;Live&gt;</title>")
	assert.Contains(t, html, `&#34;top&#34;:7`)
	assert.Contains(t, html, `&#34;horizon&#34;:4`)
	assert.Contains(t, html, `@get('/sse/dashboard')`)
	assert.Contains(t, html, `id="filters"`)
	assert.Contains(t, html, "width:100%;")
}
