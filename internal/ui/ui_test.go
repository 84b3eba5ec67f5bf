package ui

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTree(th *Theme) *Node {
	return Section(th,
		Header(th, "Verify Contact"),
		Body(th,
			Form("/v1/flow/verify-contact/verify",
				RadioRow(th, "email", "Email"),
				nil,
				ButtonRow(th, "Verify", true),
			),
		),
		Footer(th, Link(th, "/v1/flow/verify-contact/skip", "Skip")),
	)
}

func TestNodes_CompactDropsNil(t *testing.T) {
	tree := sampleTree(&DefaultTheme)
	form := tree.Find(KindForm, "")
	require.NotNil(t, form)
	assert.Len(t, form.Children, 2)
	assert.Equal(t, 1, tree.Count(KindRadio))
	assert.Nil(t, tree.Find(KindRadio, "phone_number"))
}

func TestRenderer_Page(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewRenderer().Page(&buf, "en", "Verify Contact", sampleTree(&DefaultTheme)))
	html := buf.String()
	assert.Contains(t, html, `<html lang="en">`)
	assert.Contains(t, html, `class="amplify-form-section"`)
	assert.Contains(t, html, `<form method="post" action="/v1/flow/verify-contact/verify">`)
	assert.Contains(t, html, `name="email"`)
	assert.Contains(t, html, `<button type="submit" disabled>Verify</button>`)
	assert.Contains(t, html, `action="/v1/flow/verify-contact/skip"`)
}

func TestRenderer_NilRoot(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewRenderer().Page(&buf, "en", "x", nil))
	assert.Contains(t, buf.String(), "<body></body>")
}

func TestRenderer_EscapesText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewRenderer().Page(&buf, "en", "x", ErrorRow(&DefaultTheme, "<script>")))
	assert.NotContains(t, buf.String(), "<script>")
	assert.Contains(t, buf.String(), "&lt;script&gt;")
}

func TestNode_JSON(t *testing.T) {
	b, err := json.Marshal(ButtonRow(&DefaultTheme, "Submit", false))
	require.NoError(t, err)
	assert.JSONEq(t, `{"kind":"button","class":"amplify-form-button","text":"Submit"}`, string(b))
}

func TestLoadTheme_PartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "theme.yaml")
	require.NoError(t, os.WriteFile(path, []byte("button: btn btn-primary\n"), 0600))

	th, err := LoadTheme(path)
	require.NoError(t, err)
	assert.Equal(t, "btn btn-primary", th.Button)
	assert.Equal(t, DefaultTheme.Link, th.Link)
}

func TestLoadTheme_EmptyPathIsDefault(t *testing.T) {
	th, err := LoadTheme("")
	require.NoError(t, err)
	assert.Equal(t, DefaultTheme, *th)
}

func TestTheme_OrDefault(t *testing.T) {
	var th *Theme
	assert.Equal(t, DefaultTheme.Button, th.OrDefault().Button)
}
