package view

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"github.com/dmitrymomot/jetpack/pkg/pathutil"
)

var (
	markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

	ugcOnce sync.Once
	ugc     *bluemonday.Policy
)

func ugcPolicy() *bluemonday.Policy {
	ugcOnce.Do(func() {
		ugc = bluemonday.UGCPolicy()
	})
	return ugc
}

// Markdown converts markdown to sanitized HTML.
func Markdown(src string) (htmltemplate.HTML, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return htmltemplate.HTML(ugcPolicy().SanitizeBytes(buf.Bytes())), nil
}

// Sanitize strips markup not allowed in user-generated content.
func Sanitize(s string) htmltemplate.HTML {
	return htmltemplate.HTML(ugcPolicy().Sanitize(s))
}

func (e *Engine) builtins() map[string]any {
	return map[string]any{
		"markdown": Markdown,
		"sanitize": Sanitize,
		"path":     pathutil.Join,
		"dump":     e.dump,
	}
}

// dump prints a Go-syntax representation of v. It renders nothing outside debug mode.
func (e *Engine) dump(v any) htmltemplate.HTML {
	if !e.debug {
		return ""
	}
	return htmltemplate.HTML("<pre>" + htmltemplate.HTMLEscapeString(fmt.Sprintf("%#v", v)) + "</pre>")
}
