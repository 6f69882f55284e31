// Package view renders Go templates resolved through a class-style loader.
//
// Template names follow the loader rules: "emails\Welcome_Body" and
// "emails/Welcome/Body" both resolve to emails/Welcome/Body.html under a
// template root. Files under layouts/ and partials/ are parsed with every page
// and can be referenced by name:
//
//	{{template "layouts/base" .}}
//	{{define "content"}}<h1>{{.Title}}</h1>{{end}}
//
// Output is HTML-escaped through html/template unless autoescape is disabled,
// in which case text/template is used. Strict variables turn a missing map key
// into a render error. With caching on and auto reload off, parsed templates are
// kept until [Engine.Reset]. A non UTF-8 charset transcodes the output.
//
// Built-in functions: markdown, sanitize, path and dump (debug only).
package view
