// Package web embeds the page templates and static assets.
package web

import (
	"embed"
	"io/fs"
)

//go:embed static templates
var content embed.FS

// StaticFS returns the static file system.
func StaticFS() fs.FS {
	return sub("static")
}

// TemplatesFS returns the templates file system.
func TemplatesFS() fs.FS {
	return sub("templates")
}

// sub cannot fail for directories named in the embed directive.
func sub(dir string) fs.FS {
	f, err := fs.Sub(content, dir)
	if err != nil {
		panic(err)
	}
	return f
}
