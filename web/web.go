// Package web holds the application's embedded template and static assets.
package web

import (
	"embed"
	"io/fs"
)

//go:embed templates static
var assetFS embed.FS

// Templates returns the template tree rooted at the templates directory.
func Templates() fs.FS {
	return mustSub("templates")
}

// Static returns the static asset tree (stylesheets, placeholder images).
func Static() fs.FS {
	return mustSub("static")
}

func mustSub(dir string) fs.FS {
	sub, err := fs.Sub(assetFS, dir)
	if err != nil {
		panic(err)
	}
	return sub
}
