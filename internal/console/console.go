// Package console serves the static assets of the TruthScan page.
package console

import (
	"embed"
	"io/fs"
	"net/http"
)

const (
	RobotsTagHeader = "X-Robots-Tag"
	RobotsTagValue  = "noindex, nofollow"
)

//go:embed static/app.css static/app.js
var assets embed.FS

// Handler serves the embedded assets. Mount it with the prefix stripped, so
// that /static/app.css resolves to app.css.
func Handler() http.Handler {
	sub, err := fs.Sub(assets, "static")
	if err != nil {
		panic(err)
	}
	files := http.FileServer(http.FS(sub))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(RobotsTagHeader, RobotsTagValue)
		w.Header().Set("Cache-Control", "public, max-age=3600")
		files.ServeHTTP(w, r)
	})
}
