// Package web holds the assets served next to the rendered views.
package web

import "embed"

// FS holds the stylesheet and other static files under static/.
//
//go:embed static/*
var FS embed.FS
