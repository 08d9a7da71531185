// Package web holds the static page shell served next to the API.
package web

import "embed"

//go:embed static
var Static embed.FS
