// Package dashboard provides the embedded web UI assets for SensorBoard.
//
// The page contains the display element (id "readings" by default) and a
// small script that subscribes to the server's event stream and replaces the
// element's contents with each reading as it arrives.
package dashboard

import "embed"

// Assets is an embedded filesystem containing the dashboard web UI.
//
// The filesystem structure is:
//
//	assets/
//	  index.html    - Dashboard page with inline CSS and JavaScript
//
//go:embed assets/*
var Assets embed.FS
