// Package web serves the browser front-end: a single page plus a small JSON
// and websocket API on top of runner.Runner.
package web
