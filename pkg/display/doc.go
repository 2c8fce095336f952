// Package display turns market data into the display-ready strings and
// chart series the dashboard renders.
package display
