// Package selection holds the dashboard's focus state and derives the
// focused asset, the remaining assets and the focused asset's exchange
// list from the latest market snapshot.
package selection
