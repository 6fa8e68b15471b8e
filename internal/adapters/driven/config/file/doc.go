// Package file provides a TOML file implementation of driven.ConfigStore.
//
// Keys use dot notation ("search.max_results"). On disk they are written as
// nested TOML tables and flattened again on load, so hand-edited files such as
//
//	[search]
//	max_results = 20
//
// and values set through the CLI share one representation.
package file
