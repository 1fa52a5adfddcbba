// Package render turns query results into the markdown lines injected
// into documents.
package render
