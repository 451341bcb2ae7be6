package main

import (
	"encoding/json"
	"io"
)

// outputJSON writes a value as formatted JSON to w.
func outputJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
