package bonbonutil

import "encoding/json"

// PrettyPrint returns an indented JSON rendering of v, or "" if v cannot
// be marshaled. Used only for CLI diagnostics, never for persistence.
func PrettyPrint(v interface{}) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ""
	}
	return string(b)
}
