package amfi

import (
	"regexp"
	"strings"
)

// planSuffix matches a trailing plan/option clause such as
// " - Direct Plan - Growth Option".
var planSuffix = regexp.MustCompile(`(?i)\s*-\s*(direct|regular|growth).*$`)

// NormalizeName turns a published scheme name into its catalog key: the
// plan/option clause is cut from its first occurrence to the end and
// whitespace is collapsed. Several names may share one key.
func NormalizeName(name string) string {
	name = strings.Join(strings.Fields(name), " ")
	if loc := planSuffix.FindStringIndex(name); loc != nil {
		name = name[:loc[0]]
	}
	return strings.TrimSpace(name)
}
