package config

import (
	"slices"
	"strings"
)

// Wildcard in the allow-list trusts every origin.
const Wildcard = "*"

// AllowList is the set of origins trusted to post authentication messages and
// to make credentialed cross-origin requests.
type AllowList struct {
	Origins  []string
	AllowAll bool
}

// ParseAllowList reads a comma separated origin list. All origins are allowed
// when the list contains the wildcard, or when running outside production with
// an empty list.
func ParseAllowList(raw string, production bool) AllowList {
	var origins []string
	for o := range strings.SplitSeq(raw, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}

	hasWildcard := slices.Contains(origins, Wildcard)

	return AllowList{
		Origins:  origins,
		AllowAll: hasWildcard || (!production && len(origins) == 0),
	}
}

// Contains reports whether origin is explicitly listed.
func (a AllowList) Contains(origin string) bool {
	return origin != "" && slices.Contains(a.Origins, origin)
}

// Explicit returns the listed origins without the wildcard entry.
func (a AllowList) Explicit() []string {
	return slices.DeleteFunc(slices.Clone(a.Origins), func(o string) bool { return o == Wildcard })
}
