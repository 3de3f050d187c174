package records

import "strings"

// NormalizeID derives a stable record id from a product name: lowercased,
// with runs of non-alphanumeric characters collapsed to single hyphens.
// "Green Beans (500g)" becomes "green-beans-500g".
func NormalizeID(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	hyphen := false
	for _, r := range strings.ToLower(strings.TrimSpace(name)) {
		alnum := (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9')
		if alnum {
			if hyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			hyphen = false
			b.WriteRune(r)
			continue
		}
		hyphen = true
	}

	return b.String()
}
