package classes

import (
	"regexp"
	"strings"
)

// DefaultMarker is the Tailwind dark-mode variant prefix.
const DefaultMarker = "dark:"

// propertyRe takes the shortest [a-z-] run ending at a hyphen or the end of
// the token: "bg-slate-900" -> "bg", "border" -> "border", "-mt-2" -> "-mt".
var propertyRe = regexp.MustCompile(`^([a-z-]+?)(?:-|$)`)

// Property returns the grouping key of a utility class.
func Property(token string) (string, bool) {
	m := propertyRe.FindStringSubmatch(token)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Collision records two variant classes competing for one property.
type Collision struct {
	Property string
	Dropped  string
	Kept     string
}

// Analysis is the outcome of a transform together with what it discarded.
type Analysis struct {
	Output     string
	HasVariant bool
	// Dropped lists tokens without an extractable property prefix.
	Dropped    []string
	Collisions []Collision
}

// Transform collapses light/dark class pairs into the dark class only.
func Transform(s string, marker string) string {
	return Analyze(s, marker).Output
}

// Analyze runs the transform and reports dropped tokens and variant collisions.
//
// When two variant classes share a property the later one wins while the
// property keeps its first-seen position. Collisions are reported rather than
// resolved differently.
func Analyze(s string, marker string) Analysis {
	if marker == "" {
		marker = DefaultMarker
	}
	tokens := strings.Fields(s)

	var a Analysis
	for _, tok := range tokens {
		if strings.HasPrefix(tok, marker) {
			a.HasVariant = true
			break
		}
	}
	if !a.HasVariant {
		a.Output = strings.Join(tokens, " ")
		return a
	}

	variantOrder := []string{}
	variants := map[string]string{}
	plainOrder := []string{}
	plain := map[string][]string{}

	for _, tok := range tokens {
		if strings.HasPrefix(tok, marker) {
			base := tok[len(marker):]
			prop, ok := Property(base)
			if !ok {
				a.Dropped = append(a.Dropped, tok)
				continue
			}
			if prev, seen := variants[prop]; seen {
				a.Collisions = append(a.Collisions, Collision{Property: prop, Dropped: prev, Kept: base})
			} else {
				variantOrder = append(variantOrder, prop)
			}
			variants[prop] = base
			continue
		}
		prop, ok := Property(tok)
		if !ok {
			a.Dropped = append(a.Dropped, tok)
			continue
		}
		if _, seen := plain[prop]; !seen {
			plainOrder = append(plainOrder, prop)
		}
		plain[prop] = append(plain[prop], tok)
	}

	out := make([]string, 0, len(tokens))
	for _, prop := range variantOrder {
		out = append(out, variants[prop])
	}
	for _, prop := range plainOrder {
		if _, replaced := variants[prop]; replaced {
			continue
		}
		out = append(out, plain[prop]...)
	}
	a.Output = strings.Join(out, " ")
	return a
}
