package rules

import "strings"

// Subject is the text a KeywordRule is evaluated against.
type Subject struct {
	Status    string
	Details   string
	OwnerName string
	Source    string
}

func (s Subject) value(f Field) string {
	switch f {
	case FieldStatus:
		return s.Status
	case FieldOwnerName:
		return s.OwnerName
	case FieldSource:
		return s.Source
	default:
		return s.Details
	}
}

// Matches reports whether every condition configured on the rule holds for s.
// Equals is exact; keyword conditions are substring checks, case-insensitive
// unless the rule sets CaseSensitive.
func (k KeywordRule) Matches(s Subject) bool {
	raw := s.value(k.Field)
	if k.Equals != "" && raw != k.Equals {
		return false
	}

	text, fold := raw, strings.ToLower
	if k.CaseSensitive {
		fold = func(s string) string { return s }
	} else {
		text = strings.ToLower(raw)
	}
	contains := func(keywords []string) bool {
		for _, kw := range keywords {
			if strings.Contains(text, fold(kw)) {
				return true
			}
		}
		return false
	}

	if len(k.AnyOf) > 0 && !contains(k.AnyOf) {
		return false
	}
	for _, group := range k.AllOf {
		if !contains(group) {
			return false
		}
	}
	if k.Count != nil && strings.Count(text, fold(k.Count.Term)) < k.Count.Min {
		return false
	}
	if k.pattern != nil && !k.pattern.MatchString(text) {
		return false
	}
	return true
}
