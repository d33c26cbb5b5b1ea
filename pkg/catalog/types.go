package catalog

import (
	"strings"
	"unicode"
)

// Entry maps a vCPU quota code to the instance families it limits.
type Entry struct {
	QuotaCode string   `yaml:"quota_code" json:"quota_code"`
	Name      string   `yaml:"name" json:"name"`
	Families  []string `yaml:"families" json:"families"`
}

// Covers reports whether the given instance type counts against this quota.
func (e Entry) Covers(instanceType string) bool {
	fam := Family(instanceType)
	if fam == "" {
		return false
	}
	for _, f := range e.Families {
		if f == fam {
			return true
		}
	}
	return false
}

// File is the on-disk layout of a catalog.
type File struct {
	ServiceCode string  `yaml:"service_code"`
	Updated     string  `yaml:"updated"`
	Quotas      []Entry `yaml:"quotas"`
}

// Family returns the leading letters of an instance type, lower-cased.
// "m5.large" -> "m", "u-6tb1.metal" -> "u", "trn1.32xlarge" -> "trn".
func Family(instanceType string) string {
	s := strings.ToLower(strings.TrimSpace(instanceType))
	end := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsLetter(r) })
	if end < 0 {
		return s
	}
	return s[:end]
}
