package cache

import "fmt"

type KeyGenerator struct {
	Prefix string
}

// NewKeyGenerator creates a key generator with the given prefix.
func NewKeyGenerator(prefix string) *KeyGenerator {
	if prefix == "" {
		prefix = "iqamah"
	}
	return &KeyGenerator{Prefix: prefix}
}

// MonthlyKey identifies one mosque's calendar for a month, e.g. "iqamah:monthly:example-mosque:march:2025".
func (kg *KeyGenerator) MonthlyKey(slug, month string, year int) string {
	return fmt.Sprintf("%s:monthly:%s:%s:%d", kg.Prefix, slug, month, year)
}

// RamadanKey identifies a mosque's set of Ramadan calendars, e.g. "iqamah:ramadan:example-mosque".
func (kg *KeyGenerator) RamadanKey(slug string) string {
	return fmt.Sprintf("%s:ramadan:%s", kg.Prefix, slug)
}

func (kg *KeyGenerator) MonthlyPattern() string {
	return fmt.Sprintf("%s:monthly:*", kg.Prefix)
}

func (kg *KeyGenerator) RamadanPattern() string {
	return fmt.Sprintf("%s:ramadan:*", kg.Prefix)
}

func (kg *KeyGenerator) AllPattern() string {
	return fmt.Sprintf("%s:*", kg.Prefix)
}
