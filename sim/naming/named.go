// Package naming provides the hierarchical names used by the bridge
// components, such as "Bridge.Aperture[3]" or "Bridge.XIO".
package naming

import (
	"strconv"
	"strings"
)

// Named describes an object that has a name.
type Named interface {
	// Name returns the name of the object.
	Name() string
}

// NamedBase is a base implementation of Named.
type NamedBase struct {
	name string
}

// Name returns the name.
func (b NamedBase) Name() string {
	return b.name
}

// MakeNamedBase creates a new NamedBase
func MakeNamedBase(name string) NamedBase {
	return NamedBase{name: name}
}

// NameMustBeValid panics if the name does not follow the naming convention.
// A name is a dot-separated list of elements. Each element is a capitalized
// CamelCase word, optionally followed by one or more [index] suffixes.
func NameMustBeValid(name string) {
	for _, elem := range strings.Split(name, ".") {
		if err := elemError(elem); err != "" {
			panic("Name " + name + " is not valid: " + err)
		}
	}
}

func elemError(elem string) string {
	base, indices, found := strings.Cut(elem, "[")
	if base == "" {
		return "name element must not be empty"
	}

	if base[0] < 'A' || base[0] > 'Z' {
		return "name element must start with a capital letter"
	}

	if strings.ContainsAny(base, "_-\"' ]") {
		return "name element contains an invalid character"
	}

	if !found {
		return ""
	}

	for _, idx := range strings.Split("["+indices, "[")[1:] {
		if !strings.HasSuffix(idx, "]") {
			return "name bracket must match"
		}

		if _, err := strconv.Atoi(strings.TrimSuffix(idx, "]")); err != nil {
			return "name index must be integer"
		}
	}

	return ""
}

// BuildName builds a name from a parent name and an element name.
func BuildName(parentName, elementName string) string {
	if parentName == "" {
		return elementName
	}

	return parentName + "." + elementName
}

// BuildNameWithIndex builds a name from a parent name, an element name and an
// index.
func BuildNameWithIndex(parentName, elementName string, index int) string {
	return BuildName(parentName, elementName+"["+strconv.Itoa(index)+"]")
}
