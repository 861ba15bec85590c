package index

import "strings"

// DotName is a fully-qualified class or annotation name in dotted form,
// e.g. "jakarta.interceptor.InvocationContext". Nested classes use the
// "$" separator in their local part ("org.acme.Outer$Inner").
//
// DotName is a plain string type so it can be used directly as a map key
// and compared with ==.
type DotName string

// String returns the dotted form of the name.
func (n DotName) String() string { return string(n) }

// IsEmpty reports whether the name is the zero value.
func (n DotName) IsEmpty() bool { return n == "" }

// Local returns the simple class name after the last package separator.
// For "org.acme.Foo" it returns "Foo". Names without a package are
// returned unchanged.
func (n DotName) Local() string {
	s := string(n)
	if i := strings.LastIndex(s, "."); i >= 0 {
		return s[i+1:]
	}
	return s
}

// Package returns the package portion of the name, or "" for names in the
// default package.
func (n DotName) Package() string {
	s := string(n)
	if i := strings.LastIndex(s, "."); i >= 0 {
		return s[:i]
	}
	return ""
}
