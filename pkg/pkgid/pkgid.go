package pkgid

import "strings"

// Package IDs are opaque composite strings minted by the package service. They
// pack four fields separated by semicolons: name;version;arch;data. The data
// field is free-form (typically the origin repository) and may itself be empty.
const (
	sep        = ";"
	fieldCount = 4
)

const (
	fieldName = iota
	fieldVersion
	fieldArch
	fieldData
)

func field(id string, n int) string {
	parts := strings.SplitN(id, sep, fieldCount)
	if n >= len(parts) {
		return ""
	}
	return parts[n]
}

// Name extracts the package name from a package ID.
func Name(id string) string {
	return field(id, fieldName)
}

// Version extracts the package version from a package ID.
func Version(id string) string {
	return field(id, fieldVersion)
}

// Arch extracts the package architecture from a package ID.
func Arch(id string) string {
	return field(id, fieldArch)
}

// Data extracts the trailing data field (usually the source repository) from a
// package ID.
func Data(id string) string {
	return field(id, fieldData)
}
