package platform

import (
	"fmt"
	"strings"
)

// familyMap maps distribution names to their canonical family names.
// gopsutil reports family strings inconsistently across distributions.
var familyMap = map[string]string{
	"debian":   FamilyDebian,
	"ubuntu":   FamilyDebian,
	"rhel":     FamilyRHEL,
	"centos":   FamilyRHEL,
	"rocky":    FamilyRHEL,
	"fedora":   FamilyFedora,
	"suse":     FamilySUSE,
	"opensuse": FamilySUSE,
	"arch":     FamilyArch,
	"manjaro":  FamilyArch,
	"alpine":   FamilyAlpine,
	"gentoo":   FamilyGentoo,
}

// normalizeArch converts GOARCH values to normalized architecture names.
// Runtime bundles are published for amd64 and arm64 only.
func normalizeArch(arch string) (string, error) {
	switch arch {
	case "amd64", "x86_64":
		return "amd64", nil
	case "arm64", "aarch64":
		return "arm64", nil
	default:
		return "", fmt.Errorf("unsupported architecture: %s", arch)
	}
}

// normalizeName lowercases and trims identifiers reported by gopsutil.
func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// mapFamily maps distribution family strings to canonical family names.
func mapFamily(family string) string {
	if canonical, ok := familyMap[normalizeName(family)]; ok {
		return canonical
	}
	return FamilyUnknown
}

// ArchTokens returns the substrings upstream projects embed in release
// asset names for a normalized architecture, in preference order.
func ArchTokens(arch string) []string {
	switch arch {
	case "amd64":
		return []string{"x86_64", "amd64", "x64"}
	case "arm64":
		return []string{"aarch64", "arm64"}
	default:
		return nil
	}
}
