package platform

import (
	"reflect"
	"testing"
)

func TestNormalizeArch(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{name: "amd64", input: "amd64", want: "amd64"},
		{name: "x86_64_alias", input: "x86_64", want: "amd64"},
		{name: "arm64", input: "arm64", want: "arm64"},
		{name: "aarch64_alias", input: "aarch64", want: "arm64"},
		{name: "386_unsupported", input: "386", wantErr: true},
		{name: "riscv64_unsupported", input: "riscv64", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := normalizeArch(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("normalizeArch(%q) succeeded, want error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("normalizeArch(%q): %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("normalizeArch(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestMapFamily(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "debian", input: "debian", want: FamilyDebian},
		{name: "ubuntu_maps_to_debian", input: "ubuntu", want: FamilyDebian},
		{name: "rocky_maps_to_rhel", input: "rocky", want: FamilyRHEL},
		{name: "case_insensitive", input: "Arch", want: FamilyArch},
		{name: "whitespace_trimmed", input: " fedora ", want: FamilyFedora},
		{name: "unrecognized", input: "slackware", want: FamilyUnknown},
		{name: "empty", input: "", want: FamilyUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapFamily(tt.input); got != tt.want {
				t.Errorf("mapFamily(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestArchTokens(t *testing.T) {
	tests := []struct {
		name string
		arch string
		want []string
	}{
		{name: "amd64", arch: "amd64", want: []string{"x86_64", "amd64", "x64"}},
		{name: "arm64", arch: "arm64", want: []string{"aarch64", "arm64"}},
		{name: "unknown", arch: "mips", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ArchTokens(tt.arch); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ArchTokens(%q) = %v, want %v", tt.arch, got, tt.want)
			}
		})
	}
}
