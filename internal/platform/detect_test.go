package platform

import (
	"context"
	"testing"
)

func TestDetect(t *testing.T) {
	info, err := NewDetector().Detect(context.Background())
	if err != nil {
		t.Fatalf("detect: %v", err)
	}

	if info.OS == "" {
		t.Error("detected OS is empty")
	}
	if info.Arch != "amd64" && info.Arch != "arm64" {
		t.Errorf("detected arch = %q, want normalized amd64 or arm64", info.Arch)
	}
	if info.ArchRaw == "" {
		t.Error("raw arch is empty")
	}
}
