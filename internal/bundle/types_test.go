package bundle

import "testing"

func TestParseKind(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Kind
		wantErr bool
	}{
		{name: "wine_ge", input: "wine-ge", want: KindWineGE},
		{name: "proton_ge", input: "proton-ge", want: KindProtonGE},
		{name: "unknown", input: "dxvk", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "wrong_case", input: "Wine-GE", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseKind(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseKind(%q) succeeded, want error", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseKind(%q): %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseKind(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
