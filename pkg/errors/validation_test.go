package errors

import "testing"

func TestValidateObjectName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "Valid", input: "Crate"},
		{name: "ValidDotted", input: "Crate.Default"},
		{name: "Empty", input: "", wantErr: true},
		{name: "Separator", input: "game:Crate", wantErr: true},
		{name: "Control", input: "Crate\x01", wantErr: true},
		{name: "TooLong", input: string(make([]byte, 300)), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateObjectName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateObjectName(%q) = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateContainerName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "Valid", input: "game/props"},
		{name: "ValidSingle", input: "engine"},
		{name: "ValidDotted", input: "engine/core-1.2"},
		{name: "Empty", input: "", wantErr: true},
		{name: "Absolute", input: "/game/props", wantErr: true},
		{name: "Traversal", input: "game/../secrets", wantErr: true},
		{name: "Backslash", input: "game\\props", wantErr: true},
		{name: "Spaces", input: "game props", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateContainerName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateContainerName(%q) = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateManifestPath(t *testing.T) {
	if err := ValidateManifestPath("graph.toml"); err != nil {
		t.Errorf("ValidateManifestPath(graph.toml) = %v", err)
	}
	if err := ValidateManifestPath("graph.yaml"); err == nil {
		t.Error("ValidateManifestPath accepted non-toml file")
	}
	if err := ValidateManifestPath(""); err == nil {
		t.Error("ValidateManifestPath accepted empty path")
	}
}
