package errors

import (
	"testing"
)

func TestValidateMemberName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"metadata", "Quill.json", false},
		{"binary", "Quill.qbin", false},
		{"nested", "Assets/thumb.png", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 300)), true},
		{"absolute", "/etc/passwd", true},
		{"path traversal", "../Quill.json", true},
		{"backslash", "Assets\\thumb.png", true},
		{"null byte", "Quill\x00.json", true},
		{"newline", "Quill\n.json", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateMemberName(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateMemberName(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidArchive) {
				t.Errorf("ValidateMemberName(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidArchive)
			}
		})
	}
}

func TestValidatePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"relative", "out/drawing.obj", false},
		{"absolute", "/tmp/drawing.json", false},

		{"empty", "", true},
		{"too long", string(make([]byte, 600)), true},
		{"null byte", "out\x00.obj", true},
		{"control", "out\x1b.obj", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePath(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePath(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidateOneOf(t *testing.T) {
	if err := ValidateOneOf("batch", "stroke", "drawing", "stroke"); err != nil {
		t.Errorf("ValidateOneOf(stroke) error = %v, want nil", err)
	}

	err := ValidateOneOf("batch", "layer", "drawing", "stroke")
	if err == nil {
		t.Fatal("ValidateOneOf(layer) should fail")
	}
	if !Is(err, ErrCodeInvalidOption) {
		t.Errorf("code = %v, want %v", GetCode(err), ErrCodeInvalidOption)
	}
	want := `INVALID_OPTION: invalid batch: "layer" (must be one of: drawing, stroke)`
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}
