package errors

import (
	"strings"
	"testing"
)

func TestValidateGroupKey(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{"Empty", "", false},
		{"Simple", "1", false},
		{"Label", "heart valves", false},
		{"PaddedTab", "\tB\t", false},
		{"TooLong", strings.Repeat("a", 65), true},
		{"ControlChar", "a\x01b", true},
		{"IDSeparator", "a::b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateGroupKey(tt.key)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateGroupKey(%q) error = %v, wantErr %v", tt.key, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidGroupKey) {
				t.Errorf("error code = %v, want %v", GetCode(err), ErrCodeInvalidGroupKey)
			}
		})
	}
}

func TestValidateMaskMode(t *testing.T) {
	for _, valid := range []string{"", "solo", "all"} {
		if err := ValidateMaskMode(valid); err != nil {
			t.Errorf("ValidateMaskMode(%q) = %v, want nil", valid, err)
		}
	}
	if err := ValidateMaskMode("some"); !Is(err, ErrCodeInvalidMaskMode) {
		t.Errorf("ValidateMaskMode(%q) = %v, want INVALID_MASK_MODE", "some", err)
	}
}

func TestValidateImageRef(t *testing.T) {
	tests := []struct {
		name    string
		ref     string
		wantErr bool
	}{
		{"Simple", "anatomy/heart.png", false},
		{"Empty", "", true},
		{"Traversal", "../secrets.png", true},
		{"Backslash", `images\heart.png`, true},
		{"NullByte", "img\x00.png", true},
		{"TooLong", strings.Repeat("p/", 300) + "x.png", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateImageRef(tt.ref)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateImageRef(%q) error = %v, wantErr %v", tt.ref, err, tt.wantErr)
			}
		})
	}
}
