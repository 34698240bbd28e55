// SPDX-License-Identifier: MPL-2.0

package bundle

import (
	"errors"
	"testing"
)

func TestValidateName(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"sample_addon", false},
		{"Demo", false},
		{"demo2", false},
		{"a_b_c_1", false},
		{"", true},
		{"2demo", true},
		{"_demo", true},
		{"demo-addon", true},
		{"demo.addon", true},
		{"demo addon", true},
		{"con", true},
		{"LPT1", true},
		{"console", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateName(tt.name)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateName(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidName) {
				t.Errorf("ValidateName(%q) error does not wrap ErrInvalidName: %v", tt.name, err)
			}
		})
	}
}
