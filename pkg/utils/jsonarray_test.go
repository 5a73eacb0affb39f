package utils

import (
	"errors"
	"testing"
)

func TestStripFences(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "no fencing",
			in:   `["a","b"]`,
			want: `["a","b"]`,
		},
		{
			name: "plain fences",
			in:   "```\n[\"a\"]\n```",
			want: `["a"]`,
		},
		{
			name: "json language tag",
			in:   "```json\n[\"a\"]\n```",
			want: `["a"]`,
		},
		{
			name: "surrounding whitespace",
			in:   "  ```json\n[1, 2]\n```  ",
			want: `[1, 2]`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripFences(tt.in); got != tt.want {
				t.Errorf("StripFences() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDecodeStringArray(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []string
		wantErr bool
		noArray bool
	}{
		{
			name: "plain strings",
			in:   `["Improved soil health", "Increased species diversity"]`,
			want: []string{"Improved soil health", "Increased species diversity"},
		},
		{
			name: "object elements with description",
			in:   `[{"description": "Improved soil health"}]`,
			want: []string{"Improved soil health"},
		},
		{
			name: "object elements with name",
			in:   `[{"name": "Species richness index"}]`,
			want: []string{"Species richness index"},
		},
		{
			name: "prose around the array",
			in:   "Here are the outcomes:\n[\"a\", \"b\"]\nLet me know if you need more.",
			want: []string{"a", "b"},
		},
		{
			name: "empty array is valid",
			in:   `[]`,
			want: []string{},
		},
		{
			name:    "no array at all",
			in:      "I could not find any outcomes in this document.",
			wantErr: true,
			noArray: true,
		},
		{
			name:    "broken json",
			in:      `["a", "b"`,
			wantErr: true,
		},
		{
			name: "blank elements dropped",
			in:   `["a", "", "  "]`,
			want: []string{"a"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeStringArray(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("DecodeStringArray() expected error, got %v", got)
				}
				if tt.noArray && !errors.Is(err, ErrNoArray) {
					t.Errorf("expected ErrNoArray, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("DecodeStringArray() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("DecodeStringArray() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("element %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestNormalizeName(t *testing.T) {
	if got := NormalizeName("  Species   Richness\tIndex "); got != "species richness index" {
		t.Errorf("NormalizeName() = %q", got)
	}
}
