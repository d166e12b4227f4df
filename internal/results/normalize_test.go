package results

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"FC Barcelona", "fc barcelona"},
		{"  Red   Sox ", "red sox"},
		{"Señora Martínez", "senora martinez"},
		{"St. Louis Cardinals", "st louis cardinals"},
		{"Jo-Wilfried Tsonga", "jo wilfried tsonga"},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSameName(t *testing.T) {
	tests := []struct {
		a, b string
		want bool
	}{
		{"FC Barcelona", "Barcelona", true},
		{"Barcelona", "FC Barcelona", true},
		{"YANKEES", "Yankees", true},
		{"New York Yankees", "Yankees", true},
		{"Martínez", "Martinez", true},
		{"Red Sox", "White Sox", false},
		{"Yankees", "Mets", false},
		// Substrings inside a word must not match.
		{"Sox", "Soxville", false},
		{"", "Yankees", false},
	}
	for _, tt := range tests {
		if got := SameName(tt.a, tt.b); got != tt.want {
			t.Errorf("SameName(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}
