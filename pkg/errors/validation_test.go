package errors

import (
	"testing"
)

func TestValidateURL(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"valid http", "http://localhost:3030/ds/sparql", false},
		{"valid https", "https://dbpedia.org/sparql", false},

		{"empty", "", true},
		{"ftp scheme", "ftp://example.com/sparql", true},
		{"no scheme", "dbpedia.org/sparql", true},
		{"space", "http://example.com/my sparql", true},
		{"newline", "http://example.com/\nsparql", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateURL(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateURL(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}

func TestValidatePrefix(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"simple", "foaf", false},
		{"with digits", "dc11", false},
		{"with dash", "schema-org", false},
		{"inner dot", "a.b", false},
		{"empty prefix", "", false},

		{"leading digit", "1abc", true},
		{"leading underscore", "_x", true},
		{"trailing dot", "abc.", true},
		{"colon", "a:b", true},
		{"space", "a b", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePrefix(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidatePrefix(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if err != nil && !Is(err, ErrCodeInvalidInput) {
				t.Errorf("ValidatePrefix(%q) code = %v, want %v", tt.input, GetCode(err), ErrCodeInvalidInput)
			}
		})
	}
}

func TestValidateNamespace(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"hash namespace", "http://xmlns.com/foaf/0.1/", false},
		{"urn namespace", "urn:isbn:", false},

		{"empty", "", true},
		{"angle bracket", "http://example.com/<x>", true},
		{"space", "http://example.com/ x", true},
		{"control", "http://example.com/\x01", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateNamespace(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateNamespace(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
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
		{"relative", "data/books.ttl", false},
		{"absolute", "/var/lib/data.nt", false},

		{"empty", "", true},
		{"null byte", "data\x00.ttl", true},
		{"too long", string(make([]byte, 5000)), true},
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
