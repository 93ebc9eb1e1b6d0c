package utils

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestExtractModelObject(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantLen int
		wantErr bool
	}{
		{
			name:    "Pure JSON",
			input:   `{"bedrooms": 3, "property_type": "condominium"}`,
			wantLen: 2,
		},
		{
			name:    "JSON in markdown code block",
			input:   "```json\n" + `{"listing_type": "rent", "max_price": 3000}` + "\n```",
			wantLen: 2,
		},
		{
			name:    "Untagged code block",
			input:   "```\n" + `{"city": "Cheras"}` + "\n```",
			wantLen: 1,
		},
		{
			name:    "JSON with surrounding text",
			input:   `Sure! Here are the filters: {"city": "Cheras", "bedrooms": 2} Let me know.`,
			wantLen: 2,
		},
		{
			name:    "Transport arrays",
			input:   `{"transport_types": ["MRT"], "station_names": ["KLCC"]}`,
			wantLen: 2,
		},
		{
			name:    "Trailing comma",
			input:   `{"min_roi": 4,}`,
			wantLen: 1,
		},
		{
			name:    "Unquoted keys",
			input:   `{bedrooms: 3, bathrooms: 2}`,
			wantLen: 2,
		},
		{
			name:    "Single quotes",
			input:   `{'city': 'Mont Kiara', 'bedrooms': 2}`,
			wantLen: 2,
		},
		{
			name:    "Byte order mark",
			input:   "\ufeff" + `{"bedrooms": 1}`,
			wantLen: 1,
		},
		{
			name:    "Array is not a filter object",
			input:   `["MRT", "LRT"]`,
			wantErr: true,
		},
		{
			name:    "Empty string",
			input:   "  ",
			wantErr: true,
		},
		{
			name:    "Not JSON",
			input:   "I could not understand the query",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := ExtractModelObject(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ExtractModelObject() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrNoObject) {
					t.Errorf("error %v does not wrap ErrNoObject", err)
				}
				return
			}

			var got map[string]any
			if err := json.Unmarshal(raw, &got); err != nil {
				t.Fatalf("result is not valid JSON: %v", err)
			}
			if len(got) != tt.wantLen {
				t.Errorf("got %d keys (%v), want %d", len(got), got, tt.wantLen)
			}
		})
	}
}

func TestBalancedObject(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "Simple object", input: `{"a": 1} tail`, want: `{"a": 1}`},
		{name: "Nested object", input: `{"a": {"b": 2}} tail`, want: `{"a": {"b": 2}}`},
		{name: "Brace inside string", input: `{"a": "x}y"}`, want: `{"a": "x}y"}`},
		{name: "Escaped quote", input: `{"a": "say \"}\""} x`, want: `{"a": "say \"}\""}`},
		{name: "Unbalanced", input: `{"a": 1`, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := balancedObject(tt.input); got != tt.want {
				t.Errorf("balancedObject() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSingleToDoubleQuotes(t *testing.T) {
	in := `{'city': 'Kuala Lumpur', "note": "it's near"}`
	want := `{"city": "Kuala Lumpur", "note": "it's near"}`
	if got := singleToDoubleQuotes(in); got != want {
		t.Errorf("singleToDoubleQuotes() = %v, want %v", got, want)
	}
}
