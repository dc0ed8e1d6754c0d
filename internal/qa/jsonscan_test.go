package qa

import "testing"

func TestExtractJSONObject(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "bare object",
			in:   `{"answer": "yes"}`,
			want: `{"answer": "yes"}`,
		},
		{
			name: "prose wrapped",
			in:   "Here is the result:\n{\"answer\": \"yes\"}\nLet me know if you need more.",
			want: `{"answer": "yes"}`,
		},
		{
			name: "nested object",
			in:   `{"a": {"b": 1}, "c": [2]}`,
			want: `{"a": {"b": 1}, "c": [2]}`,
		},
		{
			name: "braces inside strings",
			in:   `{"answer": "use {curly} braces", "note": "}{"}`,
			want: `{"answer": "use {curly} braces", "note": "}{"}`,
		},
		{
			name: "escaped quote in string",
			in:   `{"answer": "she said \"{\" loudly"}`,
			want: `{"answer": "she said \"{\" loudly"}`,
		},
		{
			name: "no json",
			in:   "I cannot produce structured output for that.",
			want: "",
		},
		{
			name: "unbalanced",
			in:   `{"answer": "truncated`,
			want: "",
		},
		{
			name: "empty",
			in:   "",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractJSONObject(tt.in); got != tt.want {
				t.Errorf("ExtractJSONObject(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
