package extractor

import (
	"testing"
)

func TestParseAmountToken(t *testing.T) {
	tests := []struct {
		input string
		want  float64
		ok    bool
	}{
		{"5000", 5000, true},
		{"300,000", 300000, true},
		{"1,234,567", 1234567, true},
		{"50k", 50000, true},
		{"50K", 50000, true},
		{"1.5m", 1500000, true},
		{"4500.50", 4500.50, true},
		{"0", 0, true},
		{"", 0, false},
		{"abc", 0, false},
		{"12abc", 0, false},
		{"-5000", 0, false},
		{"5000kg", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := parseAmountToken(tt.input)
			if ok != tt.ok {
				t.Fatalf("parseAmountToken(%q) ok = %v, want %v", tt.input, ok, tt.ok)
			}
			if ok && got != tt.want {
				t.Errorf("parseAmountToken(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestPickAmount(t *testing.T) {
	r := newRuleBackend(nil, nil)

	tests := []struct {
		name    string
		text    string
		want    *float64
		wantLow bool
	}{
		{
			name: "single candidate",
			text: "sold bread 5000",
			want: float64Ptr(5000),
		},
		{
			name:    "several candidates fall back to largest",
			text:    "sold 3 bags 45000",
			want:    float64Ptr(45000),
			wantLow: true,
		},
		{
			name: "currency cue settles the tie",
			text: "sold 3 bags ugx 45000",
			want: float64Ptr(45000),
		},
		{
			name:    "cue settles tie toward smaller candidate",
			text:    "bought 200 units shs 90,000",
			want:    float64Ptr(90000),
			wantLow: false,
		},
		{
			name: "no candidates",
			text: "sold bread",
			want: nil,
		},
		{
			name:    "zero is legal but flagged",
			text:    "sold bread 0",
			want:    float64Ptr(0),
			wantLow: true,
		},
		{
			name: "negative skipped entirely",
			text: "adjust -5000",
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, low := r.pickAmount(tokenize(tt.text))
			if tt.want == nil {
				if got != nil {
					t.Fatalf("pickAmount = %v, want nil", *got)
				}
				return
			}
			if got == nil || *got != *tt.want {
				t.Fatalf("pickAmount = %v, want %v", got, *tt.want)
			}
			if low != tt.wantLow {
				t.Errorf("low = %v, want %v", low, tt.wantLow)
			}
		})
	}
}

func TestPickAmount_CustomCues(t *testing.T) {
	r := newRuleBackend([]string{"rwf"}, nil)

	got, low := r.pickAmount(tokenize("sold 12 loaves rwf 6000"))
	if got == nil || *got != 6000 {
		t.Fatalf("pickAmount = %v, want 6000", got)
	}
	if low {
		t.Error("cue-resolved amount should not be low confidence")
	}
}
