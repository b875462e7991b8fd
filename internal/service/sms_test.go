package service

import "testing"

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		name   string
		number string
		prefix string
		want   string
	}{
		{"already international", "+84901234567", "+84", "+84901234567"},
		{"other country untouched", "+14155550100", "+84", "+14155550100"},
		{"leading zero stripped", "0901234567", "+84", "+84901234567"},
		{"no leading zero", "901234567", "+84", "+84901234567"},
		{"whitespace trimmed", "  0901234567 ", "+84", "+84901234567"},
		{"empty stays empty", "", "+84", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizePhone(tt.number, tt.prefix); got != tt.want {
				t.Errorf("NormalizePhone(%q, %q) = %q, want %q", tt.number, tt.prefix, got, tt.want)
			}
		})
	}
}
