package profile

import "testing"

func TestValidateCode(t *testing.T) {
	valid := []string{"12345", "00001", "99999"}
	for _, code := range valid {
		if err := ValidateCode(code); err != nil {
			t.Errorf("ValidateCode(%q) = %v, want nil", code, err)
		}
	}

	invalid := []string{"", "1234", "123456", "12a45", "12 45", "-1234", "12345\n"}
	for _, code := range invalid {
		if err := ValidateCode(code); err == nil {
			t.Errorf("ValidateCode(%q) = nil, want error", code)
		}
	}
}
