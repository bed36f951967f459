package user

import "testing"

func Test_passwordPolicyViolation(t *testing.T) {
	tests := []struct {
		name string
		pwd  string
		want string
	}{
		{name: "too short", pwd: "a1!", want: pwdMinLenTag},
		{name: "whitespace", pwd: "abc 123!xyz", want: pwdNoSpaceTag},
		{name: "all numeric", pwd: "1234567890", want: pwdNotAllNumTag},
		{name: "no special", pwd: "abcdef123", want: pwdComplexityTag},
		{name: "no digit", pwd: "abcdefgh!", want: pwdComplexityTag},
		{name: "similar to username", pwd: "Theodora1!", want: pwdAttrSimTag},
		{name: "valid", pwd: "c0nstant!nople#Gate"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := passwordPolicyViolation(tt.pwd, "Empress", "theodora1", "empress@byz.test"); got != tt.want {
				t.Errorf("passwordPolicyViolation() = %q, want %q", got, tt.want)
			}
		})
	}
}
