package validation

import (
	"errors"
	"testing"
)

func TestSanitizeText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"trims whitespace", "  Buy milk  ", "Buy milk"},
		{"drops control characters", "Buy\x00 milk\x07", "Buy milk"},
		{"keeps newline and tab", "a\nb\tc", "a\nb\tc"},
		{"blank stays blank", "   ", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := SanitizeText(tt.input); got != tt.want {
				t.Errorf("Expected %q, got %q", tt.want, got)
			}
		})
	}
}

type loginForm struct {
	Email    string `validate:"notblank"`
	Password string `validate:"notblank"`
}

type rateForm struct {
	Rate    string `validate:"ratelimit"`
	Origins string `validate:"origins"`
}

func TestCustomValidators(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		value   any
		wantErr bool
	}{
		{"filled login", loginForm{Email: "a@b.c", Password: "pw"}, false},
		{"blank email", loginForm{Email: "   ", Password: "pw"}, true},
		{"empty password", loginForm{Email: "a@b.c"}, true},
		{"valid rate and origins", rateForm{Rate: "10-S", Origins: "https://a.example.com, http://localhost:3000"}, false},
		{"bad rate", rateForm{Rate: "ten per second", Origins: "https://a.example.com"}, true},
		{"origin with trailing slash", rateForm{Rate: "5-M", Origins: "https://a.example.com/"}, true},
		{"origin without scheme", rateForm{Rate: "5-M", Origins: "a.example.com"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := Validate.Struct(tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("Expected error=%v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestFieldErrors(t *testing.T) {
	t.Parallel()

	err := Validate.Struct(loginForm{})
	msgs := FieldErrors(err)
	if len(msgs) != 2 {
		t.Fatalf("Expected 2 messages, got %v", msgs)
	}
	if msgs[0] != "email failed notblank" {
		t.Errorf("Unexpected message %q", msgs[0])
	}

	if got := FieldErrors(errors.New("boom")); len(got) != 1 || got[0] != "boom" {
		t.Errorf("Expected plain error passthrough, got %v", got)
	}
}
