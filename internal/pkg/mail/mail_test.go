package mail

import "testing"

func TestSendDisabledIsNoop(t *testing.T) {
	s := New(Config{Enable: false})
	if err := s.Send(Message{To: []string{"a@b.co"}, Subject: "x", HTML: "<p>x</p>"}); err != nil {
		t.Fatalf("disabled sender must not error: %v", err)
	}
}

func TestEnvelopeFrom(t *testing.T) {
	cases := map[string]string{
		"Starboard News <news@starboard.to>": "news@starboard.to",
		"news@starboard.to":                  "news@starboard.to",
		"<news@starboard.to>":                "news@starboard.to",
	}
	for in, want := range cases {
		if got := envelopeFrom(in); got != want {
			t.Errorf("envelopeFrom(%q) = %q, want %q", in, got, want)
		}
	}
}
