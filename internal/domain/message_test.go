package domain

import "testing"

func TestStateIsValid(t *testing.T) {
	t.Parallel()

	valid := []State{StateQueued, StateSent, StateFailed}
	for _, s := range valid {
		if !s.IsValid() {
			t.Errorf("State(%q).IsValid() = false, want true", s)
		}
	}

	if State("DELIVERED").IsValid() {
		t.Error("unknown state should not be valid")
	}
	if State("").IsValid() {
		t.Error("empty state should not be valid")
	}
}

func TestViolationKindIsValid(t *testing.T) {
	t.Parallel()

	if !ViolationMessageTooLong.IsValid() || !ViolationMessageTooShort.IsValid() {
		t.Fatal("declared violation kinds should be valid")
	}
	if ViolationKind("MESSAGE_TOO_SPICY").IsValid() {
		t.Fatal("unknown violation kind should not be valid")
	}
}

func TestContentLengthCountsRunes(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name string
		text string
		want int
	}{
		{name: "ascii", text: "hello", want: 5},
		{name: "empty", text: "", want: 0},
		{name: "multibyte", text: "héllo wörld", want: 11},
		{name: "emoji", text: "hi 👋", want: 4},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			if got := ContentLength(tc.text); got != tc.want {
				t.Fatalf("ContentLength(%q) = %d, want %d", tc.text, got, tc.want)
			}
		})
	}
}

func TestDescribe(t *testing.T) {
	t.Parallel()

	msg := &OutgoingMessage{
		State:       StateQueued,
		Sender:      "alice",
		Destination: "#general",
	}
	if got := msg.Describe(); got != "QUEUED to #general from alice" {
		t.Fatalf("Describe() = %q", got)
	}

	var nilMsg *OutgoingMessage
	if got := nilMsg.Describe(); got != "<nil>" {
		t.Fatalf("Describe() on nil = %q", got)
	}

	bare := &OutgoingMessage{State: StateFailed}
	if got := bare.Describe(); got != "FAILED" {
		t.Fatalf("Describe() = %q", got)
	}
}
