package throttle

import (
	"strings"
	"testing"

	"github.com/ecanbay/sendgate/internal/domain"
)

func intPtr(n int) *int { return &n }

func TestPolicyEvaluate(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		policy   Policy
		text     string
		wantKind domain.ViolationKind
		accepted bool
	}{
		{
			name:     "within bounds",
			policy:   Policy{MinLength: 1, MaxLength: intPtr(10)},
			text:     "hello",
			accepted: true,
		},
		{
			name:     "exactly max length",
			policy:   Policy{MinLength: 1, MaxLength: intPtr(5)},
			text:     "hello",
			accepted: true,
		},
		{
			name:     "exactly min length",
			policy:   Policy{MinLength: 5, MaxLength: intPtr(10)},
			text:     "hello",
			accepted: true,
		},
		{
			name:     "one over max",
			policy:   Policy{MinLength: 1, MaxLength: intPtr(10)},
			text:     "hello world",
			wantKind: domain.ViolationMessageTooLong,
		},
		{
			name:     "one under min",
			policy:   Policy{MinLength: 2, MaxLength: intPtr(10)},
			text:     "h",
			wantKind: domain.ViolationMessageTooShort,
		},
		{
			name:     "unbounded max accepts huge text",
			policy:   Policy{MinLength: 1, MaxLength: nil},
			text:     strings.Repeat("x", 100_000),
			accepted: true,
		},
		{
			name:     "min check runs even with unbounded max",
			policy:   Policy{MinLength: 5, MaxLength: nil},
			text:     "hey",
			wantKind: domain.ViolationMessageTooShort,
		},
		{
			name:     "min disabled by construction accepts empty text",
			policy:   Policy{MinLength: 0, MaxLength: intPtr(10)},
			text:     "",
			accepted: true,
		},
		{
			name:     "negative min accepts everything short",
			policy:   Policy{MinLength: -1, MaxLength: intPtr(10)},
			text:     "",
			accepted: true,
		},
		{
			name:     "multibyte text measured in runes",
			policy:   Policy{MinLength: 1, MaxLength: intPtr(5)},
			text:     "héllo",
			accepted: true,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			violation := tc.policy.Evaluate(tc.text)
			if tc.accepted {
				if violation != nil {
					t.Fatalf("Evaluate(%q) = %+v, want accepted", tc.text, violation)
				}
				return
			}

			if violation == nil {
				t.Fatalf("Evaluate(%q) accepted, want %s", tc.text, tc.wantKind)
			}
			if violation.Kind != tc.wantKind {
				t.Fatalf("violation kind = %s, want %s", violation.Kind, tc.wantKind)
			}
		})
	}
}

// The max check is skipped when its bound is nil; the min check is never
// skipped, only neutralized by choosing a bound no real message can
// undershoot. A symmetric "nil disables min" representation would change
// behavior and must not be introduced.
func TestPolicyBoundAsymmetry(t *testing.T) {
	t.Parallel()

	policy := Policy{MinLength: 3, MaxLength: nil}

	if violation := policy.Evaluate("ab"); violation == nil {
		t.Fatal("min check must still reject when max is unbounded")
	}
	if violation := policy.Evaluate(strings.Repeat("a", 1_000)); violation != nil {
		t.Fatalf("unbounded max must not reject: %+v", violation)
	}
}

func TestPolicyViolationDetail(t *testing.T) {
	t.Parallel()

	policy := Policy{MinLength: 1, MaxLength: intPtr(3)}
	violation := policy.Evaluate("abcd")
	if violation == nil {
		t.Fatal("expected violation")
	}
	if violation.Length != 4 {
		t.Fatalf("Length = %d, want 4", violation.Length)
	}
	if violation.Bound != 3 {
		t.Fatalf("Bound = %d, want 3", violation.Bound)
	}
}
