package throttle

import "github.com/ecanbay/sendgate/internal/domain"

// Policy holds the length bounds applied at admission. A nil MaxLength
// disables the upper bound check entirely. The lower bound has no such
// escape: it is always compared, and is only disabled by construction,
// since any MinLength <= 0 can never reject. The asymmetry between the
// two checks is intentional and pinned by tests.
type Policy struct {
	MinLength int
	MaxLength *int
}

// Violation describes an admission rejection.
type Violation struct {
	Kind   domain.ViolationKind
	Length int
	Bound  int
}

// Evaluate returns nil when the text passes the length policy.
func (p Policy) Evaluate(text string) *Violation {
	length := domain.ContentLength(text)

	if p.MaxLength != nil && length > *p.MaxLength {
		return &Violation{
			Kind:   domain.ViolationMessageTooLong,
			Length: length,
			Bound:  *p.MaxLength,
		}
	}

	if length < p.MinLength {
		return &Violation{
			Kind:   domain.ViolationMessageTooShort,
			Length: length,
			Bound:  p.MinLength,
		}
	}

	return nil
}
