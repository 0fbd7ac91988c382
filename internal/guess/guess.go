// internal/guess/guess.go
//
// Guess format rules for the Numerito game.
// A guess is accepted when it is exactly four decimal digits, does not start
// with '0', and has no repeated digit. Checks run in a fixed order and the
// first failure wins, so each rejection carries exactly one reason.
//
// The service re-validates every guess; this package only exists so that
// malformed guesses never cost a network round trip.

package guess

// Length is the number of digits in a guess.
const Length = 4

// Rejection reasons, one per rule.
const (
	ReasonEmpty       = "enter a number"
	ReasonLength      = "the number must have exactly 4 digits"
	ReasonDigits      = "only digits (0-9) are allowed"
	ReasonLeadingZero = "the first digit cannot be 0"
	ReasonNotDistinct = "all digits must be distinct"
)

// Result is the outcome of Validate. Reason is empty iff Valid.
type Result struct {
	Valid  bool
	Reason string
}

// Validate checks g against the guess rules.
func Validate(g string) Result {
	if isBlank(g) {
		return reject(ReasonEmpty)
	}
	if len(g) != Length {
		return reject(ReasonLength)
	}
	if !isDigits(g) {
		return reject(ReasonDigits)
	}
	if g[0] == '0' {
		return reject(ReasonLeadingZero)
	}
	if !allDistinct(g) {
		return reject(ReasonNotDistinct)
	}
	return Result{Valid: true}
}

func reject(reason string) Result { return Result{Reason: reason} }

// isBlank reports whether s is empty or only ASCII whitespace.
func isBlank(s string) bool {
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\n', '\r', '\v', '\f':
		default:
			return false
		}
	}
	return true
}

// isDigits reports whether every byte of s is '0'..'9'.
// Multi-byte runes never pass since their bytes are >= 0x80.
func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// allDistinct assumes s is all digits.
func allDistinct(s string) bool {
	var seen [10]bool
	for i := 0; i < len(s); i++ {
		d := s[i] - '0'
		if seen[d] {
			return false
		}
		seen[d] = true
	}
	return true
}
