package lexsyn

import "golang.org/x/text/unicode/norm"

// normalizeIdent applies Unicode NFC normalization to an identifier
// lexeme, matching the teacher's internal/lexer/normalize.go. Without
// this, two source files using distinct but canonically-equivalent byte
// sequences for the "same" identifier would mint two different symbols at
// resolve time instead of colliding the way a reader expects.
func normalizeIdent(s string) string {
	if norm.NFC.IsNormalString(s) {
		return s
	}
	return norm.NFC.String(s)
}
