package matcher

import "strings"

// stopWords is the fixed banking-noise vocabulary stripped before textual
// comparison. Implementations must use exactly this set; it is a contractual
// constant, not a tunable.
var stopWords = map[string]bool{
	"the": true, "and": true, "or": true, "ltd": true, "inc": true, "corp": true,
	"plc": true, "llc": true, "gmbh": true, "pvt": true, "payment": true,
	"transfer": true, "tfr": true, "inv": true, "ref": true, "invoice": true,
	"bill": true, "reference": true, "to": true, "from": true, "of": true,
	"for": true, "by": true, "deposit": true, "withdrawal": true, "dr": true,
	"cr": true, "momo": true, "mobile": true, "money": true, "bank": true,
	"charges": true, "service": true, "fee": true, "comm": true, "pos": true,
	"purchase": true, "card": true, "visa": true, "mastercard": true,
	"direct": true, "debit": true, "standing": true, "order": true, "chq": true,
	"cheque": true, "cash": true, "atm": true, "trf": true, "rtgs": true,
	"neft": true, "imps": true, "ach": true, "wire": true, "txn": true,
	"id": true, "no": true, "number": true, "account": true, "acct": true,
	"opening": true, "balance": true, "closing": true, "brought": true,
	"forward": true,
}

// normalizeText lowercases, strips everything outside [a-z0-9\s], splits on
// whitespace, and drops single-character tokens and stop words, returning the
// surviving tokens joined by a single space.
func normalizeText(input string) string {
	lower := strings.ToLower(input)

	var b strings.Builder
	b.Grow(len(lower))
	for _, r := range lower {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == ' ' || r == '\t' || r == '\n' {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}

	fields := strings.Fields(b.String())
	kept := make([]string, 0, len(fields))
	for _, tok := range fields {
		if len(tok) <= 1 {
			continue
		}
		if stopWords[tok] {
			continue
		}
		kept = append(kept, tok)
	}
	return strings.Join(kept, " ")
}
