package loyalty

import "strings"

// accountLength is the fixed card number width the provider expects.
// Legacy cards were issued with 15 digits and gain a leading zero.
const accountLength = 16

// programCodes maps ledger currency codes to the provider's program names
var programCodes = map[string]string{
	"IR": "Imperia_R",
}

// NormalizeAccount left-pads a card number with zeros to the provider's
// fixed width. Numbers already at or above the width pass through.
func NormalizeAccount(account string) string {
	account = strings.TrimSpace(account)
	if len(account) >= accountLength {
		return account
	}
	return strings.Repeat("0", accountLength-len(account)) + account
}

// ProgramName translates a ledger program code to the provider's name.
// Unknown codes pass through unchanged.
func ProgramName(code string) string {
	if name, ok := programCodes[code]; ok {
		return name
	}
	return code
}
