package exchange

import "strings"

const DefaultRequiredConfirmations = 6

// keyed by CURRENCY/NETWORK
var requiredConfirmations = map[string]int{
	"BTC/BTC":    3,
	"USDT/TRC20": 20,
	"USDT/ERC20": 12,
	"USDT/BEP20": 15,
	"TAO/TAO":    12,
}

// the exchange reports chains by their native coin, invoices use token standards
var networkAliases = map[string]string{
	"TRX": "TRC20",
	"ETH": "ERC20",
	"BSC": "BEP20",
}

// RequiredConfirmations is the static confirmation threshold for a
// currency/network pair.
func RequiredConfirmations(currency, network string) int {
	key := strings.ToUpper(strings.TrimSpace(currency)) + "/" + NormalizeNetwork(network)
	if n, ok := requiredConfirmations[key]; ok {
		return n
	}
	return DefaultRequiredConfirmations
}

func NormalizeNetwork(network string) string {
	n := strings.ToUpper(strings.TrimSpace(network))
	if alias, ok := networkAliases[n]; ok {
		return alias
	}
	return n
}

func NormalizeCurrency(currency string) string {
	return strings.ToUpper(strings.TrimSpace(currency))
}

// SameNetwork compares two network names after alias normalisation.
func SameNetwork(a, b string) bool {
	return NormalizeNetwork(a) == NormalizeNetwork(b)
}
