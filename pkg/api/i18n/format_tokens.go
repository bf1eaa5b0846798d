package i18n

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// FormatSOL represents the given amount of lamports in SOL and formats it according to the scheme (# ### or #.##)
func FormatSOL(lamports uint64) string {
	return FormatTokens(*new(big.Int).SetUint64(lamports), 9, "SOL")
}

// FormatTokens translates the value in indivisible units into a user-friendly form taking into account
// decimals according to the scheme (# ### or #.##)
func FormatTokens(amount big.Int, decimals int32, symbol string) string {
	x := decimal.NewFromBigInt(&amount, -1*decimals)
	x = truncate(x, 3)
	intPart := x.IntPart()
	if x.Equal(decimal.New(x.IntPart(), 0)) {
		return fmt.Sprintf("%s %s", formatIntPart(intPart), symbol)
	}
	parts := strings.Split(x.String(), ".")
	if len(parts) != 2 {
		return fmt.Sprintf("%s %s", formatIntPart(intPart), symbol)
	}
	return fmt.Sprintf("%s.%s %s", formatIntPart(intPart), parts[1], symbol)
}

// FormatUSD formats a USD value according to the english locale ($#,###.##).
func FormatUSD(value decimal.Decimal) string {
	p := message.NewPrinter(language.English)
	x := value.Round(2)
	intPart := p.Sprintf("%v", x.IntPart())
	parts := strings.Split(x.StringFixed(2), ".")
	if len(parts) != 2 {
		return "$" + intPart
	}
	return "$" + intPart + "." + parts[1]
}

func truncate(d decimal.Decimal, n int32) decimal.Decimal {
	if n <= 0 {
		return d.Truncate(n)
	}
	if d.IsZero() {
		return decimal.Zero
	}
	dn := decimal.New(1, n-1)
	if d.Abs().GreaterThanOrEqual(dn) {
		return d.Truncate(0)
	}
	for i := int32(0); i < 32; i++ {
		if d.Abs().Shift(i).GreaterThanOrEqual(dn) {
			return d.Truncate(i)
		}
	}
	return d
}

func formatIntPart(n int64) string {
	s := fmt.Sprintf("%d", n)
	length := len(s)
	if length <= 3 {
		return s
	}
	var result []string
	for length > 3 {
		result = append([]string{s[length-3:]}, result...)
		length -= 3
	}
	result = append([]string{s[:length]}, result...)
	return strings.Join(result, " ")
}
