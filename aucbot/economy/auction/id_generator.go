package auction

import "strings"

// Auction ids form a base-36 counter: the next id is the previous one plus
// one, so ids sort lexicographically in assignment order (within a length)
// and stay short enough to type into a command.
const (
	idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

	// seedAuctionID is the very first id, used when no auction exists yet.
	seedAuctionID = "start"
)

// nextAuctionID increments a base-36 identifier with carry. Rolling over
// every digit grows the id by one leading digit ("zz" -> "100"). Unknown
// characters are treated as the zero digit.
func nextAuctionID(last string) string {
	if last == "" {
		return seedAuctionID
	}

	b := []byte(strings.ToLower(last))
	for i := len(b) - 1; i >= 0; i-- {
		d := strings.IndexByte(idAlphabet, b[i])
		if d < 0 {
			d = 0
		}
		if d < len(idAlphabet)-1 {
			b[i] = idAlphabet[d+1]
			return string(b)
		}
		b[i] = idAlphabet[0]
	}
	return "1" + string(b)
}
