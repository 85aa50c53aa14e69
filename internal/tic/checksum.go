package tic

// checksumMask ponechá spodních 6 bitů součtu, checksumOffset posune výsledek do tisknutelné ASCII.
const (
	checksumMask   = 0x3F
	checksumOffset = 0x20
)

// Checksum spočítá kontrolní znak pro data: (součet ASCII kódů & 0x3F) + 0x20.
func Checksum(data []byte) byte {
	var sum uint
	for _, b := range data {
		sum += uint(b)
	}
	return byte(sum&checksumMask) + checksumOffset
}

// VerifyChecksum ověří dataset, jehož poslední bajt je kontrolní znak.
// Součet zahrnuje celý zbytek datasetu, včetně HT před kontrolním znakem.
func VerifyChecksum(dataset []byte) bool {
	if len(dataset) < 2 {
		return false
	}
	last := len(dataset) - 1
	return Checksum(dataset[:last]) == dataset[last]
}
