package decrypt

import (
	"encoding/base64"
	"fmt"
	"math/big"
	"strconv"
)

// Layered implements the current megacloud transform: three rounds of a
// keyed substitution, a columnar transposition, and a seeded character
// shift, applied over printable ASCII. The round key is derived from the
// provider key and the per-request client key.
type Layered struct{}

func (Layered) Name() string { return "layered" }

const (
	layerRounds = 3

	// Printable ASCII alphabet the transform operates over
	alphabetBase = 32
	alphabetSize = 95
)

// Decrypt reverses the three rounds and strips the length envelope:
// the plaintext is prefixed with its own length as four digits so the
// transposition padding can be discarded.
func (Layered) Decrypt(ciphertext string, mat Material) (string, error) {
	if ciphertext == "" {
		return "", fmt.Errorf("empty ciphertext")
	}

	roundKey, err := deriveKey(mat.ProviderKey, mat.ClientKey)
	if err != nil {
		return "", fmt.Errorf("deriving round key: %w", err)
	}

	decoded, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("decoding ciphertext: %w", err)
	}

	text := string(decoded)
	for round := layerRounds; round > 0; round-- {
		text = unwrapLayer(text, roundKey, round)
	}

	if len(text) < 4 {
		return "", fmt.Errorf("decrypted payload too short")
	}
	dataLen, err := strconv.Atoi(text[:4])
	if err != nil || dataLen < 0 || 4+dataLen > len(text) {
		return "", fmt.Errorf("invalid length envelope %q", text[:4])
	}

	return text[4 : 4+dataLen], nil
}

// alphabet returns the printable ASCII character table.
func alphabet() []byte {
	chars := make([]byte, alphabetSize)
	for i := range chars {
		chars[i] = byte(alphabetBase + i)
	}
	return chars
}

// prng is the linear congruential generator both the shift and the
// shuffle are seeded with.
type prng struct {
	state uint64
}

func (p *prng) next(bound int) int {
	p.state = (p.state*1103515245 + 12345) & 0x7fffffff
	return int(p.state % uint64(bound))
}

// hash31 is the 32-bit polynomial string hash used to seed the PRNG.
func hash31(key string) uint64 {
	var h uint64
	for i := 0; i < len(key); i++ {
		h = (h*31 + uint64(key[i])) & 0xffffffff
	}
	return h
}

// unwrapLayer undoes one round: the seeded shift, the columnar
// transposition, then the keyed substitution.
func unwrapLayer(text, roundKey string, round int) string {
	layerKey := roundKey + strconv.Itoa(round)
	chars := alphabet()

	// Seeded shift (reverse)
	rng := prng{state: hash31(layerKey)}
	shifted := make([]byte, len(text))
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c < alphabetBase || c >= alphabetBase+alphabetSize {
			shifted[i] = c
			continue
		}
		offset := rng.next(alphabetSize)
		idx := (int(c) - alphabetBase - offset + alphabetSize) % alphabetSize
		shifted[i] = chars[idx]
	}

	// Columnar transposition (reverse)
	text = untranspose(string(shifted), layerKey)

	// Keyed substitution (reverse): shuffled[i] maps back to chars[i]
	shuffled := seededShuffle(chars, layerKey)
	inverse := [256]byte{}
	for i, c := range shuffled {
		inverse[c] = chars[i]
	}

	out := make([]byte, len(text))
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c >= alphabetBase && c < alphabetBase+alphabetSize {
			out[i] = inverse[c]
		} else {
			out[i] = c
		}
	}

	return string(out)
}

// deriveKey generates the round key from the provider and client keys.
// The polynomial hash runs in arbitrary precision; the upstream script
// computes it with BigInt and only then reduces, so a fixed-width
// accumulator would derive a different key for real key lengths.
func deriveKey(providerKey, clientKey string) (string, error) {
	const (
		xorMask   = 247
		shiftBias = 5
	)

	tempKey := providerKey + clientKey
	if tempKey == "" {
		return "", fmt.Errorf("empty key material")
	}

	// h = charCode + h*31 + (h<<7) - h, then abs, then mod 2^63-1
	hash := big.NewInt(0)
	for i := 0; i < len(tempKey); i++ {
		old := new(big.Int).Set(hash)
		hash.Mul(old, big.NewInt(31))
		hash.Add(hash, new(big.Int).Lsh(old, 7))
		hash.Sub(hash, old)
		hash.Add(hash, big.NewInt(int64(tempKey[i])))
	}
	hash.Abs(hash)
	lHash := new(big.Int).Mod(hash, big.NewInt(0x7fffffffffffffff)).Int64()

	// XOR each character
	xored := make([]byte, len(tempKey))
	for i := 0; i < len(tempKey); i++ {
		xored[i] = tempKey[i] ^ xorMask
	}

	// Circular shift
	pivot := (int(lHash%int64(len(xored))) + shiftBias) % len(xored)
	rotated := append(append([]byte{}, xored[pivot:]...), xored[:pivot]...)

	// Interleave with the reversed client key
	leaf := reverseString(clientKey)
	maxLen := len(rotated)
	if len(leaf) > maxLen {
		maxLen = len(leaf)
	}
	var key []byte
	for i := 0; i < maxLen; i++ {
		if i < len(rotated) {
			key = append(key, rotated[i])
		}
		if i < len(leaf) {
			key = append(key, leaf[i])
		}
	}

	// Truncate based on the hash, then normalize to printable ASCII
	limit := 96 + int(lHash%33)
	if limit > len(key) {
		limit = len(key)
	}
	key = key[:limit]

	for i, c := range key {
		key[i] = byte(int(c)%alphabetSize + alphabetBase)
	}

	return string(key), nil
}

// seededShuffle performs a Fisher-Yates shuffle of the alphabet with a
// PRNG seeded from the layer key.
func seededShuffle(chars []byte, layerKey string) []byte {
	rng := prng{state: hash31(layerKey)}

	out := make([]byte, len(chars))
	copy(out, chars)

	for i := len(out) - 1; i > 0; i-- {
		j := rng.next(i + 1)
		out[i], out[j] = out[j], out[i]
	}

	return out
}

// untranspose reverses the columnar transposition: the forward pass
// fills a grid column by column in sorted-key order and reads rows, so
// the reverse fills columns from the input and reads the grid row-major.
func untranspose(src, layerKey string) string {
	cols := len(layerKey)
	if cols == 0 {
		return src
	}
	rows := (len(src) + cols - 1) / cols

	grid := make([][]byte, rows)
	for i := range grid {
		grid[i] = make([]byte, cols)
		for j := range grid[i] {
			grid[i][j] = ' '
		}
	}

	order := sortedKeyOrder(layerKey)

	srcIndex := 0
	for _, col := range order {
		for row := 0; row < rows; row++ {
			if srcIndex < len(src) {
				grid[row][col] = src[srcIndex]
				srcIndex++
			}
		}
	}

	out := make([]byte, 0, rows*cols)
	for row := 0; row < rows; row++ {
		out = append(out, grid[row]...)
	}

	return string(out)
}

// sortedKeyOrder returns column indices sorted by key byte, stable.
func sortedKeyOrder(layerKey string) []int {
	order := make([]int, len(layerKey))
	for i := range order {
		order[i] = i
	}
	// Stable insertion sort by key byte
	for i := 1; i < len(order); i++ {
		j := i
		for j > 0 && layerKey[order[j]] < layerKey[order[j-1]] {
			order[j], order[j-1] = order[j-1], order[j]
			j--
		}
	}
	return order
}

// reverseString reverses a string byte-wise; keys are ASCII.
func reverseString(s string) string {
	b := []byte(s)
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
	return string(b)
}
