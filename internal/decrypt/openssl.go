package decrypt

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/md5"
	"encoding/base64"
	"fmt"
)

const opensslMagic = "Salted__"

// OpenSSL implements the historic Upcloud transform: AES-256-CBC over
// an OpenSSL "Salted__" envelope, with key and IV derived from the
// provider passphrase via EVP_BytesToKey (MD5, one round per block).
type OpenSSL struct{}

func (OpenSSL) Name() string { return "openssl" }

// Decrypt decodes the envelope, derives key material from the provider
// key and the embedded salt, and strips PKCS#7 padding.
func (OpenSSL) Decrypt(ciphertext string, mat Material) (string, error) {
	data, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return "", fmt.Errorf("decoding ciphertext: %w", err)
	}

	if len(data) < 16 || string(data[:8]) != opensslMagic {
		return "", fmt.Errorf("missing %q envelope", opensslMagic)
	}
	salt := data[8:16]
	body := data[16:]

	if len(body) == 0 || len(body)%aes.BlockSize != 0 {
		return "", fmt.Errorf("ciphertext length %d not a multiple of the block size", len(body))
	}

	key, iv := evpBytesToKey([]byte(mat.ProviderKey), salt, 32, aes.BlockSize)

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", fmt.Errorf("initializing cipher: %w", err)
	}

	plain := make([]byte, len(body))
	cipher.NewCBCDecrypter(block, iv).CryptBlocks(plain, body)

	plain, err = stripPKCS7(plain)
	if err != nil {
		return "", err
	}

	return string(plain), nil
}

// evpBytesToKey derives keyLen+ivLen bytes the way OpenSSL's
// EVP_BytesToKey does with MD5 and a single iteration:
// D_1 = MD5(password || salt), D_n = MD5(D_{n-1} || password || salt).
func evpBytesToKey(password, salt []byte, keyLen, ivLen int) (key, iv []byte) {
	var derived, block []byte
	for len(derived) < keyLen+ivLen {
		h := md5.New()
		h.Write(block)
		h.Write(password)
		h.Write(salt)
		block = h.Sum(nil)
		derived = append(derived, block...)
	}
	return derived[:keyLen], derived[keyLen : keyLen+ivLen]
}

// stripPKCS7 removes and validates PKCS#7 padding.
func stripPKCS7(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty plaintext")
	}
	pad := int(data[len(data)-1])
	if pad == 0 || pad > aes.BlockSize || pad > len(data) {
		return nil, fmt.Errorf("invalid padding")
	}
	for _, b := range data[len(data)-pad:] {
		if int(b) != pad {
			return nil, fmt.Errorf("invalid padding")
		}
	}
	return data[:len(data)-pad], nil
}
