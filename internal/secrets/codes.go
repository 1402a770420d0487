package secrets

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"golang.org/x/crypto/argon2"
)

// LinkCodeLength — длина одноразового кода привязки.
const LinkCodeLength = 6

// без 0/O и 1/I, чтобы код можно было продиктовать
const linkAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// Соль фиксирована: хэш кода служит ключом поиска.
var linkSalt = []byte("lander-link-code")

// NewDeviceID — 128 случайных бит в hex.
func NewDeviceID() (string, error) {
	var raw [16]byte
	if _, err := rand.Read(raw[:]); err != nil {
		return "", fmt.Errorf("device id: %w", err)
	}
	return hex.EncodeToString(raw[:]), nil
}

// NewLinkCode — код из LinkCodeLength символов linkAlphabet.
func NewLinkCode() (string, error) {
	var b strings.Builder
	max := big.NewInt(int64(len(linkAlphabet)))
	for i := 0; i < LinkCodeLength; i++ {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("link code: %w", err)
		}
		b.WriteByte(linkAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// NormalizeLinkCode приводит ввод пользователя к каноническому виду.
func NormalizeLinkCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// HashLinkCode — детерминированный argon2id-хэш (hex) нормализованного кода.
func HashLinkCode(code string) string {
	h := argon2.IDKey([]byte(NormalizeLinkCode(code)), linkSalt, 1, 64*1024, 1, 32)
	return hex.EncodeToString(h)
}

// ValidLinkCode — проверка формы кода до похода в хранилище.
func ValidLinkCode(code string) bool {
	code = NormalizeLinkCode(code)
	if len(code) != LinkCodeLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if !strings.ContainsRune(linkAlphabet, rune(code[i])) {
			return false
		}
	}
	return true
}

// ValidDeviceID — 32 hex-символа в нижнем регистре.
func ValidDeviceID(id string) bool {
	if len(id) != 32 {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
