package checkout

import "strings"

const upperHex = "0123456789ABCDEF"

// encodeURIComponent кодирует строку по правилам одноимённой функции браузера:
// без экранирования остаются только A-Z a-z 0-9 и - _ . ! ~ * ' ( ).
// url.QueryEscape не подходит: пробел он кодирует как "+", а ! * ' ( ) экранирует.
func encodeURIComponent(s string) string {
	var b strings.Builder
	b.Grow(len(s) * 3)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperHex[c>>4])
		b.WriteByte(upperHex[c&0x0f])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
