// Package validation содержит функции валидации входных данных.
package validation

import "unicode"

const ean13Length = 13

// IsValidBarcode проверяет штрихкод EAN-13 по контрольной цифре.
func IsValidBarcode(barcode string) bool {
	if len(barcode) != ean13Length {
		return false
	}

	sum := 0
	triple := false

	for i := len(barcode) - 1; i >= 0; i-- {
		ch := rune(barcode[i])
		if !unicode.IsDigit(ch) {
			return false
		}
		digit := int(ch - '0')
		if triple {
			digit *= 3
		}
		sum += digit
		triple = !triple
	}

	return sum%10 == 0
}
