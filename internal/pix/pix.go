// Package pix builds static BR Code payloads for PIX payments.
//
// A BR Code is the EMV-QRCPS-derived Tag-Length-Value text format rendered as
// a QR code or used as a copy-paste string. The payload is terminated by a
// CRC-16/CCITT-FALSE checksum over everything before it.
package pix

import "fmt"

// EMV tags used by a static PIX payload, in emission order.
const (
	tagPayloadFormat   = "00"
	tagInitiation      = "01"
	tagMerchantAccount = "26"
	tagCategoryCode    = "52"
	tagCurrency        = "53"
	tagAmount          = "54"
	tagCountry         = "58"
	tagMerchantName    = "59"
	tagMerchantCity    = "60"
	tagAdditionalData  = "62"

	// Sub-tags of the merchant account information template.
	tagGUI    = "00"
	tagPixKey = "01"

	// Sub-tag of the additional data template.
	tagReference = "05"

	pixGUI = "br.gov.bcb.pix"

	// noReference marks a static code with no transaction reference.
	noReference = "***"
)

// Encode returns the complete static BR Code payload for a PIX payment to the
// given key, ending with the 4-hex-digit CRC. The result is deterministic:
// identical inputs always produce a byte-identical payload.
func Encode(key, merchantName, merchantCity string, amount float64) string {
	account := tlv(tagGUI, pixGUI) + tlv(tagPixKey, key)

	payload := tlv(tagPayloadFormat, "01") +
		tlv(tagInitiation, "11") + // static, reusable
		tlv(tagMerchantAccount, account) +
		tlv(tagCategoryCode, "0000") +
		tlv(tagCurrency, "986") + // BRL
		tlv(tagAmount, fmt.Sprintf("%.2f", amount)) +
		tlv(tagCountry, "BR") +
		tlv(tagMerchantName, merchantName) +
		tlv(tagMerchantCity, merchantCity) +
		tlv(tagAdditionalData, tlv(tagReference, noReference)) +
		"6304" // CRC tag and length; the value is appended below

	return payload + fmt.Sprintf("%04X", Checksum(payload))
}

// tlv renders one Tag-Length-Value element: two-digit tag, two-digit
// zero-padded length, then the value itself. The length is the byte count of
// the value, as BR Code emitters measure it; callers keep values within the
// single-byte ASCII subset and the per-field EMV limits (under 100 bytes), so
// byte and character counts agree.
func tlv(tag, value string) string {
	return fmt.Sprintf("%s%02d%s", tag, len(value), value)
}

// Checksum computes CRC-16/CCITT-FALSE (init 0xFFFF, polynomial 0x1021) over s.
func Checksum(s string) uint16 {
	crc := uint16(0xFFFF)
	for i := 0; i < len(s); i++ {
		crc ^= uint16(s[i]) << 8
		for bit := 0; bit < 8; bit++ {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
