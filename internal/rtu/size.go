// internal/rtu/size.go
package rtu

// RequestSize returns the full ADU length of the request whose leading bytes
// are in head. known is false when the function code has no fixed layout;
// such frames are delimited by line silence instead.
// need > len(head) means more bytes are required before the size is final.
func RequestSize(head []byte) (need int, known bool) {
	if len(head) < 2 {
		return 2, true
	}

	switch head[1] {
	case 1, 2, 3, 4, 5, 6:
		// addr fc start(2) qty/value(2) crc(2)
		return 8, true

	case 15, 16:
		// addr fc start(2) qty(2) count(1) payload crc(2)
		if len(head) < 7 {
			return 7, true
		}
		return 9 + int(head[6]), true

	default:
		return 0, false
	}
}
