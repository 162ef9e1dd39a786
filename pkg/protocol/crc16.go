package protocol

// CRC16CCITT computes the CRC-16/CCITT checksum carried in the trailer of
// every state and command message.
func CRC16CCITT(buf []byte) uint16 {
	var crc uint16 = 0xffff
	for _, b := range buf {
		data := uint16(b)
		data ^= crc & 0xff
		data ^= (data & 0x0f) << 4
		crc = (crc >> 8) ^ (data << 8) ^ (data << 3) ^ (data >> 4)
	}
	return crc
}
