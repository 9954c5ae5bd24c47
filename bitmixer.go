package transducer

// Golden ratio bit mixer.
const phiC64 = uint64(0x9e3779b97f4a7c15)

// mix32 The 32-bit finalization step of MurmurHash3.
func mix32(v int) uint64 {
	k := uint32(v)
	k = (k ^ (k >> 16)) * 0x85ebca6b
	k = (k ^ (k >> 13)) * 0xc2b2ae35
	return uint64(k ^ (k >> 16))
}

// mix64 The 64-bit finalization step of MurmurHash3.
func mix64(v int64) uint64 {
	k := uint64(v)
	k = (k ^ (k >> 33)) * 0xff51afd7ed558ccd
	k = (k ^ (k >> 33)) * 0xc4ceb9fe1a85ec53
	return k ^ (k >> 33)
}

// combineHash folds value into an accumulated hash.
func combineHash(h, value uint64) uint64 {
	return (h ^ value) * phiC64
}
