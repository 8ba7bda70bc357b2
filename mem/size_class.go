package mem

// Small-object size classes, 8-byte aligned with coarser strides as sizes
// grow, after the shape of the runtime's roundupsize tables. Requests
// above the largest class are not size-classed.
var sizeClasses = [...]uint64{
	8, 16, 32, 48, 64, 80, 96, 112, 128,
	160, 192, 224, 256,
	320, 384, 448, 512,
	640, 768, 896, 1024,
	1280, 1536, 1792, 2048,
	2560, 3072, 3584, 4096,
	5120, 6144, 7168, 8192,
}

const maxSmallSize = 8192

func sizeToClass(size uint64) int {
	if size > maxSmallSize {
		return -1
	}
	for i, classSize := range sizeClasses {
		if size <= classSize {
			return i
		}
	}
	return -1
}

// RoundUpSize reports the backing size a size-classed allocator reserves
// for a request: the smallest class that fits, or the request rounded to
// 8 bytes once it is past the largest class.
func RoundUpSize(size uint64) uint64 {
	if c := sizeToClass(size); c >= 0 {
		return sizeClasses[c]
	}
	return alignUp(size, 8)
}
