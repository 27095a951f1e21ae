package h265

var defaultIntra8x8 = [64]uint8{
	16, 16, 16, 16, 16, 16, 16, 16, 16, 16, 17, 16, 17, 16, 17, 18,
	17, 18, 18, 17, 18, 21, 19, 20, 21, 20, 19, 21, 24, 22, 22, 24,
	24, 22, 22, 24, 25, 25, 27, 30, 27, 25, 25, 29, 31, 35, 35, 31,
	29, 36, 41, 44, 41, 36, 47, 54, 54, 47, 65, 70, 65, 88, 88, 115,
}

var defaultInter8x8 = [64]uint8{
	16, 16, 16, 16, 16, 16, 16, 16, 16, 16, 17, 17, 17, 17, 17, 18,
	18, 18, 18, 18, 18, 20, 20, 20, 20, 20, 20, 20, 24, 24, 24, 24,
	24, 24, 24, 24, 25, 25, 25, 25, 25, 25, 25, 28, 28, 28, 28, 28,
	28, 33, 33, 33, 33, 33, 41, 41, 41, 41, 54, 54, 54, 71, 71, 91,
}

// DefaultScalingLists returns the lists used when scaling is enabled but the
// stream codes none: flat 4x4, the default intra and inter tables above.
func DefaultScalingLists() *ScalingLists {
	var l ScalingLists
	for i := range l.List4x4 {
		for j := range l.List4x4[i] {
			l.List4x4[i][j] = 16
		}
	}
	for i := 0; i < 6; i++ {
		table := defaultIntra8x8
		if i >= 3 {
			table = defaultInter8x8
		}
		l.List8x8[i] = table
		l.List16x16[i] = table
		l.DC16x16[i] = 16
	}
	l.List32x32[0] = defaultIntra8x8
	l.List32x32[1] = defaultInter8x8
	l.DC32x32 = [2]uint8{16, 16}
	return &l
}
