package protocol

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSmallestThreeRoundTrip(t *testing.T) {
	cases := []Quaternion{
		{W: 1, X: 0, Y: 0, Z: 0},
		{W: 0, X: 1, Y: 0, Z: 0},
		{W: 0.7071, X: 0.7071, Y: 0, Z: 0},
		{W: 0.5, X: 0.5, Y: 0.5, Z: 0.5},
		{W: 0.1, X: 0.2, Y: 0.3, Z: math.Sqrt(1 - 0.01 - 0.04 - 0.09)},
	}
	for _, q := range cases {
		word := EncodeSmallestThree(q, true, false)
		decoded, rest, magDist := DecodeSmallestThree(word)

		require.True(t, rest)
		require.False(t, magDist)

		norm := math.Sqrt(decoded.W*decoded.W + decoded.X*decoded.X + decoded.Y*decoded.Y + decoded.Z*decoded.Z)
		require.InDelta(t, 1.0, norm, 1e-5)

		// Orientation may be encoded via the sign-normalized antipode;
		// compare via dot product magnitude instead of componentwise.
		dot := q.W*decoded.W + q.X*decoded.X + q.Y*decoded.Y + q.Z*decoded.Z
		require.InDelta(t, 1.0, math.Abs(dot), 1e-3)
	}
}

func TestSmallestThreeDegenerateBoundary(t *testing.T) {
	// quat = 0x4000_0000_0000_0000: axis=0 (bits 60-61 == 0), bit62=1
	// (restDetected), bit63=0 (magDistDetected=false); all three stored
	// 20-bit fields are 0, decoding to -1/sqrt2 each; the reconstructed
	// omitted component clamps to zero rather than producing NaN.
	q, rest, magDist := DecodeSmallestThree(0x4000000000000000)
	require.True(t, rest)
	require.False(t, magDist)
	require.InDelta(t, 0.0, q.W, 1e-9)
	require.InDelta(t, -1/math.Sqrt2, q.X, 1e-6)
	require.InDelta(t, -1/math.Sqrt2, q.Y, 1e-6)
	require.InDelta(t, -1/math.Sqrt2, q.Z, 1e-6)
}

func TestExtrapolateQuaternionsZeroGyroHoldsAnchor(t *testing.T) {
	anchor := Quaternion{W: 0.8, X: 0.2, Y: 0.3, Z: 0.1}.Normalize()
	gyros := make([]Vec3, fullPackedSamples-1)
	quats := ExtrapolateQuaternions(anchor, gyros, 0.005)
	require.Len(t, quats, fullPackedSamples)
	for _, q := range quats {
		require.InDelta(t, anchor.W, q.W, 1e-9)
		require.InDelta(t, anchor.X, q.X, 1e-9)
		require.InDelta(t, anchor.Y, q.Y, 1e-9)
		require.InDelta(t, anchor.Z, q.Z, 1e-9)
	}
}
