// Package hevc parses the restricted HEVC bitstream subset produced by the
// capture server: Main profile, 4:2:0, P/I slices only, one short-term
// reference. It consumes NAL units through the bits reader and maintains
// the parameter state the acceleration backend is populated from.
package hevc

import (
	"math/bits"

	"github.com/pkg/errors"

	breader "github.com/deskstream/receiver/internal/bits"
)

// ErrUnsupported marks a NAL unit that violates the supported subset. The
// session converts it into a stream-level failure.
var ErrUnsupported = errors.New("hevc: unsupported stream")

// NAL unit type codes, ITU-T H.265 Table 7-1.
const (
	NALTrailR    = 1
	NALBlaWLP    = 16
	NALIDRWRadl  = 19
	NALIDRNLP    = 20
	NALCraNut    = 21
	NALIrapVCL23 = 23
	NALVPS       = 32
	NALSPS       = 33
	NALPPS       = 34
	NALAUD       = 35
)

// Slice type codes, Table 7-7.
const (
	SliceP = 1
	SliceI = 2
)

// IsIRAP reports whether the NAL type is a random access point (BLA, IDR
// or CRA).
func IsIRAP(nalType uint8) bool {
	return nalType >= NALBlaWLP && nalType <= NALCraNut
}

// IsIDR reports whether the NAL type is an instantaneous decoder refresh.
func IsIDR(nalType uint8) bool {
	return nalType == NALIDRWRadl || nalType == NALIDRNLP
}

// IsIntra reports whether the NAL type guarantees an intra-only picture.
func IsIntra(nalType uint8) bool {
	return nalType >= NALBlaWLP && nalType <= NALIrapVCL23
}

func ceilLog2(x uint32) int {
	return bits.Len32(x - 1)
}

// fail aborts the containing NAL-unit parse with an unsupported-stream
// error naming the offending syntax element.
func fail(name string) {
	breader.Fail(errors.Wrap(ErrUnsupported, name))
}

// expect reads an n-bit field and fails the NAL unit unless it holds the
// fixed value the supported subset requires.
func expect(r *breader.Reader, n int, want uint64, name string) {
	if r.U(n) != want {
		fail(name)
	}
}

// expectUE is expect for exponential-Golomb coded fields.
func expectUE(r *breader.Reader, want uint64, name string) {
	if r.UE() != want {
		fail(name)
	}
}

// ParseNALUHeader consumes the 2-byte NAL unit header and returns the NAL
// unit type. Layered and sub-layered streams are outside the subset.
func ParseNALUHeader(r *breader.Reader) uint8 {
	expect(r, 1, 0, "forbidden_zero_bit")
	nalType := uint8(r.U(6))
	expect(r, 6, 0, "nuh_layer_id")
	expect(r, 3, 1, "nuh_temporal_id_plus1")
	return nalType
}

// parseShortTermRPS walks one short-term reference picture set. The subset
// pins every set to a single negative reference at delta 0 that is used by
// the current picture.
func parseShortTermRPS(r *breader.Reader, stRpsIdx uint32) {
	if stRpsIdx != 0 {
		expect(r, 1, 0, "inter_ref_pic_set_prediction_flag")
	}
	expectUE(r, 1, "num_negative_pics")
	expectUE(r, 0, "num_positive_pics")
	expectUE(r, 0, "delta_poc_s0_minus1")
	expect(r, 1, 1, "used_by_curr_pic_s0_flag")
}
