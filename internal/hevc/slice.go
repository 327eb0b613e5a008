package hevc

import (
	breader "github.com/deskstream/receiver/internal/bits"
)

// ParseSliceHeader consumes a slice segment header for the given NAL unit
// type and leaves the reader byte-aligned at the first slice payload byte.
// 7.3.6.1, restricted to single-slice pictures with SAO on both planes.
func (p *Parser) ParseSliceHeader(r *breader.Reader, nalType uint8) {
	p.Slice = SliceParams{}

	expect(r, 1, 1, "first_slice_segment_in_pic_flag")
	if nalType >= NALBlaWLP && nalType <= NALIrapVCL23 {
		expect(r, 1, 0, "no_output_of_prior_pics_flag")
	}
	expectUE(r, 0, "slice_pic_parameter_set_id")
	p.Slice.SliceType = uint8(r.UE())
	if p.Slice.SliceType != SliceP && p.Slice.SliceType != SliceI {
		fail("slice_type")
	}

	if !IsIDR(nalType) {
		pocLsbLen := int(p.Pic.Log2MaxPicOrderCntLsbMinus4) + 4
		_ = r.U(pocLsbLen) // slice_pic_order_cnt_lsb

		if r.U(1) == 0 { // short_term_ref_pic_set_sps_flag
			// Explicit set in the slice header: measure its bit length
			// net of emulation prevention bytes for the accelerator.
			offset := r.BitOffset()
			epbCount := r.EPBCount()
			parseShortTermRPS(r, uint32(p.Pic.NumShortTermRefPicSets))
			p.Pic.StRpsBits = uint32(r.BitOffset() - offset -
				(r.EPBCount()-epbCount)<<3)
		} else if p.Pic.NumShortTermRefPicSets > 1 {
			_ = r.U(ceilLog2(uint32(p.Pic.NumShortTermRefPicSets)))
		}

		if p.Pic.SpsTemporalMvpEnabled {
			p.Slice.TemporalMvpEnabled = r.U(1) == 1
		}
	}

	p.Slice.SAOLuma = r.U(1) == 1
	if !p.Slice.SAOLuma {
		fail("slice_sao_luma_flag")
	}
	p.Slice.SAOChroma = r.U(1) == 1
	if !p.Slice.SAOChroma {
		fail("slice_sao_chroma_flag")
	}

	// Accelerator defaults. The reference counts seed from the PPS and
	// stay unless the P-slice override below rewrites them.
	p.Slice.CollocatedRefIdx = 0xff
	p.Slice.CollocatedFromL0 = true
	p.Slice.NumRefIdxL0ActiveMinus1 = p.Pic.NumRefIdxL0DefaultActiveMinus1
	p.Slice.NumRefIdxL1ActiveMinus1 = p.Pic.NumRefIdxL1DefaultActiveMinus1

	if p.Slice.SliceType == SliceP {
		if r.U(1) == 1 { // num_ref_idx_active_override_flag
			p.Slice.NumRefIdxL0ActiveMinus1 = uint8(r.UE())
		}
		if p.Pic.CabacInitPresent {
			p.Slice.CabacInit = r.U(1) == 1
		}
		if p.Slice.TemporalMvpEnabled {
			if (p.Slice.CollocatedFromL0 && p.Slice.NumRefIdxL0ActiveMinus1 > 0) ||
				(!p.Slice.CollocatedFromL0 && p.Slice.NumRefIdxL1ActiveMinus1 > 0) {
				p.Slice.CollocatedRefIdx = uint8(r.UE())
			}
		}
		p.Slice.FiveMinusMaxNumMergeCand = uint8(r.UE())
	}

	p.Slice.SliceQpDelta = int8(r.SE())
	if p.Pic.PPSLoopFilterAcrossSlicesEnabled &&
		(p.Slice.SAOLuma || p.Slice.SAOChroma) {
		p.Slice.LoopFilterAcrossSlicesEnabled = r.U(1) == 1
	}

	r.ByteAlign()
	p.Slice.DataByteOffset = uint32(r.BitOffset()>>3 - r.EPBCount())
	p.Slice.EPBCount = uint16(r.EPBCount())
}
