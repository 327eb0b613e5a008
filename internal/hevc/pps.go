package hevc

import (
	breader "github.com/deskstream/receiver/internal/bits"
)

// ParsePPS consumes a picture parameter set. 7.3.2.3.1, restricted to
// the supported subset: no dependent-slice output, tiles, entropy sync,
// weighted prediction, per-slice chroma QP offsets or scaling lists.
func (p *Parser) ParsePPS(r *breader.Reader) {
	expectUE(r, 0, "pps_pic_parameter_set_id")
	expectUE(r, 0, "pps_seq_parameter_set_id")

	p.Pic.DependentSliceSegmentsEnabled = r.U(1) == 1
	p.Pic.OutputFlagPresent = r.U(1) == 1
	if p.Pic.OutputFlagPresent {
		fail("output_flag_present_flag")
	}
	p.Pic.NumExtraSliceHeaderBits = uint8(r.U(3))
	if p.Pic.NumExtraSliceHeaderBits != 0 {
		fail("num_extra_slice_header_bits")
	}

	p.Pic.SignDataHidingEnabled = r.U(1) == 1
	p.Pic.CabacInitPresent = r.U(1) == 1
	p.Pic.NumRefIdxL0DefaultActiveMinus1 = uint8(r.UE())
	p.Pic.NumRefIdxL1DefaultActiveMinus1 = uint8(r.UE())
	p.Pic.InitQpMinus26 = int8(r.SE())
	p.Pic.ConstrainedIntraPred = r.U(1) == 1
	p.Pic.TransformSkipEnabled = r.U(1) == 1
	p.Pic.CuQpDeltaEnabled = r.U(1) == 1
	if p.Pic.CuQpDeltaEnabled {
		fail("cu_qp_delta_enabled_flag")
	}

	p.Pic.PPSCbQpOffset = int8(r.SE())
	p.Pic.PPSCrQpOffset = int8(r.SE())
	p.Pic.SliceChromaQpOffsetsPresent = r.U(1) == 1
	if p.Pic.SliceChromaQpOffsetsPresent {
		fail("pps_slice_chroma_qp_offsets_present_flag")
	}

	p.Pic.WeightedPred = r.U(1) == 1
	if p.Pic.WeightedPred {
		fail("weighted_pred_flag")
	}
	p.Pic.WeightedBipred = r.U(1) == 1
	if p.Pic.WeightedBipred {
		fail("weighted_bipred_flag")
	}

	p.Pic.TransquantBypassEnabled = r.U(1) == 1
	p.Pic.TilesEnabled = r.U(1) == 1
	if p.Pic.TilesEnabled {
		fail("tiles_enabled_flag")
	}

	// Accelerator contract: set even with tiles off.
	p.Pic.LoopFilterAcrossTilesEnabled = true

	p.Pic.EntropyCodingSyncEnabled = r.U(1) == 1
	if p.Pic.EntropyCodingSyncEnabled {
		fail("entropy_coding_sync_enabled_flag")
	}

	p.Pic.PPSLoopFilterAcrossSlicesEnabled = r.U(1) == 1
	if r.U(1) == 1 { // deblocking_filter_control_present_flag
		p.Pic.DeblockingFilterOverrideEnabled = r.U(1) == 1
		if p.Pic.DeblockingFilterOverrideEnabled {
			fail("deblocking_filter_override_enabled_flag")
		}
		p.Pic.PPSDisableDeblockingFilter = r.U(1) == 1
		if p.Pic.PPSDisableDeblockingFilter {
			fail("pps_disable_deblocking_filter_flag")
		}
		p.Pic.PPSBetaOffsetDiv2 = int8(r.SE())
		p.Pic.PPSTcOffsetDiv2 = int8(r.SE())
	}

	expect(r, 1, 0, "pps_scaling_list_data_present_flag")
	p.Pic.ListsModificationPresent = r.U(1) == 1
	if p.Pic.ListsModificationPresent {
		fail("lists_modification_present_flag")
	}
	p.Pic.Log2ParallelMergeLevelMinus2 = uint8(r.UE())
	p.Pic.SliceSegmentHeaderExtensionPresent = r.U(1) == 1
	if p.Pic.SliceSegmentHeaderExtensionPresent {
		fail("slice_segment_header_extension_present_flag")
	}
	expect(r, 1, 0, "pps_extension_present_flag")

	p.ppsSeen = true
}
