package hevc

import (
	breader "github.com/deskstream/receiver/internal/bits"
)

// parseProfileTierLevel pins the profile/tier/level block to Main profile,
// main tier, level 4.0, progressive frame-only source. 7.3.3.
func parseProfileTierLevel(r *breader.Reader) {
	expect(r, 2, 0, "general_profile_space")
	expect(r, 1, 0, "general_tier_flag")
	expect(r, 5, 1, "general_profile_idc")
	expect(r, 32, 3<<29, "general_profile_compatibility_flag")
	expect(r, 1, 1, "general_progressive_source_flag")
	expect(r, 1, 0, "general_interlaced_source_flag")
	expect(r, 1, 1, "general_non_packed_constraint_flag")
	expect(r, 1, 1, "general_frame_only_constraint_flag")
	expect(r, 7, 0, "general_reserved_zero_7bits")
	expect(r, 1, 0, "general_one_picture_only_constraint_flag")
	expect(r, 35, 0, "general_reserved_zero_35bits")
	expect(r, 1, 0, "general_reserved_zero_bit")
	expect(r, 8, 120, "general_level_idc")
}

// parseVUI walks the mandatory VUI block. The server always emits the
// same signal description; a default display window, when present,
// overrides the conformance crop. E.2.1.
func (p *Parser) parseVUI(r *breader.Reader) {
	expect(r, 1, 0, "aspect_ratio_info_present_flag")
	expect(r, 1, 0, "overscan_info_present_flag")
	expect(r, 1, 1, "video_signal_type_present_flag")

	// Table E.2: video_format 5 (unspecified), unknown colour description.
	expect(r, 3, 5, "video_format")
	expect(r, 1, 0, "video_full_range_flag")
	expect(r, 1, 1, "colour_description_present_flag")
	expect(r, 8, 2, "colour_primaries")
	expect(r, 8, 2, "transfer_characteristics")
	expect(r, 8, 6, "matrix_coeffs")

	expect(r, 1, 0, "chroma_loc_info_present_flag")
	expect(r, 1, 0, "neutral_chroma_indication_flag")
	expect(r, 1, 0, "field_seq_flag")
	expect(r, 1, 0, "frame_field_info_present_flag")

	if r.U(1) == 1 { // default_display_window_flag
		left := r.UE()
		right := r.UE()
		top := r.UE()
		bottom := r.UE()
		p.Crop = CropRect{
			X: uint16(left),
			Y: uint16(top),
			W: p.Pic.PicWidthInLumaSamples - uint16(right),
			H: p.Pic.PicHeightInLumaSamples - uint16(bottom),
		}
	}

	expect(r, 1, 0, "vui_timing_info_present_flag")

	if r.U(1) == 1 { // bitstream_restriction_flag
		expect(r, 1, 0, "tiles_fixed_structure_flag")
		expect(r, 1, 1, "motion_vectors_over_pic_boundaries_flag")
		expect(r, 1, 1, "restricted_ref_pic_lists_flag")
		expectUE(r, 0, "min_spatial_segmentation_idc")
		expectUE(r, 0, "max_bytes_per_pic_denom")
		expectUE(r, 0, "max_bits_per_min_cu_denom")
		expectUE(r, 15, "log2_max_mv_length_horizontal")
		expectUE(r, 15, "log2_max_mv_length_vertical")
	}
}

// ParseSPS consumes a sequence parameter set. 7.3.2.2.1, restricted to
// the supported subset; any deviation fails the NAL unit.
func (p *Parser) ParseSPS(r *breader.Reader) {
	expect(r, 4, 0, "sps_video_parameter_set_id")
	expect(r, 3, 0, "sps_max_sub_layers_minus1")
	expect(r, 1, 1, "sps_temporal_id_nesting_flag")
	parseProfileTierLevel(r)
	expectUE(r, 0, "sps_seq_parameter_set_id")

	p.Pic.ChromaFormatIDC = uint8(r.UE())
	if p.Pic.ChromaFormatIDC != 1 {
		fail("chroma_format_idc")
	}
	p.Pic.PicWidthInLumaSamples = uint16(r.UE())
	p.Pic.PicHeightInLumaSamples = uint16(r.UE())

	if r.U(1) == 1 { // conformance_window_flag
		left := r.UE()
		right := r.UE()
		top := r.UE()
		bottom := r.UE()
		p.Crop = CropRect{
			X: uint16(left),
			Y: uint16(top),
			W: p.Pic.PicWidthInLumaSamples - uint16(right),
			H: p.Pic.PicHeightInLumaSamples - uint16(bottom),
		}
	} else {
		p.Crop = CropRect{
			W: p.Pic.PicWidthInLumaSamples,
			H: p.Pic.PicHeightInLumaSamples,
		}
	}

	p.Pic.BitDepthLumaMinus8 = uint8(r.UE())
	p.Pic.BitDepthChromaMinus8 = uint8(r.UE())
	p.Pic.Log2MaxPicOrderCntLsbMinus4 = uint8(r.UE())
	expect(r, 1, 0, "sps_sub_layer_ordering_info_present_flag")

	p.Pic.SpsMaxDecPicBufferingMinus1 = uint8(r.UE())
	expectUE(r, 0, "sps_max_num_reorder_pics")
	expectUE(r, 0, "sps_max_latency_increase_plus1")

	p.Pic.Log2MinLumaCodingBlockSizeMinus3 = uint8(r.UE())
	p.Pic.Log2DiffMaxMinLumaCodingBlockSize = uint8(r.UE())
	p.Pic.Log2MinTransformBlockSizeMinus2 = uint8(r.UE())
	p.Pic.Log2DiffMaxMinTransformBlockSize = uint8(r.UE())
	p.Pic.MaxTransformHierarchyDepthInter = uint8(r.UE())
	p.Pic.MaxTransformHierarchyDepthIntra = uint8(r.UE())

	p.Pic.ScalingListEnabled = r.U(1) == 1
	if p.Pic.ScalingListEnabled {
		fail("scaling_list_enabled_flag")
	}
	p.Pic.AmpEnabled = r.U(1) == 1
	p.Pic.SampleAdaptiveOffsetEnabled = r.U(1) == 1
	if !p.Pic.SampleAdaptiveOffsetEnabled {
		fail("sample_adaptive_offset_enabled_flag")
	}
	p.Pic.PCMEnabled = r.U(1) == 1
	if p.Pic.PCMEnabled {
		fail("pcm_enabled_flag")
	}

	// Accelerator contract: PCM is off, yet the driver expects saturated
	// sample depths and a sentinel block size in the PCM fields.
	p.Pic.PCMSampleBitDepthLumaMinus1 =
		uint8((1 << (p.Pic.BitDepthLumaMinus8 + 8)) - 1)
	p.Pic.PCMSampleBitDepthChromaMinus1 =
		uint8((1 << (p.Pic.BitDepthChromaMinus8 + 8)) - 1)
	p.Pic.Log2MinPCMLumaCodingBlockSizeMinus3 = 253

	p.Pic.NumShortTermRefPicSets = uint8(r.UE())
	for i := uint32(0); i < uint32(p.Pic.NumShortTermRefPicSets); i++ {
		parseShortTermRPS(r, i)
	}
	expect(r, 1, 0, "long_term_ref_pics_present_flag")

	p.Pic.SpsTemporalMvpEnabled = r.U(1) == 1
	p.Pic.StrongIntraSmoothingEnabled = r.U(1) == 1
	expect(r, 1, 1, "vui_parameters_present_flag")

	p.parseVUI(r)
	expect(r, 1, 0, "sps_extension_present_flag")

	p.spsSeen = true
}
