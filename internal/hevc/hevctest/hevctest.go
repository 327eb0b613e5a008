// Package hevctest assembles synthetic bitstreams covering the supported
// HEVC subset for parser and decoder tests.
package hevctest

import (
	"github.com/deskstream/receiver/internal/hevc"
)

// Writer assembles NAL unit payloads MSB first.
type Writer struct {
	data []byte
	nbit int
}

func (w *Writer) U(v uint64, n int) {
	for i := n - 1; i >= 0; i-- {
		if w.nbit&7 == 0 {
			w.data = append(w.data, 0)
		}
		if v>>uint(i)&1 != 0 {
			w.data[len(w.data)-1] |= 1 << uint(7-w.nbit&7)
		}
		w.nbit++
	}
}

func (w *Writer) UE(v uint64) {
	n := 0
	for x := v + 1; x > 1; x >>= 1 {
		n++
	}
	w.U(0, n)
	w.U(v+1, n+1)
}

func (w *Writer) SE(v int64) {
	if v <= 0 {
		w.UE(uint64(-2 * v))
	} else {
		w.UE(uint64(2*v - 1))
	}
}

func (w *Writer) Align() {
	for w.nbit&7 != 0 {
		w.U(0, 1)
	}
}

func (w *Writer) Bytes() []byte {
	return w.data
}

// Header emits the 2-byte NAL unit header for a base-layer, temporal-id-0
// unit of the given type.
func (w *Writer) Header(nalType uint8) {
	w.U(0, 1)               // forbidden_zero_bit
	w.U(uint64(nalType), 6) // nal_unit_type
	w.U(0, 6)               // nuh_layer_id
	w.U(1, 3)               // nuh_temporal_id_plus1
}

func (w *Writer) profileTierLevel() {
	w.U(0, 2)      // general_profile_space
	w.U(0, 1)      // general_tier_flag
	w.U(1, 5)      // general_profile_idc: Main
	w.U(3<<29, 32) // general_profile_compatibility_flag
	w.U(1, 1)      // general_progressive_source_flag
	w.U(0, 1)      // general_interlaced_source_flag
	w.U(1, 1)      // general_non_packed_constraint_flag
	w.U(1, 1)      // general_frame_only_constraint_flag
	w.U(0, 7)      // general_reserved_zero_7bits
	w.U(0, 1)      // general_one_picture_only_constraint_flag
	w.U(0, 35)     // general_reserved_zero_35bits
	w.U(0, 1)      // general_reserved_zero_bit
	w.U(120, 8)    // general_level_idc: 4.0
}

func (w *Writer) shortTermRPS(idx uint64) {
	if idx != 0 {
		w.U(0, 1) // inter_ref_pic_set_prediction_flag
	}
	w.UE(1)   // num_negative_pics
	w.UE(0)   // num_positive_pics
	w.UE(0)   // delta_poc_s0_minus1
	w.U(1, 1) // used_by_curr_pic_s0_flag
}

// SPS emits a Main-profile level-4.0 SPS for the given geometry with the
// fixed VUI block the receiver requires.
func SPS(width, height uint64) []byte {
	var w Writer
	w.Header(hevc.NALSPS)
	w.U(0, 4) // sps_video_parameter_set_id
	w.U(0, 3) // sps_max_sub_layers_minus1
	w.U(1, 1) // sps_temporal_id_nesting_flag
	w.profileTierLevel()
	w.UE(0) // sps_seq_parameter_set_id
	w.UE(1) // chroma_format_idc
	w.UE(width)
	w.UE(height)
	w.U(0, 1) // conformance_window_flag
	w.UE(0)   // bit_depth_luma_minus8
	w.UE(0)   // bit_depth_chroma_minus8
	w.UE(4)   // log2_max_pic_order_cnt_lsb_minus4
	w.U(0, 1) // sps_sub_layer_ordering_info_present_flag
	w.UE(3)   // sps_max_dec_pic_buffering_minus1
	w.UE(0)   // sps_max_num_reorder_pics
	w.UE(0)   // sps_max_latency_increase_plus1
	w.UE(0)   // log2_min_luma_coding_block_size_minus3
	w.UE(2)   // log2_diff_max_min_luma_coding_block_size
	w.UE(0)   // log2_min_transform_block_size_minus2
	w.UE(3)   // log2_diff_max_min_transform_block_size
	w.UE(0)   // max_transform_hierarchy_depth_inter
	w.UE(0)   // max_transform_hierarchy_depth_intra
	w.U(0, 1) // scaling_list_enabled_flag
	w.U(1, 1) // amp_enabled_flag
	w.U(1, 1) // sample_adaptive_offset_enabled_flag
	w.U(0, 1) // pcm_enabled_flag
	w.UE(1)   // num_short_term_ref_pic_sets
	w.shortTermRPS(0)
	w.U(0, 1) // long_term_ref_pics_present_flag
	w.U(1, 1) // sps_temporal_mvp_enabled_flag
	w.U(1, 1) // strong_intra_smoothing_enabled_flag
	w.U(1, 1) // vui_parameters_present_flag
	w.U(0, 1) // aspect_ratio_info_present_flag
	w.U(0, 1) // overscan_info_present_flag
	w.U(1, 1) // video_signal_type_present_flag
	w.U(5, 3) // video_format
	w.U(0, 1) // video_full_range_flag
	w.U(1, 1) // colour_description_present_flag
	w.U(2, 8) // colour_primaries
	w.U(2, 8) // transfer_characteristics
	w.U(6, 8) // matrix_coeffs
	w.U(0, 1) // chroma_loc_info_present_flag
	w.U(0, 1) // neutral_chroma_indication_flag
	w.U(0, 1) // field_seq_flag
	w.U(0, 1) // frame_field_info_present_flag
	w.U(0, 1) // default_display_window_flag
	w.U(0, 1) // vui_timing_info_present_flag
	w.U(1, 1) // bitstream_restriction_flag
	w.U(0, 1) // tiles_fixed_structure_flag
	w.U(1, 1) // motion_vectors_over_pic_boundaries_flag
	w.U(1, 1) // restricted_ref_pic_lists_flag
	w.UE(0)   // min_spatial_segmentation_idc
	w.UE(0)   // max_bytes_per_pic_denom
	w.UE(0)   // max_bits_per_min_cu_denom
	w.UE(15)  // log2_max_mv_length_horizontal
	w.UE(15)  // log2_max_mv_length_vertical
	w.U(0, 1) // sps_extension_present_flag
	w.Align()
	return w.Bytes()
}

// PPS emits the matching picture parameter set.
func PPS() []byte {
	var w Writer
	w.Header(hevc.NALPPS)
	w.UE(0)   // pps_pic_parameter_set_id
	w.UE(0)   // pps_seq_parameter_set_id
	w.U(0, 1) // dependent_slice_segments_enabled_flag
	w.U(0, 1) // output_flag_present_flag
	w.U(0, 3) // num_extra_slice_header_bits
	w.U(1, 1) // sign_data_hiding_enabled_flag
	w.U(0, 1) // cabac_init_present_flag
	w.UE(0)   // num_ref_idx_l0_default_active_minus1
	w.UE(0)   // num_ref_idx_l1_default_active_minus1
	w.SE(0)   // init_qp_minus26
	w.U(0, 1) // constrained_intra_pred_flag
	w.U(0, 1) // transform_skip_enabled_flag
	w.U(0, 1) // cu_qp_delta_enabled_flag
	w.SE(0)   // pps_cb_qp_offset
	w.SE(0)   // pps_cr_qp_offset
	w.U(0, 1) // pps_slice_chroma_qp_offsets_present_flag
	w.U(0, 1) // weighted_pred_flag
	w.U(0, 1) // weighted_bipred_flag
	w.U(0, 1) // transquant_bypass_enabled_flag
	w.U(0, 1) // tiles_enabled_flag
	w.U(0, 1) // entropy_coding_sync_enabled_flag
	w.U(1, 1) // pps_loop_filter_across_slices_enabled_flag
	w.U(1, 1) // deblocking_filter_control_present_flag
	w.U(0, 1) // deblocking_filter_override_enabled_flag
	w.U(0, 1) // pps_disable_deblocking_filter_flag
	w.SE(0)   // pps_beta_offset_div2
	w.SE(0)   // pps_tc_offset_div2
	w.U(0, 1) // pps_scaling_list_data_present_flag
	w.U(0, 1) // lists_modification_present_flag
	w.UE(0)   // log2_parallel_merge_level_minus2
	w.U(0, 1) // slice_segment_header_extension_present_flag
	w.U(0, 1) // pps_extension_present_flag
	w.Align()
	return w.Bytes()
}

// IDRSlice emits an IDR_W_RADL slice segment header followed by payload.
func IDRSlice(payload []byte) []byte {
	var w Writer
	w.Header(hevc.NALIDRWRadl)
	w.U(1, 1) // first_slice_segment_in_pic_flag
	w.U(0, 1) // no_output_of_prior_pics_flag
	w.UE(0)   // slice_pic_parameter_set_id
	w.UE(hevc.SliceI)
	w.U(1, 1) // slice_sao_luma_flag
	w.U(1, 1) // slice_sao_chroma_flag
	w.SE(0)   // slice_qp_delta
	w.U(1, 1) // slice_loop_filter_across_slices_enabled_flag
	w.Align()
	return append(w.Bytes(), payload...)
}

// PSlice emits a TRAIL_R P-slice header: POC LSB, an explicit short-term
// RPS when explicitRPS is set (the SPS index path otherwise), and no
// reference-count override.
func PSlice(pocLsb uint64, explicitRPS bool, payload []byte) []byte {
	var w Writer
	w.Header(hevc.NALTrailR)
	w.U(1, 1) // first_slice_segment_in_pic_flag
	w.UE(0)   // slice_pic_parameter_set_id
	w.UE(hevc.SliceP)
	w.U(pocLsb, 8) // slice_pic_order_cnt_lsb
	if explicitRPS {
		w.U(0, 1) // short_term_ref_pic_set_sps_flag
		w.shortTermRPS(1)
	} else {
		w.U(1, 1)
	}
	w.U(1, 1) // slice_temporal_mvp_enabled_flag
	w.U(1, 1) // slice_sao_luma_flag
	w.U(1, 1) // slice_sao_chroma_flag
	w.U(0, 1) // num_ref_idx_active_override_flag
	w.UE(2)   // five_minus_max_num_merge_cand
	w.SE(0)   // slice_qp_delta
	w.U(1, 1) // slice_loop_filter_across_slices_enabled_flag
	w.Align()
	return append(w.Bytes(), payload...)
}

// AnnexB joins NAL units with 4-byte start codes.
func AnnexB(nalus ...[]byte) []byte {
	var out []byte
	for _, nalu := range nalus {
		out = append(out, 0, 0, 0, 1)
		out = append(out, nalu...)
	}
	return out
}
