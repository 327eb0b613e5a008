package hevc

// CropRect is the display crop in luma samples: left, top, width, height.
type CropRect struct {
	X, Y, W, H uint16
}

// PicParams is the sequence/picture-level parameter state. One instance
// per session, rewritten by each SPS/PPS. Field names follow the bitstream
// syntax so the mapping into the accelerator's picture parameter buffer
// stays mechanical.
type PicParams struct {
	PicWidthInLumaSamples  uint16
	PicHeightInLumaSamples uint16

	ChromaFormatIDC             uint8
	BitDepthLumaMinus8          uint8
	BitDepthChromaMinus8        uint8
	Log2MaxPicOrderCntLsbMinus4 uint8
	SpsMaxDecPicBufferingMinus1 uint8

	Log2MinLumaCodingBlockSizeMinus3  uint8
	Log2DiffMaxMinLumaCodingBlockSize uint8
	Log2MinTransformBlockSizeMinus2   uint8
	Log2DiffMaxMinTransformBlockSize  uint8
	MaxTransformHierarchyDepthInter   uint8
	MaxTransformHierarchyDepthIntra   uint8

	// Accelerator-contract constants derived at SPS time, not read from
	// the bitstream. The PCM block size sentinel is deliberate.
	PCMSampleBitDepthLumaMinus1         uint8
	PCMSampleBitDepthChromaMinus1       uint8
	Log2MinPCMLumaCodingBlockSizeMinus3 uint8

	ScalingListEnabled          bool
	AmpEnabled                  bool
	SampleAdaptiveOffsetEnabled bool
	PCMEnabled                  bool
	SignDataHidingEnabled       bool
	ConstrainedIntraPred        bool
	TransformSkipEnabled        bool
	CuQpDeltaEnabled            bool
	WeightedPred                bool
	WeightedBipred              bool
	TransquantBypassEnabled     bool
	TilesEnabled                bool
	EntropyCodingSyncEnabled    bool
	// Always set for the accelerator even though tiles are off.
	LoopFilterAcrossTilesEnabled     bool
	PPSLoopFilterAcrossSlicesEnabled bool
	StrongIntraSmoothingEnabled      bool

	DependentSliceSegmentsEnabled      bool
	OutputFlagPresent                  bool
	NumExtraSliceHeaderBits            uint8
	CabacInitPresent                   bool
	SpsTemporalMvpEnabled              bool
	SliceChromaQpOffsetsPresent        bool
	DeblockingFilterOverrideEnabled    bool
	PPSDisableDeblockingFilter         bool
	ListsModificationPresent           bool
	SliceSegmentHeaderExtensionPresent bool

	NumRefIdxL0DefaultActiveMinus1 uint8
	NumRefIdxL1DefaultActiveMinus1 uint8
	InitQpMinus26                  int8
	PPSCbQpOffset                  int8
	PPSCrQpOffset                  int8
	PPSBetaOffsetDiv2              int8
	PPSTcOffsetDiv2                int8
	Log2ParallelMergeLevelMinus2   uint8
	NumShortTermRefPicSets         uint8

	// Bit length of the slice header's explicit short-term RPS, measured
	// net of emulation prevention bytes.
	StRpsBits uint32
}

// SliceParams is the per-slice parameter state, rewritten by every slice
// segment header.
type SliceParams struct {
	SliceType uint8

	SAOLuma                       bool
	SAOChroma                     bool
	TemporalMvpEnabled            bool
	CabacInit                     bool
	LoopFilterAcrossSlicesEnabled bool
	CollocatedFromL0              bool

	CollocatedRefIdx        uint8
	NumRefIdxL0ActiveMinus1 uint8
	NumRefIdxL1ActiveMinus1 uint8

	FiveMinusMaxNumMergeCand uint8
	SliceQpDelta             int8

	// Byte offset of the slice payload within the NAL unit after EPB
	// elision, and the number of EPBs the accelerator must re-account.
	DataByteOffset uint32
	EPBCount       uint16
}

// Parser accumulates parameter state across NAL units for one session.
type Parser struct {
	Pic   PicParams
	Slice SliceParams
	Crop  CropRect

	spsSeen bool
	ppsSeen bool
}

// HeaderComplete reports whether both an SPS and a PPS have been parsed,
// i.e. the decoder can be initialised.
func (p *Parser) HeaderComplete() bool {
	return p.spsSeen && p.ppsSeen
}
