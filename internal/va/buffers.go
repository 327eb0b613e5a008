package va

import (
	"github.com/deskstream/receiver/internal/hevc"
)

// PictureHEVC mirrors VAPictureHEVC.
type PictureHEVC struct {
	PictureID   SurfaceID
	PicOrderCnt int32
	Flags       uint32
	_           [4]uint32
}

// Reference picture flags.
const (
	PictureRPSStCurrBefore uint32 = 0x00000010
)

// PictureParameterBufferHEVC mirrors VAPictureParameterBufferHEVC. Field
// order and widths match the C layout byte for byte; the three bitfield
// unions are carried as packed words.
type PictureParameterBufferHEVC struct {
	CurrPic         PictureHEVC
	ReferenceFrames [15]PictureHEVC

	PicWidthInLumaSamples  uint16
	PicHeightInLumaSamples uint16

	PicFields uint32

	SpsMaxDecPicBufferingMinus1          uint8
	BitDepthLumaMinus8                   uint8
	BitDepthChromaMinus8                 uint8
	PCMSampleBitDepthLumaMinus1          uint8
	PCMSampleBitDepthChromaMinus1        uint8
	Log2MinLumaCodingBlockSizeMinus3     uint8
	Log2DiffMaxMinLumaCodingBlockSize    uint8
	Log2MinTransformBlockSizeMinus2      uint8
	Log2DiffMaxMinTransformBlockSize     uint8
	Log2MinPCMLumaCodingBlockSizeMinus3  uint8
	Log2DiffMaxMinPCMLumaCodingBlockSize uint8
	MaxTransformHierarchyDepthIntra      uint8
	MaxTransformHierarchyDepthInter      uint8
	InitQpMinus26                        int8
	DiffCuQpDeltaDepth                   uint8
	PPSCbQpOffset                        int8
	PPSCrQpOffset                        int8
	Log2ParallelMergeLevelMinus2         uint8
	NumTileColumnsMinus1                 uint8
	NumTileRowsMinus1                    uint8
	ColumnWidthMinus1                    [19]uint16
	RowHeightMinus1                      [21]uint16

	SliceParsingFields uint32

	Log2MaxPicOrderCntLsbMinus4    uint8
	NumShortTermRefPicSets         uint8
	NumLongTermRefPicSps           uint8
	NumRefIdxL0DefaultActiveMinus1 uint8
	NumRefIdxL1DefaultActiveMinus1 uint8
	PPSBetaOffsetDiv2              int8
	PPSTcOffsetDiv2                int8
	NumExtraSliceHeaderBits        uint8
	StRpsBits                      uint32

	_ [8]uint32
}

// pic_fields bit positions.
const (
	picSeparateColourPlane    = 2
	picPCMEnabled             = 3
	picScalingListEnabled     = 4
	picTransformSkipEnabled   = 5
	picAmpEnabled             = 6
	picStrongIntraSmoothing   = 7
	picSignDataHiding         = 8
	picConstrainedIntraPred   = 9
	picCuQpDeltaEnabled       = 10
	picWeightedPred           = 11
	picWeightedBipred         = 12
	picTransquantBypass       = 13
	picTilesEnabled           = 14
	picEntropyCodingSync      = 15
	picLoopFilterAcrossSlices = 16
	picLoopFilterAcrossTiles  = 17
	picPCMLoopFilterDisabled  = 18
	picNoPicReordering        = 19
	picNoBiPred               = 20
)

// slice_parsing_fields bit positions. The three picture-class flags are
// ORed in by the session per NAL unit type.
const (
	spfListsModificationPresent    = 0
	spfLongTermRefPicsPresent      = 1
	spfSpsTemporalMvpEnabled       = 2
	spfCabacInitPresent            = 3
	spfOutputFlagPresent           = 4
	spfDependentSliceSegments      = 5
	spfSliceChromaQpOffsetsPresent = 6
	spfSampleAdaptiveOffsetEnabled = 7
	spfPPSDisableDeblockingFilter  = 8
	spfDeblockingFilterOverride    = 9
	spfSliceSegmentHeaderExt       = 10

	SliceParsingRapPic   uint32 = 1 << 11
	SliceParsingIdrPic   uint32 = 1 << 12
	SliceParsingIntraPic uint32 = 1 << 13
)

func bit(b bool, shift uint) uint32 {
	if b {
		return 1 << shift
	}
	return 0
}

// PackPictureParams populates the static part of the picture parameter
// buffer from the parsed state. CurrPic, the reference list and the
// per-picture parsing flags belong to the session.
func PackPictureParams(pic *hevc.PicParams) PictureParameterBufferHEVC {
	return PictureParameterBufferHEVC{
		PicWidthInLumaSamples:  pic.PicWidthInLumaSamples,
		PicHeightInLumaSamples: pic.PicHeightInLumaSamples,

		PicFields: uint32(pic.ChromaFormatIDC) |
			bit(pic.PCMEnabled, picPCMEnabled) |
			bit(pic.ScalingListEnabled, picScalingListEnabled) |
			bit(pic.TransformSkipEnabled, picTransformSkipEnabled) |
			bit(pic.AmpEnabled, picAmpEnabled) |
			bit(pic.StrongIntraSmoothingEnabled, picStrongIntraSmoothing) |
			bit(pic.SignDataHidingEnabled, picSignDataHiding) |
			bit(pic.ConstrainedIntraPred, picConstrainedIntraPred) |
			bit(pic.CuQpDeltaEnabled, picCuQpDeltaEnabled) |
			bit(pic.WeightedPred, picWeightedPred) |
			bit(pic.WeightedBipred, picWeightedBipred) |
			bit(pic.TransquantBypassEnabled, picTransquantBypass) |
			bit(pic.TilesEnabled, picTilesEnabled) |
			bit(pic.EntropyCodingSyncEnabled, picEntropyCodingSync) |
			bit(pic.PPSLoopFilterAcrossSlicesEnabled, picLoopFilterAcrossSlices) |
			bit(pic.LoopFilterAcrossTilesEnabled, picLoopFilterAcrossTiles) |
			bit(true, picNoPicReordering) |
			bit(true, picNoBiPred),

		SpsMaxDecPicBufferingMinus1:         pic.SpsMaxDecPicBufferingMinus1,
		BitDepthLumaMinus8:                  pic.BitDepthLumaMinus8,
		BitDepthChromaMinus8:                pic.BitDepthChromaMinus8,
		PCMSampleBitDepthLumaMinus1:         pic.PCMSampleBitDepthLumaMinus1,
		PCMSampleBitDepthChromaMinus1:       pic.PCMSampleBitDepthChromaMinus1,
		Log2MinLumaCodingBlockSizeMinus3:    pic.Log2MinLumaCodingBlockSizeMinus3,
		Log2DiffMaxMinLumaCodingBlockSize:   pic.Log2DiffMaxMinLumaCodingBlockSize,
		Log2MinTransformBlockSizeMinus2:     pic.Log2MinTransformBlockSizeMinus2,
		Log2DiffMaxMinTransformBlockSize:    pic.Log2DiffMaxMinTransformBlockSize,
		Log2MinPCMLumaCodingBlockSizeMinus3: pic.Log2MinPCMLumaCodingBlockSizeMinus3,
		MaxTransformHierarchyDepthIntra:     pic.MaxTransformHierarchyDepthIntra,
		MaxTransformHierarchyDepthInter:     pic.MaxTransformHierarchyDepthInter,
		InitQpMinus26:                       pic.InitQpMinus26,
		PPSCbQpOffset:                       pic.PPSCbQpOffset,
		PPSCrQpOffset:                       pic.PPSCrQpOffset,
		Log2ParallelMergeLevelMinus2:        pic.Log2ParallelMergeLevelMinus2,

		SliceParsingFields: bit(pic.ListsModificationPresent, spfListsModificationPresent) |
			bit(pic.SpsTemporalMvpEnabled, spfSpsTemporalMvpEnabled) |
			bit(pic.CabacInitPresent, spfCabacInitPresent) |
			bit(pic.OutputFlagPresent, spfOutputFlagPresent) |
			bit(pic.DependentSliceSegmentsEnabled, spfDependentSliceSegments) |
			bit(pic.SliceChromaQpOffsetsPresent, spfSliceChromaQpOffsetsPresent) |
			bit(pic.SampleAdaptiveOffsetEnabled, spfSampleAdaptiveOffsetEnabled) |
			bit(pic.PPSDisableDeblockingFilter, spfPPSDisableDeblockingFilter) |
			bit(pic.DeblockingFilterOverrideEnabled, spfDeblockingFilterOverride) |
			bit(pic.SliceSegmentHeaderExtensionPresent, spfSliceSegmentHeaderExt),

		Log2MaxPicOrderCntLsbMinus4:    pic.Log2MaxPicOrderCntLsbMinus4,
		NumShortTermRefPicSets:         pic.NumShortTermRefPicSets,
		NumRefIdxL0DefaultActiveMinus1: pic.NumRefIdxL0DefaultActiveMinus1,
		NumRefIdxL1DefaultActiveMinus1: pic.NumRefIdxL1DefaultActiveMinus1,
		PPSBetaOffsetDiv2:              pic.PPSBetaOffsetDiv2,
		PPSTcOffsetDiv2:                pic.PPSTcOffsetDiv2,
		NumExtraSliceHeaderBits:        pic.NumExtraSliceHeaderBits,
		StRpsBits:                      pic.StRpsBits,
	}
}

// SliceParameterBufferHEVC mirrors VASliceParameterBufferHEVC.
type SliceParameterBufferHEVC struct {
	SliceDataSize       uint32
	SliceDataOffset     uint32
	SliceDataFlag       uint32
	SliceDataByteOffset uint32
	SliceSegmentAddress uint32

	RefPicList [2][15]uint8

	LongSliceFlags uint32

	CollocatedRefIdx        uint8
	NumRefIdxL0ActiveMinus1 uint8
	NumRefIdxL1ActiveMinus1 uint8
	SliceQpDelta            int8
	SliceCbQpOffset         int8
	SliceCrQpOffset         int8
	SliceBetaOffsetDiv2     int8
	SliceTcOffsetDiv2       int8

	FiveMinusMaxNumMergeCand uint8

	NumEntryPointOffsets      uint16
	EntryOffsetToSubsetArray  uint16
	SliceDataNumEmuPrevnBytes uint8

	_ [2]uint32
}

// LongSliceFlags bit positions.
const (
	lsfLastSliceOfPic              = 0
	lsfSliceType                   = 2 // 2 bits
	lsfSliceSAOLuma                = 6
	lsfSliceSAOChroma              = 7
	lsfCabacInit                   = 9
	lsfSliceTemporalMvpEnabled     = 10
	lsfCollocatedFromL0            = 12
	lsfSliceLoopFilterAcrossSlices = 13
)

// PackSliceParams populates the slice parameter buffer for a single-slice
// picture whose raw NAL unit spans dataSize bytes. The reference lists
// start invalidated; the session installs the previous surface at
// RefPicList[0][0] for P pictures.
func PackSliceParams(s *hevc.SliceParams, dataSize int) SliceParameterBufferHEVC {
	spb := SliceParameterBufferHEVC{
		SliceDataSize:       uint32(dataSize),
		SliceDataByteOffset: s.DataByteOffset,

		LongSliceFlags: bit(true, lsfLastSliceOfPic) |
			uint32(s.SliceType)<<lsfSliceType |
			bit(s.SAOLuma, lsfSliceSAOLuma) |
			bit(s.SAOChroma, lsfSliceSAOChroma) |
			bit(s.CabacInit, lsfCabacInit) |
			bit(s.TemporalMvpEnabled, lsfSliceTemporalMvpEnabled) |
			bit(s.CollocatedFromL0, lsfCollocatedFromL0) |
			bit(s.LoopFilterAcrossSlicesEnabled, lsfSliceLoopFilterAcrossSlices),

		CollocatedRefIdx:          s.CollocatedRefIdx,
		NumRefIdxL0ActiveMinus1:   s.NumRefIdxL0ActiveMinus1,
		NumRefIdxL1ActiveMinus1:   s.NumRefIdxL1ActiveMinus1,
		SliceQpDelta:              s.SliceQpDelta,
		FiveMinusMaxNumMergeCand:  s.FiveMinusMaxNumMergeCand,
		SliceDataNumEmuPrevnBytes: uint8(s.EPBCount),
	}
	for i := range spb.RefPicList {
		for j := range spb.RefPicList[i] {
			spb.RefPicList[i][j] = 0xff
		}
	}
	return spb
}
