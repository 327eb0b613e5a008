package va

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"

	"github.com/deskstream/receiver/internal/hevc"
)

// The parameter buffers cross the ABI boundary verbatim, so their layout
// must match the C headers byte for byte.
func TestBufferLayouts(t *testing.T) {
	assert.EqualValues(t, 28, unsafe.Sizeof(PictureHEVC{}))
	assert.EqualValues(t, 604, unsafe.Sizeof(PictureParameterBufferHEVC{}))
	assert.EqualValues(t, 80, unsafe.Sizeof(SliceParameterBufferHEVC{}))
	assert.EqualValues(t, 312, unsafe.Sizeof(drmPrimeSurfaceDescriptor{}))
	assert.EqualValues(t, 24, unsafe.Sizeof(surfaceAttrib{}))

	var ppb PictureParameterBufferHEVC
	assert.EqualValues(t, 448, unsafe.Offsetof(ppb.PicWidthInLumaSamples))
	assert.EqualValues(t, 452, unsafe.Offsetof(ppb.PicFields))
	assert.EqualValues(t, 556, unsafe.Offsetof(ppb.SliceParsingFields))
	assert.EqualValues(t, 568, unsafe.Offsetof(ppb.StRpsBits))

	var spb SliceParameterBufferHEVC
	assert.EqualValues(t, 20, unsafe.Offsetof(spb.RefPicList))
	assert.EqualValues(t, 52, unsafe.Offsetof(spb.LongSliceFlags))
	assert.EqualValues(t, 70, unsafe.Offsetof(spb.SliceDataNumEmuPrevnBytes))

	var desc drmPrimeSurfaceDescriptor
	assert.EqualValues(t, 16, unsafe.Offsetof(desc.Objects))
	assert.EqualValues(t, 84, unsafe.Offsetof(desc.Layers))
}

func TestPackPictureParams(t *testing.T) {
	pic := hevc.PicParams{
		PicWidthInLumaSamples:        640,
		PicHeightInLumaSamples:       480,
		ChromaFormatIDC:              1,
		AmpEnabled:                   true,
		SampleAdaptiveOffsetEnabled:  true,
		SignDataHidingEnabled:        true,
		LoopFilterAcrossTilesEnabled: true,
		SpsTemporalMvpEnabled:        true,
		Log2MaxPicOrderCntLsbMinus4:  4,
		NumShortTermRefPicSets:       1,
	}
	ppb := PackPictureParams(&pic)

	assert.EqualValues(t, 640, ppb.PicWidthInLumaSamples)
	// chroma_format_idc occupies the low two bits.
	assert.EqualValues(t, 1, ppb.PicFields&0x3)
	// NoPicReorderingFlag and NoBiPredFlag are always on.
	assert.NotZero(t, ppb.PicFields&(1<<picNoPicReordering))
	assert.NotZero(t, ppb.PicFields&(1<<picNoBiPred))
	assert.NotZero(t, ppb.PicFields&(1<<picAmpEnabled))
	assert.NotZero(t, ppb.PicFields&(1<<picSignDataHiding))
	assert.NotZero(t, ppb.PicFields&(1<<picLoopFilterAcrossTiles))
	assert.Zero(t, ppb.PicFields&(1<<picTilesEnabled))

	assert.NotZero(t, ppb.SliceParsingFields&(1<<spfSampleAdaptiveOffsetEnabled))
	assert.NotZero(t, ppb.SliceParsingFields&(1<<spfSpsTemporalMvpEnabled))
	assert.Zero(t, ppb.SliceParsingFields&SliceParsingIdrPic)
}

func TestPackSliceParams(t *testing.T) {
	s := hevc.SliceParams{
		SliceType:                hevc.SliceP,
		SAOLuma:                  true,
		SAOChroma:                true,
		TemporalMvpEnabled:       true,
		CollocatedFromL0:         true,
		CollocatedRefIdx:         0xff,
		FiveMinusMaxNumMergeCand: 2,
		SliceQpDelta:             -3,
		DataByteOffset:           7,
		EPBCount:                 2,
	}
	spb := PackSliceParams(&s, 1234)

	assert.EqualValues(t, 1234, spb.SliceDataSize)
	assert.EqualValues(t, 0, spb.SliceDataOffset)
	assert.EqualValues(t, 7, spb.SliceDataByteOffset)
	assert.EqualValues(t, 2, spb.SliceDataNumEmuPrevnBytes)
	assert.NotZero(t, spb.LongSliceFlags&(1<<lsfLastSliceOfPic))
	assert.EqualValues(t, hevc.SliceP, spb.LongSliceFlags>>lsfSliceType&0x3)
	assert.NotZero(t, spb.LongSliceFlags&(1<<lsfCollocatedFromL0))
	assert.EqualValues(t, -3, spb.SliceQpDelta)

	for i := range spb.RefPicList {
		for j := range spb.RefPicList[i] {
			assert.EqualValues(t, 0xff, spb.RefPicList[i][j])
		}
	}
}
