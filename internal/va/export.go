package va

// PrimeObject is one DRM object backing an exported surface.
type PrimeObject struct {
	FD       int32
	Size     uint32
	Modifier uint64
}

// PrimeLayer describes the plane layout of one exported layer.
type PrimeLayer struct {
	DRMFormat   uint32
	NumPlanes   uint32
	ObjectIndex [4]uint32
	Offset      [4]uint32
	Pitch       [4]uint32
}

// drmPrimeSurfaceDescriptor mirrors VADRMPRIMESurfaceDescriptor.
type drmPrimeSurfaceDescriptor struct {
	Fourcc     uint32
	Width      uint32
	Height     uint32
	NumObjects uint32
	Objects    [4]PrimeObject
	NumLayers  uint32
	Layers     [4]PrimeLayer
}

// Exported is the caller-facing view of an exported surface. The object
// file descriptors are owned by the caller, who must close them once the
// per-plane descriptors have been duplicated.
type Exported struct {
	Fourcc  uint32
	Width   uint32
	Height  uint32
	Objects []PrimeObject
	Layer   PrimeLayer
}

// ExportSurface exports the surface as a dmabuf in read-only,
// composed-layers mode: a single layer whose planes index into the
// returned objects.
func (d *Display) ExportSurface(id SurfaceID) (*Exported, error) {
	var desc drmPrimeSurfaceDescriptor
	err := check(vaExportSurfaceHandle(d.dpy, id, memTypeDRMPrime2,
		exportReadOnly|exportComposedLayers, &desc))
	if err != nil {
		return nil, err
	}
	return &Exported{
		Fourcc:  desc.Fourcc,
		Width:   desc.Width,
		Height:  desc.Height,
		Objects: desc.Objects[:desc.NumObjects],
		Layer:   desc.Layers[0],
	}, nil
}
