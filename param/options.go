package param

const (
	DefaultAssay       = "counts"
	DefaultBatchKey    = "batch.id"
	DefaultCellTypeKey = "celltype"
)

// Options configures parameter construction. The zero value is usable:
// empty strings fall back to the defaults above.
type Options struct {
	// Assay selects which single-cell (and container-borne bulk) assay to
	// read.
	Assay string

	// BatchKey names the sample metadata column holding batch ids, in both
	// bulk and single-cell metadata.
	BatchKey string

	// CellTypeKey names the single-cell metadata column holding cell-type
	// labels.
	CellTypeKey string

	// UseOverlap asks the decomposer to learn its bulk correction from bulk
	// samples whose batch also appears in the single-cell data.
	UseOverlap bool

	// ReturnInfo switches the invoker to the detailed result shape.
	ReturnInfo bool

	// Markers optionally restricts decomposition to these features.
	Markers []string
}

func DefaultOptions() Options {
	return Options{
		Assay:       DefaultAssay,
		BatchKey:    DefaultBatchKey,
		CellTypeKey: DefaultCellTypeKey,
	}
}

func (o Options) withDefaults() Options {
	if o.Assay == "" {
		o.Assay = DefaultAssay
	}
	if o.BatchKey == "" {
		o.BatchKey = DefaultBatchKey
	}
	if o.CellTypeKey == "" {
		o.CellTypeKey = DefaultCellTypeKey
	}
	o.Markers = append([]string(nil), o.Markers...)

	return o
}
