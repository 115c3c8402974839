package bot

// Tuning weights the placement rules and the orientation estimate.
type Tuning struct {
	// CoverRival rewards each covered rival cell.
	CoverRival float64
	// ExtendRegion rewards each own cell adjacent to the new carpet.
	ExtendRegion float64
	// CoverOwn penalizes burying an own cell.
	CoverOwn float64
	// EmptyCell rewards claiming untouched floor.
	EmptyCell float64
	// TributeRisk scales the expected tribute when picking a facing.
	TributeRisk float64
}

// DefaultTuning favours hurting rivals over hoarding floor.
var DefaultTuning = Tuning{
	CoverRival:   2.0,
	ExtendRegion: 1.0,
	CoverOwn:     -1.5,
	EmptyCell:    0.5,
	TributeRisk:  1.0,
}
