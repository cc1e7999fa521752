package cache

// MeasureKeyOpts identifies one measurement within a geometry scope.
type MeasureKeyOpts struct {
	NoteID      string  `json:"note"`
	SlotID      string  `json:"slot"`
	Part        string  `json:"part"`
	Body        float64 `json:"body"`
	Title       float64 `json:"title"`
	Span        int     `json:"span"`
	ContentHash string  `json:"content"`
	Relax       string  `json:"relax"`
}

// PlanKeyOpts identifies a solved page plan.
type PlanKeyOpts struct {
	Strategy   string `json:"strategy"`
	ConfigHash string `json:"config"`
	Measurer   string `json:"measurer"`
}

// Keyer builds cache keys.
type Keyer interface {
	// MeasureKey returns the key of a single measurement.
	MeasureKey(opts MeasureKeyOpts) string
	// PlanKey returns the key of a page plan for the given input hash.
	PlanKey(inputHash string, opts PlanKeyOpts) string
}

// DefaultKeyer hashes key options into fixed-length keys.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the default keyer.
func NewDefaultKeyer() Keyer {
	return DefaultKeyer{}
}

// MeasureKey generates a key for measurement caching.
func (DefaultKeyer) MeasureKey(opts MeasureKeyOpts) string {
	return hashKey("measure", opts)
}

// PlanKey generates a key for plan caching.
func (DefaultKeyer) PlanKey(inputHash string, opts PlanKeyOpts) string {
	return hashKey("plan", inputHash, opts)
}
