package domain

import "time"

// MinFinalStrokeBytes is the minimum committed stroke length a doodle needs
// before finalization marks it complete. Shorter drawings stay invisible.
const MinFinalStrokeBytes = 7

// Phase tags the doodle lifecycle state instead of relying on which optional
// fields happen to be populated.
type Phase int

const (
	// PhaseAccumulating means staging buffers are live and finalization has
	// not succeeded yet.
	PhaseAccumulating Phase = iota
	// PhaseFinalized means content is committed and only ratings may change.
	PhaseFinalized
)

// Visibility controls how a finalized doodle appears in galleries.
type Visibility struct {
	Public    bool
	Anonymous bool
}

// DefaultVisibility is applied when finalization does not override it.
func DefaultVisibility() Visibility {
	return Visibility{Public: true, Anonymous: false}
}

// Doodle is a single drawing record. While accumulating, the staging buffers
// grow; finalization commits them and clears staging for good.
type Doodle struct {
	ID        string
	ArtistID  *string
	Public    bool
	Anonymous bool

	StagingPixels  []byte
	StagingStrokes []byte
	FinalStrokes   []byte
	ImageBytes     []byte

	Rating     int
	RatedCount int
	Complete   bool

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Phase derives the lifecycle tag from the completion flag.
func (d Doodle) Phase() Phase {
	if d.Complete {
		return PhaseFinalized
	}
	return PhaseAccumulating
}
