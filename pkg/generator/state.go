package generator

// Stage is a design's position in the generation lifecycle. Stages advance
// strictly in order; StageFailed is reachable from any non-terminal stage
// and is absorbing, as is StagePersisted.
type Stage int

const (
	StageCreated Stage = iota
	StagePreviewPending
	StagePreviewDone
	StageRefinePending
	StageRefineDone
	StageDownloaded
	StagePersisted
	StageFailed
)

var stageNames = map[Stage]string{
	StageCreated:        "created",
	StagePreviewPending: "preview_pending",
	StagePreviewDone:    "preview_done",
	StageRefinePending:  "refine_pending",
	StageRefineDone:     "refine_done",
	StageDownloaded:     "downloaded",
	StagePersisted:      "persisted",
	StageFailed:         "failed",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return "unknown"
}

// Terminal reports whether the stage is an end state.
func (s Stage) Terminal() bool {
	return s == StagePersisted || s == StageFailed
}

// CanAdvance reports whether the transition s -> next is legal: one step
// forward, or a jump to StageFailed from any non-terminal stage.
func (s Stage) CanAdvance(next Stage) bool {
	if s.Terminal() {
		return false
	}
	if next == StageFailed {
		return true
	}
	return next == s+1
}

// lifecycle tracks one design's stage. It is confined to the single worker
// goroutine driving that design, so it needs no locking.
type lifecycle struct {
	id      string
	current Stage
}

func newLifecycle(id string) *lifecycle {
	return &lifecycle{id: id, current: StageCreated}
}

// advance moves to next when the transition is legal and reports whether it
// did. An illegal transition is a programmer error; the stage is left
// unchanged.
func (l *lifecycle) advance(next Stage) bool {
	if !l.current.CanAdvance(next) {
		return false
	}
	l.current = next
	return true
}
