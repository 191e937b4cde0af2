package generator

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStage_CanAdvance(t *testing.T) {
	tests := []struct {
		name string
		from Stage
		to   Stage
		want bool
	}{
		{"one step forward", StageCreated, StagePreviewPending, true},
		{"next step", StagePreviewPending, StagePreviewDone, true},
		{"skip a step", StageCreated, StagePreviewDone, false},
		{"backwards", StageRefineDone, StagePreviewDone, false},
		{"to failed from start", StageCreated, StageFailed, true},
		{"to failed mid-flight", StageRefinePending, StageFailed, true},
		{"persisted is absorbing", StagePersisted, StageFailed, false},
		{"failed is absorbing", StageFailed, StageCreated, false},
		{"downloaded to persisted", StageDownloaded, StagePersisted, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanAdvance(tt.to))
		})
	}
}

func TestStage_Terminal(t *testing.T) {
	assert.True(t, StagePersisted.Terminal())
	assert.True(t, StageFailed.Terminal())
	assert.False(t, StageCreated.Terminal())
	assert.False(t, StageDownloaded.Terminal())
}

func TestStage_String(t *testing.T) {
	assert.Equal(t, "created", StageCreated.String())
	assert.Equal(t, "refine_pending", StageRefinePending.String())
	assert.Equal(t, "failed", StageFailed.String())
	assert.Equal(t, "unknown", Stage(42).String())
}

func TestLifecycle_Advance(t *testing.T) {
	lc := newLifecycle("d-1")
	assert.Equal(t, StageCreated, lc.current)

	assert.True(t, lc.advance(StagePreviewPending))
	assert.Equal(t, StagePreviewPending, lc.current)

	// Illegal jump leaves the stage unchanged.
	assert.False(t, lc.advance(StageDownloaded))
	assert.Equal(t, StagePreviewPending, lc.current)

	assert.True(t, lc.advance(StageFailed))
	assert.False(t, lc.advance(StagePreviewDone))
	assert.Equal(t, StageFailed, lc.current)
}
