package formatter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/alexanderramin/clustertrack/internal/domain"
)

func TestRenderProgress(t *testing.T) {
	assert.Contains(t, RenderProgress(0.5, 10), " 50%")
	assert.Contains(t, RenderProgress(1.7, 10), "100%")
	assert.Contains(t, RenderProgress(-1, 10), "  0%")
}

func TestRenderCompactBar(t *testing.T) {
	tests := []struct {
		name  string
		pct   float64
		width int
		dim   bool
	}{
		{"0% normal", 0.0, 10, false},
		{"50% normal", 0.5, 10, false},
		{"100% normal", 1.0, 10, false},
		{"50% dimmed", 0.5, 10, true},
		{"over 100% clamps", 1.5, 10, false},
		{"negative clamps", -0.5, 10, false},
		{"tiny width clamps to 2", 0.5, 1, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := RenderCompactBar(tt.pct, tt.width, tt.dim)
			assert.NotEmpty(t, got)
			assert.NotContains(t, got, "[")
			assert.NotContains(t, got, "%")
		})
	}
}

func TestRenderCompactBarBlocks(t *testing.T) {
	assert.Contains(t, RenderCompactBar(0.0, 4, true), emptyBlock)
	assert.NotContains(t, RenderCompactBar(0.0, 4, true), filledBlock)
	assert.Contains(t, RenderCompactBar(1.0, 4, true), filledBlock)
}

func TestTargetProgress(t *testing.T) {
	got := TargetProgress(111*time.Minute, 10)
	assert.Contains(t, got, " 50%")
	assert.Contains(t, got, "1h51m")
	assert.Contains(t, got, "3h42m")

	got = TargetProgress(domain.TargetThreshold, 10)
	assert.Contains(t, got, "100%")
	assert.Contains(t, got, "✓")
}
