package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alexanderramin/clustertrack/internal/domain"
)

func TestBuildStarBoard_Sections(t *testing.T) {
	totals := map[string]time.Duration{
		"z1r1p1": 5 * time.Hour,
		"z1r1p2": domain.TargetThreshold,
		"z1r1p3": time.Hour,
		"z1r1p4": 0,
		"z1r1p5": 4 * time.Hour,
	}
	starred := map[string]bool{"z1r1p5": true, "z1r1p3": true}

	b := BuildStarBoard(totals, func(h string) bool { return starred[h] })

	require.Len(t, b.NeedsStar, 2)
	assert.Equal(t, "z1r1p1", b.NeedsStar[0].Host)
	assert.Equal(t, "z1r1p2", b.NeedsStar[1].Host)
	require.Len(t, b.Collecting, 1)
	assert.Equal(t, "z1r1p3", b.Collecting[0].Host)
	assert.Equal(t, domain.TargetThreshold-time.Hour, b.Collecting[0].Remaining())
	require.Len(t, b.Starred, 1)
	assert.Equal(t, "z1r1p5", b.Starred[0].Host)
	assert.Len(t, b.Rows(), 4)
}

func TestBuildStarBoard_TieBreakByHost(t *testing.T) {
	totals := map[string]time.Duration{"z1r2p1": time.Hour, "z1r1p1": time.Hour}
	b := BuildStarBoard(totals, nil)
	require.Len(t, b.Collecting, 2)
	assert.Equal(t, "z1r1p1", b.Collecting[0].Host)
}

func TestBuildStarBoard_Empty(t *testing.T) {
	assert.True(t, BuildStarBoard(nil, nil).Empty())
}
