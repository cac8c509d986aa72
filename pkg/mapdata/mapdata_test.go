package mapdata

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `
zones:
  - name: Qiitun-Vietis
    type: TUNNEL_HIDEOUT_DEEP
    color: black
    resources:
      - {tier: 6, name: fiber}
      - {tier: 7, name: hide}
    markers: [chest, dungeon]
  - name: Casos-Ugumlos
    type: OPENPVP_BLACK_4
    color: black
portals:
  - {source: Qiitun-Vietis, target: Casos-Ugumlos, size: 7, timeLeft: 45}
`

func TestDecodeSnapshot(t *testing.T) {
	snap, err := DecodeSnapshot([]byte(sampleYAML))
	require.NoError(t, err)

	require.Len(t, snap.Zones, 2)
	require.Len(t, snap.Portals, 1)
	assert.Equal(t, ColorBlack, snap.Zones[0].Color)
	assert.Equal(t, Size7, snap.Portals[0].Size)
	assert.Equal(t, 45.0, snap.Portals[0].TimeLeft)
}

func TestDecodeSnapshotJSON(t *testing.T) {
	snap, err := DecodeSnapshot([]byte(`{"zones":[{"name":"A","type":"x","color":"red"}],"portals":[{"source":"A","target":"B","size":20,"timeLeft":12.5}]}`))
	require.NoError(t, err)
	assert.Equal(t, "A", snap.Zones[0].Name)
	assert.Equal(t, 12.5, snap.Portals[0].TimeLeft)
}

func TestDecodeSnapshotEmpty(t *testing.T) {
	_, err := DecodeSnapshot([]byte("  \n"))
	assert.ErrorIs(t, err, ErrEmptySnapshot)
}

func TestDecodeSnapshotMalformed(t *testing.T) {
	_, err := DecodeSnapshot([]byte("zones: [unterminated"))
	assert.Error(t, err)
}

func TestDecodeEndpoints(t *testing.T) {
	zones, err := DecodeZones(strings.NewReader(`[{"name":"A","type":"t","color":"road","markers":["m"]}]`))
	require.NoError(t, err)
	assert.Equal(t, ColorRoad, zones[0].Color)

	portals, err := DecodePortals(strings.NewReader(`[{"source":"A","target":"B","size":2,"timeLeft":3}]`))
	require.NoError(t, err)
	assert.Equal(t, Size2, portals[0].Size)

	_, err = DecodePortals(strings.NewReader(`{`))
	assert.Error(t, err)
}

func TestEncodeSnapshotRoundTrip(t *testing.T) {
	snap, err := DecodeSnapshot([]byte(sampleYAML))
	require.NoError(t, err)

	data, err := EncodeSnapshot(snap)
	require.NoError(t, err)

	again, err := DecodeSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, snap, again)
}

func TestZoneHelpers(t *testing.T) {
	snap, err := DecodeSnapshot([]byte(sampleYAML))
	require.NoError(t, err)

	z := snap.Zones[0]
	assert.True(t, z.IsTunnelHideout())
	assert.False(t, snap.Zones[1].IsTunnelHideout())
	assert.Equal(t, "T6 fiber, T7 hide", z.ResourceSummary())
	assert.Equal(t, "chest, dungeon", z.MarkerSummary())

	found, ok := snap.ZoneByName("Casos-Ugumlos")
	assert.True(t, ok)
	assert.Equal(t, "OPENPVP_BLACK_4", found.Type)

	_, ok = snap.ZoneByName("nowhere")
	assert.False(t, ok)
}

func TestSanitize(t *testing.T) {
	in := Snapshot{
		Zones: []Zone{
			{Name: "A", Color: ColorRed},
			{Name: ""},
			{Name: "B", Color: "purple"},
		},
		Portals: []Portal{
			{Source: "A", Target: "B", Size: Size7, TimeLeft: 10},
			{Source: "", Target: "B", Size: Size2, TimeLeft: 10},
			{Source: "A", Target: "B", Size: 13, TimeLeft: -1},
			{Source: "B", Target: "A", Size: 13, TimeLeft: 0},
		},
	}

	out, rejected := Sanitize(in)

	assert.Len(t, out.Zones, 2, "unknown colour is kept for the palette to handle")
	assert.Len(t, out.Portals, 2, "unknown size is kept for the palette to handle")
	require.Len(t, rejected, 3)
	assert.Equal(t, "zone", rejected[0].Kind)
	assert.Equal(t, 1, rejected[0].Index)
	assert.Contains(t, rejected[0].Reason, "Name is required")
	assert.Equal(t, "portal", rejected[1].Kind)
	assert.Contains(t, rejected[2].String(), "portal[2]")
	assert.Contains(t, rejected[2].Reason, "TimeLeft must be >= 0")

	assert.Len(t, in.Zones, 3, "input untouched")
}
