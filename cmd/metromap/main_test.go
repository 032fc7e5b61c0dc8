package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-metro/internal/layer"
)

func TestPrintVisibility(t *testing.T) {
	var buf bytes.Buffer
	printVisibility(&buf, layer.DefaultCatalog(), 12)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 7)
	assert.Contains(t, lines[0], "VISIBLE@12")

	rows := map[string]string{}
	for _, l := range lines[1:] {
		f := strings.Fields(l)
		rows[f[0]] = f[len(f)-1]
	}
	assert.Equal(t, "true", rows["metro_station"])
	assert.Equal(t, "true", rows["districts_layer"])
	assert.Equal(t, "false", rows["bus_tram_stops"])
	assert.Equal(t, "false", rows["StreetsPedestrian"])
}

func TestOrLocal(t *testing.T) {
	assert.Equal(t, "local", orLocal(""))
	assert.Equal(t, "http://x/api", orLocal("http://x/api"))
}
