package commands

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := newRootCmd(&out)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestNow_JSON(t *testing.T) {
	out, err := run(t, "now", "--date", "2025-01-15", "--lang", "en", "--json")
	require.NoError(t, err)

	var info struct {
		Region     string `json:"region"`
		Season     string `json:"season"`
		SeasonName string `json:"season_name"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, "guanacaste", info.Region)
	assert.Equal(t, "dry", info.Season)
	assert.Equal(t, "Dry Season", info.SeasonName)
}

func TestNow_InvalidDate(t *testing.T) {
	_, err := run(t, "now", "--date", "15/01/2025")
	assert.Error(t, err)
}

func TestCalendar(t *testing.T) {
	out, err := run(t, "calendar", "--region", "central-valley", "--json")
	require.NoError(t, err)

	var calendar struct {
		Region string `json:"region"`
		Months []struct {
			Month  int    `json:"month"`
			Season string `json:"season"`
		} `json:"months"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &calendar))
	assert.Equal(t, "central-valley", calendar.Region)
	require.Len(t, calendar.Months, 12)
	assert.Equal(t, "dry", calendar.Months[0].Season)
	assert.Equal(t, "rainy", calendar.Months[5].Season)
}

func TestPreview(t *testing.T) {
	out, err := run(t, "preview", "6", "--lang", "es")
	require.NoError(t, err)
	assert.Contains(t, out, "Temporada Lluviosa")

	_, err = run(t, "preview", "13")
	assert.Error(t, err)

	_, err = run(t, "preview", "june")
	assert.Error(t, err)
}

func TestRegions_MarksDefault(t *testing.T) {
	out, err := run(t, "regions")
	require.NoError(t, err)
	assert.Contains(t, out, "* guanacaste")
	assert.Contains(t, out, "  central-valley")
}

func TestWatering_Interval(t *testing.T) {
	out, err := run(t, "watering", "--date", "2025-06-15", "--dry", "7", "--rainy", "14", "--json")
	require.NoError(t, err)

	var result struct {
		Region       string `json:"region"`
		Season       string `json:"season"`
		IntervalDays int    `json:"interval_days"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &result))
	assert.Equal(t, "guanacaste", result.Region)
	assert.Equal(t, "rainy", result.Season)
	assert.Equal(t, 14, result.IntervalDays)
}

func TestWatering_WindowOnly(t *testing.T) {
	out, err := run(t, "watering", "--date", "2025-06-15")
	require.NoError(t, err)
	assert.Contains(t, out, "Sunrise:")
	assert.NotContains(t, out, "Interval:")
}
