package hierarchy

import (
	"math"
	"strconv"
	"strings"

	"github.com/danielolaszy/starburst/pkg/models"
)

const (
	// RootColor fills the centre of the chart.
	RootColor = "#1E293B"
	// FallbackColor is used when neither status nor category is known.
	FallbackColor = "#64748B"

	darkText  = "#0F172A"
	lightText = "#F8FAFC"
)

var categoryColors = map[models.StatusCategory]string{
	models.StatusToDo:       "#4C6EF5",
	models.StatusInProgress: "#F59F00",
	models.StatusDone:       "#51CF66",
}

// statusNameColors override the category colour for specific workflow states.
var statusNameColors = map[string]string{
	"program backlog": "#8B5CF6",
	"implementing":    "#0EA5E9",
}

// StatusColor returns the fill colour for an issue.
func StatusColor(category models.StatusCategory, status string) string {
	if status != "" {
		if c, ok := statusNameColors[strings.ToLower(strings.TrimSpace(status))]; ok {
			return c
		}
	}
	if c, ok := categoryColors[category]; ok {
		return c
	}
	return FallbackColor
}

// LabelColor returns a text colour readable on top of StatusColor.
func LabelColor(category models.StatusCategory, status string) string {
	return ContrastingTextColor(StatusColor(category, status))
}

// ContrastingTextColor picks dark or light text for a #RRGGBB background
// using its relative luminance.
func ContrastingTextColor(hex string) string {
	h := strings.TrimPrefix(hex, "#")
	if len(h) != 6 {
		return darkText
	}

	var channels [3]float64
	for i := range channels {
		v, err := strconv.ParseUint(h[i*2:i*2+2], 16, 8)
		if err != nil {
			return darkText
		}
		channels[i] = linear(float64(v) / 255)
	}

	luminance := 0.2126*channels[0] + 0.7152*channels[1] + 0.0722*channels[2]
	if luminance > 0.5 {
		return darkText
	}
	return lightText
}

func linear(v float64) float64 {
	if v <= 0.03928 {
		return v / 12.92
	}
	return math.Pow((v+0.055)/1.055, 2.4)
}
