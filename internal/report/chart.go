package report

import (
	"fmt"
	"math"
	"strings"

	"github.com/Phainsworth/tradegauge-site/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// SVG Chart Generator — Pure Go, Zero Dependencies
// ════════════════════════════════════════════════════════════════════

// ChartConfig holds rendering parameters for SVG charts.
type ChartConfig struct {
	Width        int    // SVG width in pixels (default: 800)
	Height       int    // SVG height in pixels (default: 400)
	MarginTop    int    // top margin (default: 40)
	MarginRight  int    // right margin (default: 60)
	MarginBottom int    // bottom margin (default: 50)
	MarginLeft   int    // left margin (default: 70)
	BgColor      string // background color (default: "#ffffff")
	TextColor    string // axis label color (default: "#333333")
	FontSize     int    // axis label font size (default: 11)
	Title        string // chart title
}

// DefaultChartConfig returns sensible defaults for chart rendering.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Width:        800,
		Height:       400,
		MarginTop:    40,
		MarginRight:  60,
		MarginBottom: 50,
		MarginLeft:   70,
		BgColor:      "#ffffff",
		TextColor:    "#333333",
		FontSize:     11,
	}
}

// plotArea returns the usable drawing area dimensions.
func (c ChartConfig) plotArea() (x, y, w, h int) {
	return c.MarginLeft, c.MarginTop,
		c.Width - c.MarginLeft - c.MarginRight,
		c.Height - c.MarginTop - c.MarginBottom
}

// ════════════════════════════════════════════════════════════════════
// Expiry Payoff Diagram
// ════════════════════════════════════════════════════════════════════

// PayoffChart generates an SVG chart of contract P&L at expiry across
// underlying prices. Scenarios without a P&L (no price paid) plot the
// raw contract value instead.
func PayoffChart(scenarios []models.ExpiryScenario, contractName string, cfg ChartConfig) string {
	if len(scenarios) == 0 {
		return emptySVG(cfg, "No scenario data")
	}

	if cfg.Width == 0 {
		cfg = DefaultChartConfig()
	}
	if cfg.Title == "" {
		cfg.Title = fmt.Sprintf("At Expiry: %s", contractName)
	}

	prices := make([]float64, len(scenarios))
	values := make([]float64, len(scenarios))
	for i, s := range scenarios {
		prices[i] = s.Underlying
		if s.PnL != nil {
			values[i] = *s.PnL
		} else {
			values[i] = s.Value
		}
	}

	px, py, pw, ph := cfg.plotArea()

	minV, maxV := values[0], values[0]
	for _, v := range values {
		if v < minV {
			minV = v
		}
		if v > maxV {
			maxV = v
		}
	}
	vRange := maxV - minV
	if vRange < 0.001 {
		vRange = 1
	}
	minV -= vRange * 0.1
	maxV += vRange * 0.1
	vRange = maxV - minV

	minPrice, maxPrice := prices[0], prices[len(prices)-1]
	pRange := maxPrice - minPrice
	if pRange < 0.001 {
		pRange = 1
	}

	var sb strings.Builder
	sb.WriteString(svgHeader(cfg))
	sb.WriteString(fmt.Sprintf(`<rect x="0" y="0" width="%d" height="%d" fill="%s"/>`,
		cfg.Width, cfg.Height, cfg.BgColor))
	sb.WriteString(fmt.Sprintf(`<text x="%d" y="20" font-size="14" font-weight="bold" fill="%s" text-anchor="middle">%s</text>`,
		cfg.Width/2, cfg.TextColor, escapeXML(cfg.Title)))

	// Zero line
	if minV < 0 && maxV > 0 {
		zeroY := float64(py+ph) - (-minV/vRange)*float64(ph)
		sb.WriteString(fmt.Sprintf(`<line x1="%d" y1="%.1f" x2="%d" y2="%.1f" stroke="#999" stroke-width="1" stroke-dasharray="4,4"/>`,
			px, zeroY, px+pw, zeroY))
		sb.WriteString(fmt.Sprintf(`<text x="%d" y="%.1f" font-size="%d" fill="#999" text-anchor="end">0</text>`,
			px-5, zeroY+4, cfg.FontSize))
	}

	// Payoff line
	var pathParts []string
	for i := range scenarios {
		cx := float64(px) + ((prices[i]-minPrice)/pRange)*float64(pw)
		cy := float64(py+ph) - ((values[i]-minV)/vRange)*float64(ph)
		cmd := "L"
		if i == 0 {
			cmd = "M"
		}
		pathParts = append(pathParts, fmt.Sprintf("%s%.1f,%.1f", cmd, cx, cy))
	}
	sb.WriteString(fmt.Sprintf(`<path d="%s" fill="none" stroke="#2196f3" stroke-width="2.5"/>`,
		strings.Join(pathParts, " ")))

	// Y-axis labels
	for i := 0; i <= 5; i++ {
		val := minV + vRange*float64(i)/5
		y := py + ph - int(float64(ph)*float64(i)/5)
		sb.WriteString(fmt.Sprintf(`<text x="%d" y="%d" font-size="%d" fill="%s" text-anchor="end">%.0f</text>`,
			px-5, y+4, cfg.FontSize, cfg.TextColor, val))
	}

	// X-axis labels
	for i := 0; i <= 5; i++ {
		val := minPrice + pRange*float64(i)/5
		x := px + int(float64(pw)*float64(i)/5)
		sb.WriteString(fmt.Sprintf(`<text x="%d" y="%d" font-size="%d" fill="%s" text-anchor="middle">%.0f</text>`,
			x, py+ph+18, cfg.FontSize, cfg.TextColor, val))
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// ════════════════════════════════════════════════════════════════════
// Risk Gauge
// ════════════════════════════════════════════════════════════════════

// RiskGauge generates an SVG semicircular gauge for the 0-10 risk
// score. Low scores render green, high scores red.
func RiskGauge(score float64, bucket string, width int) string {
	if width == 0 {
		width = 200
	}
	height := width/2 + 30

	cx := float64(width) / 2
	cy := float64(width)/2 - 10
	radius := float64(width)/2 - 20

	if score < 0 {
		score = 0
	}
	if score > 10 {
		score = 10
	}

	// Angle: 180° (left) to 0° (right), score maps 0→180°, 10→0°
	angle := math.Pi - (score/10)*math.Pi
	needleX := cx + radius*0.85*math.Cos(angle)
	needleY := cy - radius*0.85*math.Sin(angle)

	// Color zones follow the risk buckets
	var color string
	switch {
	case score <= 3:
		color = "#4caf50" // green
	case score <= 6:
		color = "#ffc107" // yellow
	case score <= 8:
		color = "#ff9800" // orange
	default:
		color = "#ef5350" // red
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`, width, height, width, height))
	sb.WriteString(fmt.Sprintf(`<rect width="%d" height="%d" fill="white"/>`, width, height))

	// Background arc
	sb.WriteString(fmt.Sprintf(`<path d="M%.1f,%.1f A%.1f,%.1f 0 0,1 %.1f,%.1f" fill="none" stroke="#e0e0e0" stroke-width="12" stroke-linecap="round"/>`,
		cx-radius, cy, radius, radius, cx+radius, cy))

	// Colored arc (proportional to score)
	endAngle := math.Pi - (score/10)*math.Pi
	endX := cx + radius*math.Cos(endAngle)
	endY := cy - radius*math.Sin(endAngle)
	largeArc := 0
	if score > 5 {
		largeArc = 1
	}
	sb.WriteString(fmt.Sprintf(`<path d="M%.1f,%.1f A%.1f,%.1f 0 %d,1 %.1f,%.1f" fill="none" stroke="%s" stroke-width="12" stroke-linecap="round"/>`,
		cx-radius, cy, radius, radius, largeArc, endX, endY, color))

	// Needle
	sb.WriteString(fmt.Sprintf(`<line x1="%.1f" y1="%.1f" x2="%.1f" y2="%.1f" stroke="#333" stroke-width="2"/>`,
		cx, cy, needleX, needleY))
	sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="5" fill="#333"/>`, cx, cy))

	// Score text
	sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%.1f" font-size="22" font-weight="bold" fill="%s" text-anchor="middle">%.1f</text>`,
		cx, cy+25, color, score))

	// Bucket label
	sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%d" font-size="11" fill="#666" text-anchor="middle">%s</text>`,
		cx, height-5, escapeXML(bucket)))

	sb.WriteString("</svg>")
	return sb.String()
}

// ════════════════════════════════════════════════════════════════════
// SVG Helpers
// ════════════════════════════════════════════════════════════════════

func svgHeader(cfg ChartConfig) string {
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="sans-serif">`,
		cfg.Width, cfg.Height, cfg.Width, cfg.Height)
}

func emptySVG(cfg ChartConfig, msg string) string {
	if cfg.Width == 0 {
		cfg.Width = 400
	}
	if cfg.Height == 0 {
		cfg.Height = 200
	}
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d"><rect width="%d" height="%d" fill="#f5f5f5"/><text x="%d" y="%d" text-anchor="middle" fill="#999" font-size="14">%s</text></svg>`,
		cfg.Width, cfg.Height, cfg.Width, cfg.Height, cfg.Width/2, cfg.Height/2, escapeXML(msg))
}

func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, `"`, "&quot;")
	return s
}
