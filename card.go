package blog

import (
	"image"
	"image/color"
	"image/png"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	cardWidth  = 1200
	cardHeight = 630
	titleScale = 4
	bodyScale  = 2
	cardMargin = 80
)

var (
	cardBackground = color.RGBA{R: 0x0f, G: 0x17, B: 0x2a, A: 0xff}
	cardAccent     = color.RGBA{R: 0x38, G: 0xbd, B: 0xf8, A: 0xff}
	cardTitleColor = color.RGBA{R: 0xf8, G: 0xfa, B: 0xfc, A: 0xff}
	cardTextColor  = color.RGBA{R: 0x94, G: 0xa3, B: 0xb8, A: 0xff}
)

// handleSocialCard renders a share image on demand from title/excerpt query
// parameters. Output is a 1200x630 PNG.
func (a *App) handleSocialCard(c echo.Context) error {
	title := strings.TrimSpace(c.QueryParam("title"))
	excerpt := strings.TrimSpace(c.QueryParam("excerpt"))
	if title == "" {
		title = a.Config.Name
	}

	img := renderCard(title, excerpt, a.Config.Name)

	c.Response().Header().Set(echo.HeaderContentType, "image/png")
	c.Response().WriteHeader(http.StatusOK)
	return png.Encode(c.Response(), img)
}

func renderCard(title, excerpt, siteName string) *image.RGBA {
	card := image.NewRGBA(image.Rect(0, 0, cardWidth, cardHeight))
	draw.Draw(card, card.Bounds(), image.NewUniform(cardBackground), image.Point{}, draw.Src)
	draw.Draw(card, image.Rect(0, cardHeight-12, cardWidth, cardHeight), image.NewUniform(cardAccent), image.Point{}, draw.Src)

	y := 180
	for _, line := range wrapText(title, 24) {
		drawScaledText(card, line, cardMargin, y, titleScale, cardTitleColor)
		y += 13*titleScale + 16
	}
	y += 24
	for i, line := range wrapText(excerpt, 56) {
		if i == 3 {
			break
		}
		drawScaledText(card, line, cardMargin, y, bodyScale, cardTextColor)
		y += 13*bodyScale + 10
	}
	drawScaledText(card, siteName, cardMargin, cardHeight-70, bodyScale, cardAccent)
	return card
}

// drawScaledText renders line with the bitmap base font into a small buffer
// and scales it onto dst. NearestNeighbor keeps the pixel font crisp.
func drawScaledText(dst *image.RGBA, line string, x, y, scale int, col color.Color) {
	if line == "" {
		return
	}
	face := basicfont.Face7x13
	w := font.MeasureString(face, line).Ceil()
	h := face.Metrics().Height.Ceil()
	if w == 0 {
		return
	}
	buf := image.NewRGBA(image.Rect(0, 0, w, h))
	d := font.Drawer{
		Dst:  buf,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(0, face.Metrics().Ascent.Ceil()),
	}
	d.DrawString(line)

	target := image.Rect(x, y, x+w*scale, y+h*scale)
	draw.NearestNeighbor.Scale(dst, target, buf, buf.Bounds(), draw.Over, nil)
}

// wrapText greedily wraps s into lines of at most width characters.
func wrapText(s string, width int) []string {
	words := strings.Fields(s)
	if len(words) == 0 {
		return nil
	}
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) > width {
			lines = append(lines, line)
			line = w
			continue
		}
		line += " " + w
	}
	return append(lines, line)
}
