package render

import (
	"fmt"
	"html"
	"strconv"
	"strings"

	"lightplan/internal/geometry"
	"lightplan/internal/lighting/glow"
	"lightplan/internal/lighting/shadow"
)

// SVG выгружает стены и полигоны освещения. Геометрия остаётся в мировых
// координатах, вписывание в кадр делает transform группы.
func SVG(state FrameState) string {
	w, h := state.size()
	scene := state.Scene
	t := Fit(scene.Walls, w, h)
	segs := shadow.Segments(scene.Walls)

	var sb strings.Builder
	fmt.Fprintf(&sb, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+"\n", w, h, w, h)
	sb.WriteString(`<rect width="100%" height="100%" fill="#1a1a2e"/>` + "\n")

	var defs, body strings.Builder
	for i, f := range scene.Fixtures {
		il := glow.Illuminate(f, segs)

		clipRef := ""
		if outline := il.Clip.Outline(); len(outline) > 0 {
			id := fmt.Sprintf("clip-%d", i)
			fmt.Fprintf(&defs, `<clipPath id="%s"><polygon points="%s"/></clipPath>`+"\n", id, points(outline))
			clipRef = fmt.Sprintf(` clip-path="url(#%s)"`, id)
		}

		for j, e := range il.Emitters {
			if e.Polygon.Empty() {
				continue
			}
			id := fmt.Sprintf("glow-%d-%d", i, j)
			writeGradient(&defs, id, e.Gradient)
			fmt.Fprintf(&body, `<polygon points="%s" fill="url(#%s)"%s data-fixture="%s"/>`+"\n",
				points(e.Polygon.Vertices), id, clipRef, html.EscapeString(f.ID))
		}
	}

	if defs.Len() > 0 {
		sb.WriteString("<defs>\n" + defs.String() + "</defs>\n")
	}

	fmt.Fprintf(&sb, `<g transform="translate(%s %s) scale(%s)">`+"\n", num(t.OffsetX), num(t.OffsetY), num(t.Scale))
	sb.WriteString(body.String())
	for _, wall := range scene.Walls {
		fmt.Fprintf(&sb, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="#ffffff" stroke-width="%s" stroke-linecap="round"/>`+"\n",
			num(wall.Start.X), num(wall.Start.Y), num(wall.End.X), num(wall.End.Y), num(wallWidth/t.Scale))
	}
	for _, f := range scene.Fixtures {
		colour := "#ff00ff"
		if !f.IsOn {
			colour = "#666666"
		}
		fmt.Fprintf(&sb, `<circle cx="%s" cy="%s" r="%s" fill="%s"/>`+"\n", num(f.X), num(f.Y), num(8*f.Scale()/t.Scale), colour)
	}
	sb.WriteString("</g>\n</svg>\n")
	return sb.String()
}

func writeGradient(sb *strings.Builder, id string, g glow.Gradient) {
	fmt.Fprintf(sb, `<radialGradient id="%s" gradientUnits="userSpaceOnUse" cx="%s" cy="%s" r="%s">`,
		id, num(g.Center.X), num(g.Center.Y), num(g.Radius))
	for _, s := range g.Stops {
		fmt.Fprintf(sb, `<stop offset="%s" stop-color="%s" stop-opacity="%s"/>`,
			num(s.Offset), s.Color[:7], strconv.FormatFloat(float64(s.Alpha)/255, 'f', 3, 64))
	}
	sb.WriteString("</radialGradient>\n")
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func points(pts []geometry.Point) string {
	parts := make([]string, len(pts))
	for i, p := range pts {
		parts[i] = num(p.X) + "," + num(p.Y)
	}
	return strings.Join(parts, " ")
}
