package overlay

import (
	"image/color"

	"github.com/go-gl/gl/v2.1/gl"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/petems/wave-overlay/internal/panel"
	"github.com/petems/wave-overlay/internal/params"
	"github.com/petems/wave-overlay/internal/wave"
)

// maxLabels bounds the label texture cache. Spinner values change with
// every step, so the least recently drawn textures are freed.
const maxLabels = 64

var (
	panelFill   = color.RGBA{R: 32, G: 32, B: 32, A: 200}
	buttonFill  = color.RGBA{R: 64, G: 64, B: 64, A: 220}
	labelColour = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

type label struct {
	tex  uint32
	w, h float32
}

type renderer struct {
	stroke color.RGBA
	labels *lru.Cache[string, label]
}

func newRenderer(stroke color.RGBA) (*renderer, error) {
	labels, err := newLabelCache(maxLabels, func(tex uint32) {
		gl.DeleteTextures(1, &tex)
	})
	if err != nil {
		return nil, err
	}
	return &renderer{stroke: stroke, labels: labels}, nil
}

// newLabelCache returns an LRU of label textures that hands every evicted
// texture to free.
func newLabelCache(size int, free func(tex uint32)) (*lru.Cache[string, label], error) {
	return lru.NewWithEvict[string, label](size, func(_ string, lb label) {
		free(lb.tex)
	})
}

// begin clears the framebuffer and maps window coordinates with y down.
func (r *renderer) begin(fbw, fbh, width, height int) {
	gl.Viewport(0, 0, int32(fbw), int32(fbh))
	gl.MatrixMode(gl.PROJECTION)
	gl.LoadIdentity()
	gl.Ortho(0, float64(width), float64(height), 0, -1, 1)
	gl.MatrixMode(gl.MODELVIEW)
	gl.LoadIdentity()

	gl.ClearColor(0, 0, 0, 0)
	gl.Clear(gl.COLOR_BUFFER_BIT)

	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	gl.Enable(gl.LINE_SMOOTH)
	gl.Hint(gl.LINE_SMOOTH_HINT, gl.NICEST)
}

func (r *renderer) drawPath(points []wave.Point) {
	if len(points) < 2 {
		return
	}
	setColour(r.stroke)
	gl.LineWidth(1)
	gl.EnableClientState(gl.VERTEX_ARRAY)
	gl.VertexPointer(2, gl.FLOAT, 0, gl.Ptr(points))
	gl.DrawArrays(gl.LINE_STRIP, 0, int32(len(points)))
	gl.DisableClientState(gl.VERTEX_ARRAY)
}

func (r *renderer) drawPanel(l panel.Layout, e params.Entry) {
	b := l.Bounds()
	setColour(panelFill)
	fillRect(panel.Rect{X: b.X - 4, Y: b.Y - 4, W: b.W + 8, H: b.H + 8})

	setColour(buttonFill)
	fillRect(l.Dropdown)
	fillRect(l.Minus)
	fillRect(l.Plus)

	r.drawLabel(panel.DropdownLabel(e), l.Dropdown, false)
	r.drawLabel("-", l.Minus, true)
	r.drawLabel(panel.ValueLabel(e.Value), l.Value, true)
	r.drawLabel("+", l.Plus, true)
}

func (r *renderer) drawLabel(s string, box panel.Rect, centre bool) {
	lb := r.label(s)

	x := box.X + 4
	if centre {
		x = box.X + (box.W-lb.w)/2
	}
	y := box.Y + (box.H-lb.h)/2

	gl.Enable(gl.TEXTURE_2D)
	gl.BindTexture(gl.TEXTURE_2D, lb.tex)
	gl.Color4ub(255, 255, 255, 255)
	gl.Begin(gl.QUADS)
	gl.TexCoord2f(0, 0)
	gl.Vertex2f(x, y)
	gl.TexCoord2f(1, 0)
	gl.Vertex2f(x+lb.w, y)
	gl.TexCoord2f(1, 1)
	gl.Vertex2f(x+lb.w, y+lb.h)
	gl.TexCoord2f(0, 1)
	gl.Vertex2f(x, y+lb.h)
	gl.End()
	gl.BindTexture(gl.TEXTURE_2D, 0)
	gl.Disable(gl.TEXTURE_2D)
}

func (r *renderer) label(s string) label {
	if lb, ok := r.labels.Get(s); ok {
		return lb
	}

	img := panel.RenderLabel(s, labelColour)
	size := img.Bounds().Size()

	var tex uint32
	gl.GenTextures(1, &tex)
	gl.BindTexture(gl.TEXTURE_2D, tex)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, gl.NEAREST)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 1)
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, int32(size.X), int32(size.Y), 0,
		gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
	gl.BindTexture(gl.TEXTURE_2D, 0)

	lb := label{tex: tex, w: float32(size.X), h: float32(size.Y)}
	r.labels.Add(s, lb)
	return lb
}

// release frees every cached texture.
func (r *renderer) release() {
	r.labels.Purge()
}

func setColour(c color.RGBA) {
	gl.Color4ub(c.R, c.G, c.B, c.A)
}

func fillRect(r panel.Rect) {
	gl.Rectf(r.X, r.Y, r.X+r.W, r.Y+r.H)
}
