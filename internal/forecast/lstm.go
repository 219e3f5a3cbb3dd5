package forecast

import (
	"fmt"
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/floats"
)

// lstmLayer is a single LSTM layer. Gate rows are laid out i, f, g, o; W is
// 4H x In and U is 4H x H, both row-major.
type lstmLayer struct {
	In     int       `json:"in"`
	Hidden int       `json:"hidden"`
	W      []float64 `json:"w"`
	U      []float64 `json:"u"`
	B      []float64 `json:"b"`
}

type denseLayer struct {
	In int       `json:"in"`
	W  []float64 `json:"w"`
	B  []float64 `json:"b"`
}

// Network is two stacked LSTM layers reduced to one output by a dense layer.
type Network struct {
	LSTM1 *lstmLayer  `json:"lstm1"`
	LSTM2 *lstmLayer  `json:"lstm2"`
	Dense *denseLayer `json:"dense"`
}

func newLSTM(in, hidden int, r *rand.Rand) *lstmLayer {
	l := &lstmLayer{
		In:     in,
		Hidden: hidden,
		W:      make([]float64, 4*hidden*in),
		U:      make([]float64, 4*hidden*hidden),
		B:      make([]float64, 4*hidden),
	}
	glorot(l.W, in, 4*hidden, r)
	glorot(l.U, hidden, 4*hidden, r)
	// Forget gate starts open.
	for k := hidden; k < 2*hidden; k++ {
		l.B[k] = 1
	}
	return l
}

func glorot(w []float64, fanIn, fanOut int, r *rand.Rand) {
	limit := math.Sqrt(6 / float64(fanIn+fanOut))
	for i := range w {
		w[i] = (2*r.Float64() - 1) * limit
	}
}

// NewNetwork builds a freshly initialised network for inputs of width 2.
func NewNetwork(units1, units2 int, seed uint64) *Network {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	d := &denseLayer{In: units2, W: make([]float64, units2), B: make([]float64, 1)}
	glorot(d.W, units2, 1, r)
	return &Network{
		LSTM1: newLSTM(len(Pair{}), units1, r),
		LSTM2: newLSTM(units1, units2, r),
		Dense: d,
	}
}

func (l *lstmLayer) check(name string) error {
	h := l.Hidden
	if l.In < 1 || h < 1 || len(l.W) != 4*h*l.In || len(l.U) != 4*h*h || len(l.B) != 4*h {
		return fmt.Errorf("%s: inconsistent shape (in=%d hidden=%d)", name, l.In, h)
	}
	return nil
}

// Validate checks that the layers are present and their shapes line up.
func (n *Network) Validate() error {
	if n == nil || n.LSTM1 == nil || n.LSTM2 == nil || n.Dense == nil {
		return fmt.Errorf("network: missing layer")
	}
	if err := n.LSTM1.check("lstm1"); err != nil {
		return err
	}
	if err := n.LSTM2.check("lstm2"); err != nil {
		return err
	}
	if n.LSTM1.In != len(Pair{}) {
		return fmt.Errorf("lstm1: input width %d, want %d", n.LSTM1.In, len(Pair{}))
	}
	if n.LSTM2.In != n.LSTM1.Hidden {
		return fmt.Errorf("lstm2: input width %d does not match lstm1 units %d", n.LSTM2.In, n.LSTM1.Hidden)
	}
	if n.Dense.In != n.LSTM2.Hidden || len(n.Dense.W) != n.Dense.In || len(n.Dense.B) != 1 {
		return fmt.Errorf("dense: inconsistent shape (in=%d)", n.Dense.In)
	}
	for _, p := range n.params() {
		for _, v := range p {
			if !finite(v) {
				return fmt.Errorf("network: non-finite weight")
			}
		}
	}
	return nil
}

// params lists every trainable slice in a fixed order shared with the
// gradient buffers and the optimizer state.
func (n *Network) params() [][]float64 {
	return [][]float64{
		n.LSTM1.W, n.LSTM1.U, n.LSTM1.B,
		n.LSTM2.W, n.LSTM2.U, n.LSTM2.B,
		n.Dense.W, n.Dense.B,
	}
}

// zeroLike returns a network of the same shape with all weights zero, used as
// a gradient accumulator.
func (n *Network) zeroLike() *Network {
	z := func(l *lstmLayer) *lstmLayer {
		return &lstmLayer{
			In: l.In, Hidden: l.Hidden,
			W: make([]float64, len(l.W)),
			U: make([]float64, len(l.U)),
			B: make([]float64, len(l.B)),
		}
	}
	return &Network{
		LSTM1: z(n.LSTM1),
		LSTM2: z(n.LSTM2),
		Dense: &denseLayer{In: n.Dense.In, W: make([]float64, len(n.Dense.W)), B: make([]float64, 1)},
	}
}

func (n *Network) clone() *Network {
	c := n.zeroLike()
	dst, src := c.params(), n.params()
	for i := range src {
		copy(dst[i], src[i])
	}
	return c
}

func (n *Network) reset() {
	for _, p := range n.params() {
		for i := range p {
			p[i] = 0
		}
	}
}

type lstmStep struct {
	x, hPrev, cPrev []float64
	i, f, g, o      []float64
	c, tc, h        []float64
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

func (l *lstmLayer) forward(xs [][]float64) []lstmStep {
	h := l.Hidden
	hPrev := make([]float64, h)
	cPrev := make([]float64, h)
	z := make([]float64, 4*h)
	steps := make([]lstmStep, len(xs))

	for t, x := range xs {
		for r := range z {
			z[r] = l.B[r] +
				floats.Dot(l.W[r*l.In:(r+1)*l.In], x) +
				floats.Dot(l.U[r*h:(r+1)*h], hPrev)
		}
		s := lstmStep{
			x: x, hPrev: hPrev, cPrev: cPrev,
			i: make([]float64, h), f: make([]float64, h),
			g: make([]float64, h), o: make([]float64, h),
			c: make([]float64, h), tc: make([]float64, h), h: make([]float64, h),
		}
		for k := 0; k < h; k++ {
			s.i[k] = sigmoid(z[k])
			s.f[k] = sigmoid(z[h+k])
			s.g[k] = math.Tanh(z[2*h+k])
			s.o[k] = sigmoid(z[3*h+k])
			s.c[k] = s.f[k]*cPrev[k] + s.i[k]*s.g[k]
			s.tc[k] = math.Tanh(s.c[k])
			s.h[k] = s.o[k] * s.tc[k]
		}
		steps[t] = s
		hPrev, cPrev = s.h, s.c
	}
	return steps
}

// backward runs backpropagation through time. dhs[t] is the gradient flowing
// into h_t from above and may be nil. Parameter gradients are added to g; the
// returned slice holds the gradient with respect to each input x_t.
func (l *lstmLayer) backward(steps []lstmStep, dhs [][]float64, g *lstmLayer) [][]float64 {
	h := l.Hidden
	dhNext := make([]float64, h)
	dcNext := make([]float64, h)
	dz := make([]float64, 4*h)
	dxs := make([][]float64, len(steps))

	for t := len(steps) - 1; t >= 0; t-- {
		s := steps[t]
		for k := 0; k < h; k++ {
			dh := dhNext[k]
			if dhs[t] != nil {
				dh += dhs[t][k]
			}
			do := dh * s.tc[k]
			dc := dh*s.o[k]*(1-s.tc[k]*s.tc[k]) + dcNext[k]

			dz[k] = dc * s.g[k] * s.i[k] * (1 - s.i[k])
			dz[h+k] = dc * s.cPrev[k] * s.f[k] * (1 - s.f[k])
			dz[2*h+k] = dc * s.i[k] * (1 - s.g[k]*s.g[k])
			dz[3*h+k] = do * s.o[k] * (1 - s.o[k])
			dcNext[k] = dc * s.f[k]
		}

		dx := make([]float64, l.In)
		dhPrev := make([]float64, h)
		for r, d := range dz {
			if d == 0 {
				continue
			}
			floats.AddScaled(g.W[r*l.In:(r+1)*l.In], d, s.x)
			floats.AddScaled(g.U[r*h:(r+1)*h], d, s.hPrev)
			g.B[r] += d
			floats.AddScaled(dx, d, l.W[r*l.In:(r+1)*l.In])
			floats.AddScaled(dhPrev, d, l.U[r*h:(r+1)*h])
		}
		dxs[t] = dx
		dhNext = dhPrev
	}
	return dxs
}

func inputs(window []Pair) [][]float64 {
	xs := make([][]float64, len(window))
	for i, p := range window {
		xs[i] = []float64{p[0], p[1]}
	}
	return xs
}

func lastHidden(steps []lstmStep) []float64 {
	return steps[len(steps)-1].h
}

func hiddens(steps []lstmStep) [][]float64 {
	out := make([][]float64, len(steps))
	for i, s := range steps {
		out[i] = s.h
	}
	return out
}

// Predict runs a scaled window through the network and returns the scaled
// next-step revenue.
func (n *Network) Predict(window []Pair) float64 {
	s1 := n.LSTM1.forward(inputs(window))
	s2 := n.LSTM2.forward(hiddens(s1))
	return floats.Dot(n.Dense.W, lastHidden(s2)) + n.Dense.B[0]
}

// accumulate adds the gradient of scale*(y-target)^2 to g and returns the
// unscaled squared error.
func (n *Network) accumulate(ex Example, scale float64, g *Network) float64 {
	s1 := n.LSTM1.forward(inputs(ex.Window))
	s2 := n.LSTM2.forward(hiddens(s1))
	top := lastHidden(s2)
	y := floats.Dot(n.Dense.W, top) + n.Dense.B[0]
	diff := y - ex.Target

	dy := 2 * diff * scale
	floats.AddScaled(g.Dense.W, dy, top)
	g.Dense.B[0] += dy

	dh2 := make([][]float64, len(s2))
	dh2[len(s2)-1] = make([]float64, n.Dense.In)
	floats.AddScaled(dh2[len(s2)-1], dy, n.Dense.W)

	dh1 := n.LSTM2.backward(s2, dh2, g.LSTM2)
	n.LSTM1.backward(s1, dh1, g.LSTM1)
	return diff * diff
}

// adam is the Adam optimizer with the usual defaults.
type adam struct {
	lr, beta1, beta2, eps float64
	t                     int
	m, v                  [][]float64
}

func newAdam(lr float64, params [][]float64) *adam {
	a := &adam{lr: lr, beta1: 0.9, beta2: 0.999, eps: 1e-7}
	for _, p := range params {
		a.m = append(a.m, make([]float64, len(p)))
		a.v = append(a.v, make([]float64, len(p)))
	}
	return a
}

func (a *adam) step(params, grads [][]float64) {
	a.t++
	c1 := 1 - math.Pow(a.beta1, float64(a.t))
	c2 := 1 - math.Pow(a.beta2, float64(a.t))
	for i, p := range params {
		m, v, g := a.m[i], a.v[i], grads[i]
		for j := range p {
			m[j] = a.beta1*m[j] + (1-a.beta1)*g[j]
			v[j] = a.beta2*v[j] + (1-a.beta2)*g[j]*g[j]
			p[j] -= a.lr * (m[j] / c1) / (math.Sqrt(v[j]/c2) + a.eps)
		}
	}
}
