package decompose

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// nnls solves min ||Ax - b|| subject to x >= 0 with the Lawson-Hanson
// active set method.
func nnls(a mat.Matrix, b []float64) ([]float64, error) {
	m, n := a.Dims()
	if len(b) != m {
		return nil, fmt.Errorf("nnls: %d observations for a %d-row design", len(b), m)
	}

	bv := mat.NewVecDense(m, append([]float64(nil), b...))
	x := make([]float64, n)
	passive := make([]bool, n)
	blocked := make([]bool, n)

	// Gradient threshold, relative to the scale of the problem
	var atb mat.VecDense
	atb.MulVec(a.T(), bv)
	tol := 1e-10 * math.Max(1, mat.Norm(&atb, math.Inf(1)))

	maxIter := 3*n + 30
	for iter := 0; iter < maxIter; iter++ {
		w := gradient(a, bv, x)

		j := -1
		best := tol
		for k := 0; k < n; k++ {
			if !passive[k] && !blocked[k] && w[k] > best {
				best, j = w[k], k
			}
		}
		if j < 0 {
			return x, nil
		}
		passive[j] = true

		for {
			z, err := solvePassive(a, bv, passive)
			if err != nil {
				return nil, err
			}

			feasible := true
			for k := range z {
				if passive[k] && z[k] <= 0 {
					feasible = false
					break
				}
			}
			if feasible {
				x = z
				break
			}

			// Step from x toward z until the first passive coordinate hits 0
			alpha := 1.0
			for k := range z {
				if passive[k] && z[k] <= 0 {
					if d := x[k] - z[k]; d > 0 && x[k]/d < alpha {
						alpha = x[k] / d
					}
				}
			}
			for k := range x {
				x[k] += alpha * (z[k] - x[k])
				if passive[k] && x[k] <= tol {
					passive[k] = false
					x[k] = 0
				}
			}
		}

		// j was dropped straight away: numerically it cannot improve the fit
		if !passive[j] {
			blocked[j] = true
		} else {
			for k := range blocked {
				blocked[k] = false
			}
		}
	}

	return x, fmt.Errorf("nnls: no convergence after %d iterations", maxIter)
}

// gradient returns Aᵀ(b - Ax).
func gradient(a mat.Matrix, b *mat.VecDense, x []float64) []float64 {
	_, n := a.Dims()

	var resid mat.VecDense
	resid.MulVec(a, mat.NewVecDense(n, append([]float64(nil), x...)))
	resid.SubVec(b, &resid)

	w := mat.NewVecDense(n, nil)
	w.MulVec(a.T(), &resid)

	return w.RawVector().Data
}

// solvePassive solves the unconstrained least squares problem over the
// passive columns, returning zeros elsewhere.
func solvePassive(a mat.Matrix, b *mat.VecDense, passive []bool) ([]float64, error) {
	m, n := a.Dims()

	cols := make([]int, 0, n)
	for k, p := range passive {
		if p {
			cols = append(cols, k)
		}
	}

	out := make([]float64, n)
	if len(cols) == 0 {
		return out, nil
	}

	sub := mat.NewDense(m, len(cols), nil)
	for c, k := range cols {
		for i := 0; i < m; i++ {
			sub.Set(i, c, a.At(i, k))
		}
	}

	var z mat.VecDense
	if err := z.SolveVec(sub, b); err != nil {
		if _, ill := err.(mat.Condition); !ill {
			return nil, fmt.Errorf("nnls: %w", err)
		}
	}

	for c, k := range cols {
		out[k] = z.AtVec(c)
	}

	return out, nil
}
