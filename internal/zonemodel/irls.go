package zonemodel

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/pitchside/refmetrics/internal/model"
)

// z975 is the two-sided 95% normal quantile used for confidence intervals.
const z975 = 1.959963984540054

// etaCap bounds the linear predictor so exp never overflows.
const etaCap = 30.0

// fit holds the raw IRLS output before it is packaged into a ZoneModel.
type fit struct {
	coef      []float64
	cov       *mat.SymDense
	converged bool
	iters     int
	logLik    float64
}

// fitNegBin fits an NB2 regression with log link, fixed dispersion alpha, and
// a known offset via iteratively reweighted least squares. The normal
// equations are solved by Cholesky factorization; a factorization failure
// means the design is singular.
func fitNegBin(d *Design, alpha float64, maxIter int, tol float64) (*fit, error) {
	n, k := d.X.Dims()
	if n < k {
		return nil, fmt.Errorf("underdetermined design: %d rows, %d terms", n, k)
	}

	// Start from the observed counts so the first working response is finite.
	mu := make([]float64, n)
	eta := make([]float64, n)
	for i := 0; i < n; i++ {
		mu[i] = d.Y[i] + 0.5
		eta[i] = math.Log(mu[i])
	}

	beta := make([]float64, k)
	w := make([]float64, n)
	z := make([]float64, n)
	var xtwx *mat.SymDense
	converged := false
	iters := 0

	for iter := 0; iter < maxIter; iter++ {
		iters = iter + 1
		for i := 0; i < n; i++ {
			w[i] = mu[i] / (1 + alpha*mu[i])
			z[i] = (eta[i] - d.Offset[i]) + (d.Y[i]-mu[i])/mu[i]
		}

		var err error
		var next []float64
		next, xtwx, err = solveWeighted(d.X, w, z)
		if err != nil {
			return nil, err
		}

		delta := 0.0
		for j := 0; j < k; j++ {
			delta = math.Max(delta, math.Abs(next[j]-beta[j]))
		}
		beta = next

		for i := 0; i < n; i++ {
			e := d.Offset[i]
			for j := 0; j < k; j++ {
				e += d.X.At(i, j) * beta[j]
			}
			if e > etaCap {
				e = etaCap
			} else if e < -etaCap {
				e = -etaCap
			}
			eta[i] = e
			mu[i] = math.Exp(e)
		}

		if delta < tol {
			converged = true
			break
		}
	}

	var chol mat.Cholesky
	if !chol.Factorize(xtwx) {
		return nil, fmt.Errorf("singular information matrix")
	}
	cov := mat.NewSymDense(k, nil)
	if err := chol.InverseTo(cov); err != nil {
		return nil, fmt.Errorf("invert information matrix: %w", err)
	}

	return &fit{
		coef:      beta,
		cov:       cov,
		converged: converged,
		iters:     iters,
		logLik:    negBinLogLik(d.Y, mu, alpha),
	}, nil
}

// solveWeighted solves the weighted normal equations X'WX b = X'Wz and also
// returns X'WX for the covariance at the final iterate.
func solveWeighted(x *mat.Dense, w, z []float64) ([]float64, *mat.SymDense, error) {
	n, k := x.Dims()

	xtwx := mat.NewSymDense(k, nil)
	xtwz := make([]float64, k)
	for i := 0; i < n; i++ {
		for a := 0; a < k; a++ {
			xa := x.At(i, a)
			xtwz[a] += w[i] * xa * z[i]
			for b := a; b < k; b++ {
				xtwx.SetSym(a, b, xtwx.At(a, b)+w[i]*xa*x.At(i, b))
			}
		}
	}

	var chol mat.Cholesky
	if !chol.Factorize(xtwx) {
		return nil, nil, fmt.Errorf("singular weighted design")
	}
	sol := mat.NewVecDense(k, nil)
	if err := chol.SolveVecTo(sol, mat.NewVecDense(k, xtwz)); err != nil {
		return nil, nil, fmt.Errorf("solve normal equations: %w", err)
	}

	out := make([]float64, k)
	copy(out, sol.RawVector().Data)
	return out, xtwx, nil
}

// negBinLogLik is the NB2 log-likelihood at mean mu with dispersion alpha.
func negBinLogLik(y, mu []float64, alpha float64) float64 {
	invAlpha := 1 / alpha
	ll := 0.0
	for i := range y {
		lgYA, _ := math.Lgamma(y[i] + invAlpha)
		lgA, _ := math.Lgamma(invAlpha)
		lgY, _ := math.Lgamma(y[i] + 1)
		am := alpha * mu[i]
		ll += lgYA - lgA - lgY + y[i]*math.Log(am/(1+am)) - invAlpha*math.Log(1+am)
	}
	return ll
}

// buildZoneModel packages a raw fit into a ZoneModel with Wald inference.
func buildZoneModel(zone model.ZoneID, d *Design, f *fit, alpha float64, offsetName, response string, refLevels []string) *model.ZoneModel {
	n, k := d.X.Dims()
	stdNormal := distuv.Normal{Mu: 0, Sigma: 1}

	coefs := make([]model.Coefficient, k)
	for j, term := range d.Terms {
		est := f.coef[j]
		se := math.Sqrt(f.cov.At(j, j))
		p := 1.0
		if se > 0 {
			p = 2 * stdNormal.Survival(math.Abs(est/se))
		}
		coefs[j] = model.Coefficient{
			Term:     term,
			Estimate: est,
			StdErr:   se,
			PValue:   p,
			CILower:  est - z975*se,
			CIUpper:  est + z975*se,
		}
	}

	return &model.ZoneModel{
		Zone:          zone,
		Response:      response,
		OffsetName:    offsetName,
		RefereeLevels: refLevels,
		Coefficients:  coefs,
		Dispersion:    alpha,
		Converged:     f.converged,
		LogLikelihood: f.logLik,
		AIC:           -2*f.logLik + 2*float64(k),
		BIC:           -2*f.logLik + float64(k)*math.Log(float64(n)),
		NumObs:        n,
	}
}
