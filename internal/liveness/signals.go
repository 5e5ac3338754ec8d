package liveness

import (
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/stat"
)

// laplacianVariance filters luminance with the 4-neighbour Laplacian
// (reflect-101 borders) and returns the population variance of the response.
func laplacianVariance(p *planes) float64 {
	w, h := p.width, p.height
	response := make([]float64, w*h)

	for y := 0; y < h; y++ {
		up, down := reflect101(y-1, h), reflect101(y+1, h)
		for x := 0; x < w; x++ {
			left, right := reflect101(x-1, w), reflect101(x+1, w)
			response[y*w+x] = p.gray[up*w+x] + p.gray[down*w+x] +
				p.gray[y*w+left] + p.gray[y*w+right] - 4*p.gray[y*w+x]
		}
	}

	return stat.PopVariance(response, nil)
}

func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	if i < 0 {
		return -i
	}
	if i >= n {
		return 2*n - 2 - i
	}
	return i
}

// maxLogMagnitude returns max(20·ln(|F|+1)) over the 2-D DFT of luminance.
// The quadrant swap that centres the zero frequency does not change the
// maximum, so it is not materialized.
func maxLogMagnitude(p *planes) float64 {
	w, h := p.width, p.height
	data := make([]complex128, w*h)
	for i, v := range p.gray {
		data[i] = complex(v, 0)
	}

	rowFFT := fourier.NewCmplxFFT(w)
	row := make([]complex128, w)
	for y := 0; y < h; y++ {
		rowFFT.Coefficients(row, data[y*w:(y+1)*w])
		copy(data[y*w:(y+1)*w], row)
	}

	colFFT := fourier.NewCmplxFFT(h)
	col := make([]complex128, h)
	out := make([]complex128, h)
	maxMag := math.Inf(-1)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			col[y] = data[y*w+x]
		}
		colFFT.Coefficients(out, col)
		for _, c := range out {
			if m := 20 * math.Log(cmplx.Abs(c)+1); m > maxMag {
				maxMag = m
			}
		}
	}

	return maxMag
}

// colorDispersion returns the population standard deviations of the
// saturation and value planes.
func colorDispersion(p *planes) (satStd, valStd float64) {
	return stat.PopStdDev(p.saturation, nil), stat.PopStdDev(p.value, nil)
}

// globalContrast is the standard deviation over every colour sample.
func globalContrast(p *planes) float64 {
	return stat.PopStdDev(p.channels, nil)
}
