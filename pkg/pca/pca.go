package pca

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// PCA projects mean-centered data onto its top principal components.
type PCA struct {
	NumComponents int
	svd           *mat.SVD
}

// NewPCA creates a new PCA instance with the specified number of components.
func NewPCA(numComponents int) *PCA {
	return &PCA{NumComponents: numComponents}
}

// FitTransform fits the PCA model to the data and transforms it.
func (pca *PCA) FitTransform(X *mat.Dense) (*mat.Dense, error) {
	if err := pca.Fit(X); err != nil {
		return nil, err
	}
	return pca.Transform(X)
}

// Fit fits the PCA model to the data.
func (pca *PCA) Fit(X *mat.Dense) error {
	if pca.NumComponents < 0 {
		return fmt.Errorf("number of components can't be negative (got %d)", pca.NumComponents)
	}

	// Mean center the input data before factorizing.
	M := mean(X)
	X = matrixSubVector(X, M)

	pca.svd = &mat.SVD{}
	if ok := pca.svd.Factorize(X, mat.SVDThin); !ok {
		return fmt.Errorf("SVD factorization failed")
	}
	return nil
}

// Transform transforms the data using the fitted PCA model.
func (pca *PCA) Transform(X *mat.Dense) (*mat.Dense, error) {
	if pca.svd == nil {
		return nil, fmt.Errorf("PCA model is not fitted")
	}

	numSamples, numFeatures := X.Dims()

	var vTemp mat.Dense
	pca.svd.VTo(&vTemp)
	if pca.NumComponents == 0 || pca.NumComponents > numFeatures {
		return compute(X, &vTemp), nil
	}

	projected := compute(X, &vTemp)
	result := mat.NewDense(numSamples, pca.NumComponents, nil)
	result.Copy(projected)
	return result, nil
}

// mean computes the mean of the columns of the input matrix.
func mean(matrix *mat.Dense) *mat.Dense {
	rows, cols := matrix.Dims()
	meanVector := make([]float64, cols)
	for i := 0; i < cols; i++ {
		sum := mat.Sum(matrix.ColView(i))
		meanVector[i] = sum / float64(rows)
	}
	return mat.NewDense(1, cols, meanVector)
}

// matrixSubVector subtracts the mean vector from each row of the matrix.
func matrixSubVector(m, vec *mat.Dense) *mat.Dense {
	rowsm, colsm := m.Dims()
	_, colsv := vec.Dims()
	if colsv != colsm {
		panic("pca: mean vector dimension mismatch")
	}
	for i := 0; i < rowsm; i++ {
		for j := 0; j < colsm; j++ {
			m.Set(i, j, m.At(i, j)-vec.At(0, j))
		}
	}
	return m
}

// compute multiplies the input matrix X by the matrix Y.
func compute(X, Y mat.Matrix) *mat.Dense {
	var ret mat.Dense
	ret.Mul(X, Y)
	return &ret
}
