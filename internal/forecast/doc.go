// Package forecast extrapolates a monthly sales series with additive-trend
// exponential smoothing (Holt's linear method, no seasonal term).
//
// For observations y_t the model keeps a level l and a trend b:
//
//	l_t = alpha*y_t + (1-alpha)*(l_{t-1} + b_{t-1})
//	b_t = beta*(l_t - l_{t-1}) + (1-beta)*b_{t-1}
//
// and predicts y_{T+k} = l_T + k*b_T. Alpha, beta and the initial state are
// chosen to minimise the in-sample one-step squared error.
package forecast
