package services

import (
	"fmt"
	"math"
	"math/rand"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"findocgpt/internal/logger"
	"findocgpt/models"
)

const (
	defaultForecastPeriods = 4
	historyPeriods         = 12
)

var periodPattern = regexp.MustCompile(`(\d+)\s*(?:quarters?|periods?|months?)`)

// Forecaster fits a strictly linear model and a non-linear bagged-tree
// ensemble on synthesized history and reports whichever has the lower
// in-sample RMSE. Not a rigorous forecasting product: the history is a
// seeded simulation and the confidence band is a documented
// approximation.
type Forecaster struct {
	now func() time.Time
}

func NewForecaster() *Forecaster {
	return &Forecaster{now: time.Now}
}

// GenerateForecast runs the whole pipeline. Any failure is caught here
// and surfaced as a structured "forecast unavailable" result, never a
// panic.
func (f *Forecaster) GenerateForecast(query string, kpis models.KPISet) (result *models.ForecastResult) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("forecast pipeline panicked", "cause", r)
			result = &models.ForecastResult{
				Timestamp: f.now().UTC(),
				Error:     fmt.Sprint(r),
				Message:   "Unable to generate forecast with available data",
			}
		}
	}()

	params := f.ParseRequest(query, kpis)
	history := f.getHistory(params)

	forecastData, err := f.createForecast(history, params)
	if err != nil {
		return &models.ForecastResult{
			Parameters: params,
			Timestamp:  f.now().UTC(),
			Error:      err.Error(),
			Message:    "Unable to generate forecast with available data",
		}
	}

	return &models.ForecastResult{
		ForecastData:       forecastData,
		Parameters:         params,
		HistoricalPeriods:  len(history),
		ForecastPeriods:    params.Periods,
		ConfidenceInterval: confidenceInterval(forecastData),
		Methodology:        "Time series analysis with multi-model regression",
		Timestamp:          f.now().UTC(),
	}
}

// ParseRequest derives the target metric, horizon, and company from the
// query text and extracted KPIs.
func (f *Forecaster) ParseRequest(query string, kpis models.KPISet) models.ForecastParams {
	params := models.ForecastParams{
		Metric:  "revenue",
		Periods: defaultForecastPeriods,
	}

	q := strings.ToLower(query)
	switch {
	case strings.Contains(q, "profit") || strings.Contains(q, "earnings"):
		params.Metric = "profit"
	case strings.Contains(q, "revenue") || strings.Contains(q, "sales"):
		params.Metric = "revenue"
	case strings.Contains(q, "margin"):
		params.Metric = "margin"
	case strings.Contains(q, "eps"):
		params.Metric = "eps"
	}

	if m := periodPattern.FindStringSubmatch(q); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil && n > 0 {
			params.Periods = n
		}
	}

	if len(kpis.Companies) > 0 {
		params.Company = kpis.Companies[0].Name
	}

	return params
}

// getHistory synthesizes a quarterly series: exponential trend,
// 4-period sinusoidal seasonality, multiplicative Gaussian noise.
// Seeded by metric so repeated requests see the same history. A real
// deployment would read this from the financial data repository.
func (f *Forecaster) getHistory(params models.ForecastParams) []models.HistoricalPoint {
	baseValues := map[string]float64{
		"revenue": 1000, // million USD
		"profit":  150,
		"margin":  15.0, // percent
		"eps":     2.50, // USD
	}
	base, ok := baseValues[params.Metric]
	if !ok {
		base = 1000
	}

	const (
		trend       = 0.05
		seasonality = 0.10
		noise       = 0.05
	)

	rng := rand.New(rand.NewSource(seedFor("history", params.Metric)))
	now := f.now()

	history := make([]models.HistoricalPoint, 0, historyPeriods)
	for i := 0; i < historyPeriods; i++ {
		trendValue := base * math.Pow(1+trend, float64(i))
		seasonalFactor := 1 + seasonality*math.Sin(2*math.Pi*float64(i)/4)
		noiseFactor := 1 + noise*rng.NormFloat64()

		history = append(history, models.HistoricalPoint{
			Date:   quarterLabel(now, i-historyPeriods+1),
			Period: i + 1,
			Value:  round2(trendValue * seasonalFactor * noiseFactor),
			Metric: params.Metric,
		})
	}
	return history
}

// createForecast fits both candidate models on (period index -> value),
// scores them in-sample, and packages the lower-RMSE forecast.
func (f *Forecaster) createForecast(history []models.HistoricalPoint, params models.ForecastParams) (*models.ForecastData, error) {
	if len(history) < 2 {
		return nil, fmt.Errorf("not enough history: %d points", len(history))
	}

	x := make([]float64, len(history))
	y := make([]float64, len(history))
	for i, p := range history {
		x[i] = float64(p.Period)
		y[i] = p.Value
	}

	candidates := []regressionModel{
		newLinearModel(),
		newBaggedTreeModel(),
	}

	forecasts := map[string]models.ModelForecast{}
	order := make([]string, 0, len(candidates))
	for _, model := range candidates {
		model.Fit(x, y)

		mf := models.ModelForecast{}
		for i := 0; i < params.Periods; i++ {
			period := len(history) + 1 + i
			mf.Periods = append(mf.Periods, period)
			mf.Values = append(mf.Values, round2(model.Predict(float64(period))))
		}

		var absSum, sqSum float64
		for i := range x {
			diff := model.Predict(x[i]) - y[i]
			absSum += math.Abs(diff)
			sqSum += diff * diff
		}
		mf.MAE = round2(absSum / float64(len(x)))
		mf.RMSE = round2(math.Sqrt(sqSum / float64(len(x))))

		forecasts[model.Name()] = mf
		order = append(order, model.Name())
	}

	// lowest in-sample RMSE wins; first candidate on ties
	best := order[0]
	for _, name := range order[1:] {
		if forecasts[name].RMSE < forecasts[best].RMSE {
			best = name
		}
	}

	now := f.now()
	forecastDates := make([]string, params.Periods)
	for i := range forecastDates {
		forecastDates[i] = quarterLabel(now, i+1)
	}

	historicalDates := make([]string, len(history))
	historicalValues := make([]float64, len(history))
	for i, p := range history {
		historicalDates[i] = p.Date
		historicalValues[i] = p.Value
	}

	return &models.ForecastData{
		MethodUsed:     best,
		ForecastValues: forecasts[best].Values,
		ForecastDates:  forecastDates,
		ModelPerformance: models.ModelPerformance{
			MAE:  forecasts[best].MAE,
			RMSE: forecasts[best].RMSE,
		},
		HistoricalValues: historicalValues,
		HistoricalDates:  historicalDates,
	}, nil
}

// confidenceInterval builds a symmetric +/-1.96 sigma band per forecast
// point from the historical standard deviation. Coarse: the band is not
// conditioned on the selected model or horizon distance.
func confidenceInterval(data *models.ForecastData) *models.ConfidenceInterval {
	if data == nil || len(data.HistoricalValues) == 0 {
		return nil
	}

	mean := 0.0
	for _, v := range data.HistoricalValues {
		mean += v
	}
	mean /= float64(len(data.HistoricalValues))

	variance := 0.0
	for _, v := range data.HistoricalValues {
		variance += (v - mean) * (v - mean)
	}
	std := math.Sqrt(variance / float64(len(data.HistoricalValues)))

	ci := &models.ConfidenceInterval{StandardDeviation: round2(std)}
	for _, v := range data.ForecastValues {
		ci.Confidence95 = append(ci.Confidence95, models.ForecastPoint{
			Forecast: v,
			Lower95:  round2(v - 1.96*std),
			Upper95:  round2(v + 1.96*std),
		})
	}
	return ci
}

// quarterLabel renders the quarter offset quarters away from t as
// "2025-Q3".
func quarterLabel(t time.Time, offset int) string {
	t = t.AddDate(0, 3*offset, 0)
	quarter := (int(t.Month())-1)/3 + 1
	return fmt.Sprintf("%d-Q%d", t.Year(), quarter)
}

type regressionModel interface {
	Fit(x, y []float64)
	Predict(x float64) float64
	Name() string
}

// linearModel is ordinary least squares on a single feature.
type linearModel struct {
	slope, intercept float64
}

func newLinearModel() *linearModel { return &linearModel{} }

func (m *linearModel) Name() string { return "linear_regression" }

func (m *linearModel) Fit(x, y []float64) {
	n := float64(len(x))
	var sumX, sumY, sumXY, sumXX float64
	for i := range x {
		sumX += x[i]
		sumY += y[i]
		sumXY += x[i] * y[i]
		sumXX += x[i] * x[i]
	}

	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		m.slope = 0
		m.intercept = sumY / n
		return
	}
	m.slope = (n*sumXY - sumX*sumY) / denom
	m.intercept = (sumY - m.slope*sumX) / n
}

func (m *linearModel) Predict(x float64) float64 {
	return m.slope*x + m.intercept
}

// baggedTreeModel is a small bootstrap-aggregated regression-tree
// ensemble on the period index. Like any tree model it predicts flat
// beyond the training range, which is exactly why the linear model
// usually wins on trending series.
type baggedTreeModel struct {
	trees []*treeNode
	rng   *rand.Rand
}

const (
	baggedTrees  = 25
	treeMaxDepth = 3
	treeMinLeaf  = 2
)

func newBaggedTreeModel() *baggedTreeModel {
	return &baggedTreeModel{rng: rand.New(rand.NewSource(42))}
}

func (m *baggedTreeModel) Name() string { return "tree_ensemble" }

func (m *baggedTreeModel) Fit(x, y []float64) {
	m.trees = m.trees[:0]
	n := len(x)
	for t := 0; t < baggedTrees; t++ {
		sampleX := make([]float64, n)
		sampleY := make([]float64, n)
		for i := 0; i < n; i++ {
			j := m.rng.Intn(n)
			sampleX[i] = x[j]
			sampleY[i] = y[j]
		}
		m.trees = append(m.trees, buildTree(sampleX, sampleY, 0))
	}
}

func (m *baggedTreeModel) Predict(x float64) float64 {
	if len(m.trees) == 0 {
		return 0
	}
	sum := 0.0
	for _, tree := range m.trees {
		sum += tree.predict(x)
	}
	return sum / float64(len(m.trees))
}

type treeNode struct {
	leaf      bool
	value     float64
	threshold float64
	left      *treeNode
	right     *treeNode
}

func (t *treeNode) predict(x float64) float64 {
	if t.leaf {
		return t.value
	}
	if x <= t.threshold {
		return t.left.predict(x)
	}
	return t.right.predict(x)
}

func buildTree(x, y []float64, depth int) *treeNode {
	if depth >= treeMaxDepth || len(x) < 2*treeMinLeaf {
		return &treeNode{leaf: true, value: mean(y)}
	}

	threshold, ok := bestSplit(x, y)
	if !ok {
		return &treeNode{leaf: true, value: mean(y)}
	}

	var lx, ly, rx, ry []float64
	for i := range x {
		if x[i] <= threshold {
			lx = append(lx, x[i])
			ly = append(ly, y[i])
		} else {
			rx = append(rx, x[i])
			ry = append(ry, y[i])
		}
	}

	return &treeNode{
		threshold: threshold,
		left:      buildTree(lx, ly, depth+1),
		right:     buildTree(rx, ry, depth+1),
	}
}

// bestSplit scans candidate midpoints for the threshold minimizing the
// summed squared error of the two sides.
func bestSplit(x, y []float64) (float64, bool) {
	idx := make([]int, len(x))
	for i := range idx {
		idx[i] = i
	}
	sort.Slice(idx, func(a, b int) bool { return x[idx[a]] < x[idx[b]] })

	bestSSE := math.Inf(1)
	bestThreshold := 0.0
	found := false

	for split := treeMinLeaf; split <= len(idx)-treeMinLeaf; split++ {
		lo, hi := x[idx[split-1]], x[idx[split]]
		if lo == hi {
			continue
		}
		threshold := (lo + hi) / 2

		var left, right []float64
		for i := range x {
			if x[i] <= threshold {
				left = append(left, y[i])
			} else {
				right = append(right, y[i])
			}
		}

		sse := sumSquaredError(left) + sumSquaredError(right)
		if sse < bestSSE {
			bestSSE = sse
			bestThreshold = threshold
			found = true
		}
	}
	return bestThreshold, found
}

func mean(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range v {
		sum += x
	}
	return sum / float64(len(v))
}

func sumSquaredError(v []float64) float64 {
	m := mean(v)
	sse := 0.0
	for _, x := range v {
		sse += (x - m) * (x - m)
	}
	return sse
}
