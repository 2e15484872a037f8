package datasource

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yourusername/portfolio-lab/internal/models"
)

// Yahoo chart API hosts, tried in order
const (
	YahooPrimaryURL  = "https://query1.finance.yahoo.com"
	YahooFallbackURL = "https://query2.finance.yahoo.com"
)

// YahooSource fetches daily histories from the Yahoo Finance v8 chart API
type YahooSource struct {
	client *RateLimitedHTTPClient
	hosts  []string
	logger *logrus.Logger
}

// NewYahooSource creates a Yahoo source. An empty baseURL uses the public
// query1 host with query2 as fallback.
func NewYahooSource(client *RateLimitedHTTPClient, baseURL string, logger *logrus.Logger) *YahooSource {
	if logger == nil {
		logger = logrus.New()
	}
	hosts := []string{YahooPrimaryURL, YahooFallbackURL}
	if baseURL != "" {
		hosts = []string{strings.TrimRight(baseURL, "/")}
	}
	return &YahooSource{client: client, hosts: hosts, logger: logger}
}

// Name returns the name of the data source
func (y *YahooSource) Name() string {
	return "yahoo"
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type chartResult struct {
	Meta struct {
		Symbol    string `json:"symbol"`
		Currency  string `json:"currency"`
		GMTOffset int64  `json:"gmtoffset"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Close []*float64 `json:"close"`
		} `json:"quote"`
		AdjClose []struct {
			AdjClose []*float64 `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
}

// FetchHistory retrieves daily adjusted closes for symbol
func (y *YahooSource) FetchHistory(ctx context.Context, symbol, lookback string) ([]models.PricePoint, error) {
	if err := ValidateLookback(lookback); err != nil {
		return nil, NewDataSourceError(y.Name(), ErrCodeInvalidRequest, symbol, err)
	}
	if strings.TrimSpace(symbol) == "" {
		return nil, NewDataSourceError(y.Name(), ErrCodeInvalidRequest, "empty symbol", ErrInvalidData)
	}

	var lastErr error
	for _, host := range y.hosts {
		points, err := y.fetchFrom(ctx, host, symbol, lookback)
		if err == nil {
			return points, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
		y.logger.WithError(err).WithFields(logrus.Fields{
			"host":   host,
			"symbol": symbol,
		}).Debug("Yahoo chart request failed")
	}
	return nil, lastErr
}

func (y *YahooSource) fetchFrom(ctx context.Context, host, symbol, lookback string) ([]models.PricePoint, error) {
	q := url.Values{}
	q.Set("interval", "1d")
	q.Set("range", lookback)
	q.Set("includeAdjustedClose", "true")
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?%s", host, url.PathEscape(symbol), q.Encode())

	resp, err := y.client.Get(ctx, endpoint)
	if err != nil {
		return nil, NewDataSourceError(y.Name(), ErrCodeNetworkError, symbol, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return nil, NewDataSourceError(y.Name(), ErrCodeNotFound, symbol, ErrNotFound)
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, NewDataSourceError(y.Name(), ErrCodeRateLimitExceeded, symbol, ErrRateLimitExceeded)
	case resp.StatusCode >= 500:
		return nil, NewDataSourceError(y.Name(), ErrCodeServerError, fmt.Sprintf("%s: status %d", symbol, resp.StatusCode), ErrServerError)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, NewDataSourceError(y.Name(), ErrCodeInvalidRequest, fmt.Sprintf("%s: status %d: %s", symbol, resp.StatusCode, body), nil)
	}

	var chart chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&chart); err != nil {
		return nil, NewDataSourceError(y.Name(), ErrCodeInvalidData, symbol, err)
	}
	return parseChart(symbol, &chart)
}

// parseChart converts a chart response to price points. Adjusted closes are
// preferred; null entries are skipped.
func parseChart(symbol string, chart *chartResponse) ([]models.PricePoint, error) {
	if chart.Chart.Error != nil {
		return nil, NewDataSourceError("yahoo", ErrCodeNotFound, symbol+": "+chart.Chart.Error.Description, ErrNotFound)
	}
	if len(chart.Chart.Result) == 0 {
		return nil, NewDataSourceError("yahoo", ErrCodeNotFound, symbol, ErrNotFound)
	}
	result := chart.Chart.Result[0]

	var closes []*float64
	if len(result.Indicators.AdjClose) > 0 && len(result.Indicators.AdjClose[0].AdjClose) > 0 {
		closes = result.Indicators.AdjClose[0].AdjClose
	} else if len(result.Indicators.Quote) > 0 {
		closes = result.Indicators.Quote[0].Close
	}

	points := make([]models.PricePoint, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(closes) || closes[i] == nil {
			continue
		}
		local := time.Unix(ts+result.Meta.GMTOffset, 0).UTC()
		points = append(points, models.PricePoint{
			Date:  time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC),
			Close: *closes[i],
		})
	}
	return points, nil
}
