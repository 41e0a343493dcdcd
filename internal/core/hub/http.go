package hub

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/LeJamon/goScalingd/internal/core/decimal"
)

// stateQuery is the base64 of {"state":{}}.
var stateQuery = base64.StdEncoding.EncodeToString([]byte(`{"state":{}}`))

const maxBodySize = 1 << 20

// HTTPQuerier queries a CosmWasm LCD endpoint. Each call is a single request
// with no retry.
type HTTPQuerier struct {
	endpoint string
	client   *http.Client
}

// NewHTTPQuerier targets endpoint, e.g. https://lcd.osmosis.zone.
func NewHTTPQuerier(endpoint string, timeout time.Duration) *HTTPQuerier {
	return &HTTPQuerier{
		endpoint: strings.TrimRight(endpoint, "/"),
		client:   &http.Client{Timeout: timeout},
	}
}

func (q *HTTPQuerier) stateURL(hub string) string {
	return fmt.Sprintf("%s/cosmwasm/wasm/v1/contract/%s/smart/%s",
		q.endpoint, url.PathEscape(hub), url.PathEscape(stateQuery))
}

func (q *HTTPQuerier) QueryState(ctx context.Context, hub string) (StateResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, q.stateURL(hub), nil)
	if err != nil {
		return StateResponse{}, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := q.client.Do(req)
	if err != nil {
		return StateResponse{}, fmt.Errorf("%w: %v", ErrQueryFailed, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return StateResponse{}, fmt.Errorf("%w: reading body: %v", ErrQueryFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := gjson.GetBytes(body, "message").String()
		if msg == "" {
			msg = http.StatusText(resp.StatusCode)
		}
		return StateResponse{}, fmt.Errorf("%w: status %d: %s", ErrQueryFailed, resp.StatusCode, msg)
	}

	return parseState(body)
}

func parseState(body []byte) (StateResponse, error) {
	if !gjson.ValidBytes(body) {
		return StateResponse{}, fmt.Errorf("%w: invalid json", ErrMalformedResponse)
	}

	data := gjson.GetBytes(body, "data")
	rate := data.Get("exchange_rate")
	if !rate.Exists() || rate.Type != gjson.String {
		return StateResponse{}, fmt.Errorf("%w: missing data.exchange_rate", ErrMalformedResponse)
	}

	d, err := decimal.FromString(rate.String())
	if err != nil {
		return StateResponse{}, fmt.Errorf("%w: exchange_rate: %v", ErrMalformedResponse, err)
	}

	return StateResponse{
		TotalStake:   data.Get("total_ustake").String(),
		TotalUtoken:  data.Get("total_utoken").String(),
		ExchangeRate: d,
	}, nil
}
