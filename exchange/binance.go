package exchange

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ziflex/lecho/v3"
	"golang.org/x/time/rate"
)

const (
	depositHistoryPath = "/sapi/v1/capital/deposit/hisrec"
	apiKeyHeader       = "X-MBX-APIKEY"

	defaultHistoryLimit = 1000
	// the exchange refuses history windows larger than 90 days
	maxHistoryWindow = 90 * 24 * time.Hour
)

type BinanceClient struct {
	baseURL    string
	apiKey     string
	apiSecret  string
	recvWindow int

	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *lecho.Logger

	retryInitialInterval time.Duration
	maxRetryElapsed      time.Duration
	now                  func() time.Time
}

func NewBinanceClient(c *Config, logger *lecho.Logger) *BinanceClient {
	rps := c.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}
	return &BinanceClient{
		baseURL:    strings.TrimRight(c.BaseURL, "/"),
		apiKey:     c.APIKey,
		apiSecret:  c.APISecret,
		recvWindow: c.RecvWindow,
		httpClient: &http.Client{
			Timeout: time.Duration(c.Timeout) * time.Second,
		},
		limiter:              rate.NewLimiter(rate.Limit(rps), 1),
		logger:               logger,
		retryInitialInterval: backoff.DefaultInitialInterval,
		maxRetryElapsed:      time.Duration(c.MaxRetryElapsed) * time.Second,
		now:                  time.Now,
	}
}

func (bc *BinanceClient) GetRequiredConfirmations(currency, network string) int {
	return RequiredConfirmations(currency, network)
}

func (bc *BinanceClient) GetDepositHistory(ctx context.Context, req DepositHistoryRequest) ([]Deposit, error) {
	params := url.Values{}
	params.Set("coin", NormalizeCurrency(req.Currency))
	start, end := req.StartTime, req.EndTime
	if end.IsZero() {
		end = bc.now()
	}
	if !start.IsZero() {
		if end.Sub(start) > maxHistoryWindow {
			start = end.Add(-maxHistoryWindow)
		}
		params.Set("startTime", strconv.FormatInt(start.UnixMilli(), 10))
	}
	params.Set("endTime", strconv.FormatInt(end.UnixMilli(), 10))
	limit := req.Limit
	if limit <= 0 || limit > defaultHistoryLimit {
		limit = defaultHistoryLimit
	}
	params.Set("limit", strconv.Itoa(limit))
	if req.Status != "" {
		code, ok := binanceStatusCode(req.Status)
		if !ok {
			return nil, fmt.Errorf("unsupported deposit status filter %q", req.Status)
		}
		params.Set("status", strconv.Itoa(code))
	}

	raw := []json.RawMessage{}
	if err := bc.signedGet(ctx, "deposit_history", depositHistoryPath, params, &raw); err != nil {
		return nil, err
	}
	return bc.toDeposits("deposit_history", raw)
}

func (bc *BinanceClient) VerifyTransactionManually(ctx context.Context, txid, currency string) (*Deposit, error) {
	params := url.Values{}
	params.Set("coin", NormalizeCurrency(currency))
	params.Set("txId", txid)

	raw := []json.RawMessage{}
	if err := bc.signedGet(ctx, "verify_transaction", depositHistoryPath, params, &raw); err != nil {
		return nil, err
	}
	deposits, err := bc.toDeposits("verify_transaction", raw)
	if err != nil {
		return nil, err
	}
	for i := range deposits {
		if strings.EqualFold(deposits[i].TxHash, txid) {
			return &deposits[i], nil
		}
	}
	return nil, nil
}

func (bc *BinanceClient) toDeposits(op string, raw []json.RawMessage) ([]Deposit, error) {
	deposits := make([]Deposit, 0, len(raw))
	for _, r := range raw {
		bd := binanceDeposit{}
		if err := json.Unmarshal(r, &bd); err != nil {
			return nil, &APIError{Op: op, StatusCode: http.StatusOK, Message: "malformed deposit", Err: err}
		}
		deposits = append(deposits, Deposit{
			TxHash:        bd.TxID,
			Amount:        bd.Amount,
			Currency:      NormalizeCurrency(bd.Coin),
			Network:       NormalizeNetwork(bd.Network),
			Confirmations: parseConfirmTimes(bd.ConfirmTimes),
			Status:        binanceStatus(bd.Status),
			Timestamp:     time.UnixMilli(bd.InsertTime),
			Address:       bd.Address,
			AddressTag:    bd.AddressTag,
			Raw:           r,
		})
	}
	return deposits, nil
}

// signedGet performs a signed GET, retrying temporary failures with an
// exponential backoff until maxRetryElapsed.
func (bc *BinanceClient) signedGet(ctx context.Context, op, path string, params url.Values, out interface{}) error {
	expontentialBackoff := backoff.NewExponentialBackOff()
	expontentialBackoff.InitialInterval = bc.retryInitialInterval
	expontentialBackoff.MaxElapsedTime = bc.maxRetryElapsed

	operation := func() error {
		if err := bc.limiter.Wait(ctx); err != nil {
			return backoff.Permanent(err)
		}
		err := bc.doSignedGet(ctx, op, path, params, out)
		var apiErr *APIError
		if errors.As(err, &apiErr) && !apiErr.Temporary() {
			return backoff.Permanent(err)
		}
		return err
	}
	notify := func(err error, wait time.Duration) {
		if bc.logger != nil {
			bc.logger.Warnf("exchange: %s failed, retrying in %s: %v", op, wait, err)
		}
	}
	return backoff.RetryNotify(operation, backoff.WithContext(expontentialBackoff, ctx), notify)
}

func (bc *BinanceClient) doSignedGet(ctx context.Context, op, path string, params url.Values, out interface{}) error {
	query := url.Values{}
	for k, v := range params {
		query[k] = v
	}
	query.Set("timestamp", strconv.FormatInt(bc.now().UnixMilli(), 10))
	if bc.recvWindow > 0 {
		query.Set("recvWindow", strconv.Itoa(bc.recvWindow))
	}
	encoded := query.Encode()
	encoded += "&signature=" + bc.sign(encoded)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, bc.baseURL+path+"?"+encoded, nil)
	if err != nil {
		return &APIError{Op: op, Err: err}
	}
	req.Header.Set(apiKeyHeader, bc.apiKey)

	resp, err := bc.httpClient.Do(req)
	if err != nil {
		return &APIError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return &APIError{Op: op, StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{Op: op, StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(body))}
		be := binanceError{}
		if json.Unmarshal(body, &be) == nil && be.Msg != "" {
			apiErr.Code = be.Code
			apiErr.Message = be.Msg
		}
		return apiErr
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &APIError{Op: op, StatusCode: resp.StatusCode, Message: "malformed response", Err: err}
	}
	return nil
}

func (bc *BinanceClient) sign(payload string) string {
	mac := hmac.New(sha256.New, []byte(bc.apiSecret))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

var _ Client = (*BinanceClient)(nil)
