package exchange

import (
	"strconv"
	"strings"

	"github.com/dpyhq/cryptobill/common"
	"github.com/shopspring/decimal"
)

// binanceDeposit mirrors an entry of GET /sapi/v1/capital/deposit/hisrec
type binanceDeposit struct {
	ID           string          `json:"id"`
	Amount       decimal.Decimal `json:"amount"`
	Coin         string          `json:"coin"`
	Network      string          `json:"network"`
	Status       int             `json:"status"`
	Address      string          `json:"address"`
	AddressTag   string          `json:"addressTag"`
	TxID         string          `json:"txId"`
	InsertTime   int64           `json:"insertTime"`
	TransferType int             `json:"transferType"`
	ConfirmTimes string          `json:"confirmTimes"`
}

type binanceError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

const (
	binanceStatusPending         = 0
	binanceStatusSuccess         = 1
	binanceStatusRejected        = 2
	binanceStatusCredited        = 6
	binanceStatusWrongDeposit    = 7
	binanceStatusWaitingUserConf = 8
)

func binanceStatus(status int) string {
	switch status {
	case binanceStatusSuccess:
		return common.DepositStatusSuccess
	case binanceStatusCredited:
		return common.DepositStatusCredited
	case binanceStatusRejected, binanceStatusWrongDeposit:
		return common.DepositStatusFailed
	default:
		return common.DepositStatusPending
	}
}

func binanceStatusCode(status string) (int, bool) {
	switch status {
	case common.DepositStatusSuccess:
		return binanceStatusSuccess, true
	case common.DepositStatusCredited:
		return binanceStatusCredited, true
	case common.DepositStatusPending:
		return binanceStatusPending, true
	}
	return 0, false
}

// parseConfirmTimes reads "12/12" style progress strings and returns the
// number of confirmations seen so far.
func parseConfirmTimes(s string) int {
	current, _, _ := strings.Cut(strings.TrimSpace(s), "/")
	n, err := strconv.Atoi(current)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
