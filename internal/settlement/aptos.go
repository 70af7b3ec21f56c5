package settlement

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"stagepass-backend/internal/domain"

	"github.com/hashicorp/go-retryablehttp"
)

const coinStoreType = "0x1::coin::CoinStore<0x1::aptos_coin::AptosCoin>"

var txHashRe = regexp.MustCompile(`^0x[0-9a-fA-F]{1,64}$`)

// NodeClient verifies settlements against an Aptos fullnode REST API.
type NodeClient struct {
	BaseURL      string
	HTTP         *retryablehttp.Client
	PollInterval time.Duration
}

var _ Client = (*NodeClient)(nil)

// NewNodeClient builds a NodeClient with retrying transport for transient
// node errors. Settlement itself is never retried, only the HTTP reads.
func NewNodeClient(baseURL string) *NodeClient {
	rc := retryablehttp.NewClient()
	rc.RetryMax = 3
	rc.HTTPClient.Timeout = 10 * time.Second
	rc.Logger = nil
	return &NodeClient{
		BaseURL:      strings.TrimRight(baseURL, "/"),
		HTTP:         rc,
		PollInterval: time.Second,
	}
}

// Initiate validates the claimed transfer and returns a handle for
// confirmation. The wallet already submitted the transaction; nothing is
// sent to the chain here.
func (c *NodeClient) Initiate(ctx context.Context, p Payment) (Handle, error) {
	if !txHashRe.MatchString(p.TxHash) {
		return Handle{}, fmt.Errorf("%w: malformed transaction hash %q", domain.ErrSettlementFailed, p.TxHash)
	}
	if p.Recipient == "" {
		return Handle{}, fmt.Errorf("%w: missing recipient", domain.ErrSettlementFailed)
	}
	if p.Octas <= 0 {
		return Handle{}, fmt.Errorf("%w: non-positive transfer amount", domain.ErrSettlementFailed)
	}
	return Handle{TxHash: p.TxHash, Recipient: p.Recipient, Octas: p.Octas}, nil
}

type nodeTransaction struct {
	Type     string `json:"type"`
	Hash     string `json:"hash"`
	Success  bool   `json:"success"`
	VMStatus string `json:"vm_status"`
	GasUsed  string `json:"gas_used"`
	Payload  *struct {
		Function  string   `json:"function"`
		Arguments []string `json:"arguments"`
	} `json:"payload"`
}

// Confirm polls the node until the transaction leaves the pending state,
// then checks execution success and that the transfer payload matches the
// expected recipient and amount. The caller's ctx bounds the wait.
func (c *NodeClient) Confirm(ctx context.Context, h Handle) (*Confirmation, error) {
	for {
		txn, found, err := c.transactionByHash(ctx, h.TxHash)
		if err != nil {
			return nil, err
		}
		if found && txn.Type != "pending_transaction" {
			return c.verify(txn, h)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: confirmation of %s timed out: %v", domain.ErrSettlementFailed, h.TxHash, ctx.Err())
		case <-time.After(c.PollInterval):
		}
	}
}

// verify accepts only a successful coin transfer whose recipient and
// amount match the handle. The hash comes from the client, so anything
// else on chain, a mint or an unrelated entry function, is not payment.
func (c *NodeClient) verify(txn *nodeTransaction, h Handle) (*Confirmation, error) {
	if !txn.Success {
		return nil, fmt.Errorf("%w: transaction %s rejected: %s", domain.ErrSettlementFailed, h.TxHash, txn.VMStatus)
	}
	if txn.Payload == nil || !strings.HasSuffix(txn.Payload.Function, "::transfer") || len(txn.Payload.Arguments) < 2 {
		return nil, fmt.Errorf("%w: transaction %s is not a coin transfer", domain.ErrSettlementFailed, h.TxHash)
	}
	recipient := txn.Payload.Arguments[0]
	if !strings.EqualFold(recipient, h.Recipient) {
		return nil, fmt.Errorf("%w: transfer recipient %s does not match seller %s", domain.ErrSettlementFailed, recipient, h.Recipient)
	}
	amount, err := strconv.ParseInt(txn.Payload.Arguments[1], 10, 64)
	if err != nil || amount < h.Octas {
		return nil, fmt.Errorf("%w: transfer amount %s below listing price (%d octas)", domain.ErrSettlementFailed, txn.Payload.Arguments[1], h.Octas)
	}
	gas, _ := strconv.ParseUint(txn.GasUsed, 10, 64)
	return &Confirmation{Hash: txn.Hash, GasUsed: gas, VMStatus: txn.VMStatus}, nil
}

// transactionByHash fetches a transaction; found=false while the node has
// not yet indexed the hash.
func (c *NodeClient) transactionByHash(ctx context.Context, hash string) (*nodeTransaction, bool, error) {
	url := fmt.Sprintf("%s/v1/transactions/by_hash/%s", c.BaseURL, hash)
	body, status, err := c.get(ctx, url)
	if err != nil {
		return nil, false, fmt.Errorf("%w: node request: %v", domain.ErrSettlementFailed, err)
	}
	if status == http.StatusNotFound {
		return nil, false, nil
	}
	if status != http.StatusOK {
		return nil, false, fmt.Errorf("%w: node returned status %d", domain.ErrSettlementFailed, status)
	}
	var txn nodeTransaction
	if err := json.Unmarshal(body, &txn); err != nil {
		return nil, false, fmt.Errorf("%w: node response decode: %v", domain.ErrSettlementFailed, err)
	}
	return &txn, true, nil
}

type accountResource struct {
	Type string `json:"type"`
	Data struct {
		Coin struct {
			Value string `json:"value"`
		} `json:"coin"`
	} `json:"data"`
}

// AccountBalance returns the APT balance of an address in octas.
func (c *NodeClient) AccountBalance(ctx context.Context, address string) (int64, error) {
	url := fmt.Sprintf("%s/v1/accounts/%s/resources", c.BaseURL, address)
	body, status, err := c.get(ctx, url)
	if err != nil {
		return 0, fmt.Errorf("account resources: %w", err)
	}
	if status == http.StatusNotFound {
		return 0, nil
	}
	if status != http.StatusOK {
		return 0, fmt.Errorf("account resources: node returned status %d", status)
	}
	var resources []accountResource
	if err := json.Unmarshal(body, &resources); err != nil {
		return 0, fmt.Errorf("account resources decode: %w", err)
	}
	for _, r := range resources {
		if r.Type == coinStoreType {
			return strconv.ParseInt(r.Data.Coin.Value, 10, 64)
		}
	}
	return 0, nil
}

// Ping checks node reachability (used by the health module).
func (c *NodeClient) Ping(ctx context.Context) error {
	_, status, err := c.get(ctx, c.BaseURL+"/v1")
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("node returned status %d", status)
	}
	return nil
}

func (c *NodeClient) get(ctx context.Context, url string) ([]byte, int, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	return body, resp.StatusCode, nil
}
