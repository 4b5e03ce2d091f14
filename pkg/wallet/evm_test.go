package wallet

import (
	"context"
	"errors"
	"math/big"
	"net"
	"net/url"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	ethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var usdtContract = common.HexToAddress("0xc2132D05D31c914a87C6611C10748AEb04B58e8F")

type fakeEVM struct {
	mu          sync.Mutex
	native      *big.Int
	token       *big.Int
	gasPrice    *big.Int
	nonce       uint64
	sendErr     error
	sent        []*ethtypes.Transaction
	calls       []ethereum.CallMsg
	receipt     func(attempt int) (*ethtypes.Receipt, error)
	receiptHits int
}

func (f *fakeEVM) PendingNonceAt(context.Context, common.Address) (uint64, error) {
	return f.nonce, nil
}

func (f *fakeEVM) SuggestGasPrice(context.Context) (*big.Int, error) {
	return f.gasPrice, nil
}

func (f *fakeEVM) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, msg)
	return common.LeftPadBytes(f.token.Bytes(), 32), nil
}

func (f *fakeEVM) BalanceAt(context.Context, common.Address, *big.Int) (*big.Int, error) {
	return f.native, nil
}

func (f *fakeEVM) SendTransaction(_ context.Context, tx *ethtypes.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, tx)
	return nil
}

func (f *fakeEVM) TransactionReceipt(context.Context, common.Hash) (*ethtypes.Receipt, error) {
	f.mu.Lock()
	f.receiptHits++
	n := f.receiptHits
	f.mu.Unlock()
	return f.receipt(n)
}

func minedWith(status uint64) func(int) (*ethtypes.Receipt, error) {
	return func(attempt int) (*ethtypes.Receipt, error) {
		if attempt < 2 {
			return nil, ethereum.NotFound
		}
		return &ethtypes.Receipt{Status: status}, nil
	}
}

func newTestEVMWallet(t *testing.T, backend *fakeEVM) *EVMWallet {
	t.Helper()
	key, err := crypto.GenerateKey()
	require.NoError(t, err)
	return NewEVMWallet(backend, key, EVMOptions{
		ChainID:        big.NewInt(137),
		NativeAsset:    "POL",
		Tokens:         map[string]Token{"USDTPOL": {Contract: usdtContract, Decimals: 6}},
		ReceiptTimeout: 100 * time.Millisecond,
		ReceiptPoll:    time.Millisecond,
	}, zerolog.Nop())
}

func TestEVMWallet_TokenBalance(t *testing.T) {
	backend := &fakeEVM{token: big.NewInt(40_123456)}
	w := newTestEVMWallet(t, backend)

	bal, err := w.Balance(context.Background(), "USDTPOL")
	require.NoError(t, err)
	assert.Equal(t, "40.123456", bal.String())

	require.Len(t, backend.calls, 1)
	assert.Equal(t, usdtContract, *backend.calls[0].To)
	assert.Equal(t, parsedERC20.Methods["balanceOf"].ID, backend.calls[0].Data[:4])
}

func TestEVMWallet_NativeBalance(t *testing.T) {
	native, _ := new(big.Int).SetString("1500000000000000000", 10)
	w := newTestEVMWallet(t, &fakeEVM{native: native})

	bal, err := w.Balance(context.Background(), "POL")
	require.NoError(t, err)
	assert.Equal(t, "1.5", bal.String())
}

func TestEVMWallet_UnsupportedAsset(t *testing.T) {
	w := newTestEVMWallet(t, &fakeEVM{})

	_, err := w.Balance(context.Background(), "USDTSOL")
	var unsupported *ErrUnsupportedAsset
	assert.ErrorAs(t, err, &unsupported)

	_, err = w.Transfer(context.Background(), "LTC", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", decimal.NewFromInt(1))
	assert.ErrorAs(t, err, &unsupported)
}

func TestEVMWallet_TransferToken(t *testing.T) {
	backend := &fakeEVM{gasPrice: big.NewInt(30_000_000_000), nonce: 7, receipt: minedWith(ethtypes.ReceiptStatusSuccessful)}
	w := newTestEVMWallet(t, backend)
	dest := common.HexToAddress("0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed")

	receipt, err := w.Transfer(context.Background(), "USDTPOL", dest.Hex(), decimal.RequireFromString("12.5"))
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, receipt.Status)

	require.Len(t, backend.sent, 1)
	tx := backend.sent[0]
	assert.Equal(t, receipt.TxID, tx.Hash().Hex())
	assert.Equal(t, usdtContract, *tx.To())
	assert.Equal(t, uint64(7), tx.Nonce())
	assert.Equal(t, uint64(70000), tx.Gas())
	assert.Equal(t, big.NewInt(30_000_000_000), tx.GasPrice())
	assert.Equal(t, 0, tx.Value().Sign())

	method := parsedERC20.Methods["transfer"]
	assert.Equal(t, method.ID, tx.Data()[:4])
	args, err := method.Inputs.Unpack(tx.Data()[4:])
	require.NoError(t, err)
	assert.Equal(t, dest, args[0])
	assert.Equal(t, big.NewInt(12_500_000), args[1])

	sender, err := ethtypes.Sender(ethtypes.LatestSignerForChainID(big.NewInt(137)), tx)
	require.NoError(t, err)
	assert.Equal(t, w.Address(), sender.Hex())
}

func TestEVMWallet_TransferRoundsUpDust(t *testing.T) {
	backend := &fakeEVM{gasPrice: big.NewInt(1), receipt: minedWith(ethtypes.ReceiptStatusSuccessful)}
	w := newTestEVMWallet(t, backend)

	_, err := w.Transfer(context.Background(), "USDTPOL", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", decimal.RequireFromString("1.0000001"))
	require.NoError(t, err)

	args, err := parsedERC20.Methods["transfer"].Inputs.Unpack(backend.sent[0].Data()[4:])
	require.NoError(t, err)
	assert.Equal(t, big.NewInt(1_000_001), args[1])
}

func TestEVMWallet_TransferReverted(t *testing.T) {
	backend := &fakeEVM{gasPrice: big.NewInt(1), receipt: minedWith(ethtypes.ReceiptStatusFailed)}
	w := newTestEVMWallet(t, backend)

	receipt, err := w.Transfer(context.Background(), "USDTPOL", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", decimal.NewFromInt(1))
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, receipt.Status)
	assert.NotEmpty(t, receipt.TxID)
}

func TestEVMWallet_TransferReceiptTimeout(t *testing.T) {
	backend := &fakeEVM{gasPrice: big.NewInt(1), receipt: func(int) (*ethtypes.Receipt, error) {
		return nil, ethereum.NotFound
	}}
	w := newTestEVMWallet(t, backend)

	receipt, err := w.Transfer(context.Background(), "USDTPOL", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", decimal.NewFromInt(1))
	require.NoError(t, err)
	assert.Equal(t, StatusUnknown, receipt.Status)
	assert.Len(t, backend.sent, 1, "never rebroadcast")
}

func TestEVMWallet_TransferSendFails(t *testing.T) {
	backend := &fakeEVM{gasPrice: big.NewInt(1), sendErr: errors.New("nonce too low")}
	w := newTestEVMWallet(t, backend)

	receipt, err := w.Transfer(context.Background(), "USDTPOL", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", decimal.NewFromInt(1))
	require.Error(t, err)
	assert.Nil(t, receipt)
	assert.Contains(t, err.Error(), "nonce too low")
}

func TestEVMWallet_TransferSendTimeoutIsUnknown(t *testing.T) {
	for name, sendErr := range map[string]error{
		"deadline":  context.DeadlineExceeded,
		"transport": &url.Error{Op: "Post", URL: "https://polygon-rpc.com", Err: &net.OpError{Op: "read", Err: os.ErrDeadlineExceeded}},
	} {
		t.Run(name, func(t *testing.T) {
			backend := &fakeEVM{gasPrice: big.NewInt(1), sendErr: sendErr}
			w := newTestEVMWallet(t, backend)

			receipt, err := w.Transfer(context.Background(), "USDTPOL", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", decimal.NewFromInt(1))
			require.NoError(t, err)
			assert.Equal(t, StatusUnknown, receipt.Status)
			assert.True(t, strings.HasPrefix(receipt.TxID, "0x"))
			assert.Len(t, receipt.TxID, 66)
			assert.Zero(t, backend.receiptHits, "no receipt wait after an ambiguous send")
		})
	}
}

func TestEVMWallet_TransferRejectsBadInput(t *testing.T) {
	w := newTestEVMWallet(t, &fakeEVM{})

	_, err := w.Transfer(context.Background(), "USDTPOL", "TA4Y62o6YC2Zsck9rZVGTvqW1AQ7X9zTnj", decimal.NewFromInt(1))
	assert.Error(t, err)

	_, err = w.Transfer(context.Background(), "USDTPOL", "0x5aAeb6053F3E94C9b9A09f33669435E7Ef1BeAed", decimal.Zero)
	assert.Error(t, err)
}
