package rates

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const kbFixture = `<html><body>
<div class="u-table vertical">
  <table>
    <thead><tr><th>통화</th><th>매매기준율</th></tr></thead>
    <tbody>
      <tr><td><a class="u-link" onclick="javascript:goDetail('USD');">미국 달러</a></td><td class="right">1,350.50</td><td class="right">1,370.00</td></tr>
      <tr><td><a class="u-link" onclick="javascript:goDetail('JPY');">일본 엔</a></td><td class="right">905.20</td></tr>
      <tr><td><a class="u-link" onclick="javascript:goDetail('CNY');">중국 위안</a></td><td class="right">187.10</td></tr>
      <tr><td><a class="u-link" onclick="javascript:goDetail('TRY');">튀르키예 리라</a></td><td class="right">n/a</td></tr>
      <tr><td>no link row</td><td class="right">1.00</td></tr>
    </tbody>
  </table>
</div>
</body></html>`

func TestBinance_Price(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/ticker/price", r.URL.Path)
		assert.Equal(t, "TRXUSDT", r.URL.Query().Get("symbol"))
		_, _ = w.Write([]byte(`{"symbol":"TRXUSDT","price":"0.15630000"}`))
	}))
	defer srv.Close()

	price, err := NewBinance(srv.URL+"/", time.Second).Price(context.Background(), "trx")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("0.1563").Equal(price))
}

func TestBinance_UnknownSymbol(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
	}))
	defer srv.Close()

	_, err := NewBinance(srv.URL, time.Second).Price(context.Background(), "NOPE")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}

func TestUpbit_Price(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "KRW-USDT", r.URL.Query().Get("markets"))
		_, _ = w.Write([]byte(`[{"market":"KRW-USDT","trade_price":1402.5}]`))
	}))
	defer srv.Close()

	price, err := NewUpbit(srv.URL, time.Second).Price(context.Background(), "USDT")
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("1402.5").Equal(price))
}

func TestUpbit_EmptyMarket(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	_, err := NewUpbit(srv.URL, time.Second).Price(context.Background(), "XYZ")
	assert.Error(t, err)
}

func TestKBTable_Snapshot(t *testing.T) {
	fixed := time.Date(2024, 10, 1, 20, 0, 0, 0, time.UTC) // 2024-10-02 in KST

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "application/x-www-form-urlencoded"))
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "20241002", r.PostForm.Get("selDate"))
		assert.Equal(t, "Y", r.PostForm.Get("btnClick"))
		_, _ = w.Write([]byte(kbFixture))
	}))
	defer srv.Close()

	kb := NewKBTable(srv.URL, time.Second)
	kb.now = func() time.Time { return fixed }

	snap, err := kb.Snapshot(context.Background())
	require.NoError(t, err)

	assert.Equal(t, SourceFiat, snap.Source)
	assert.Equal(t, "KRW", snap.Base)
	assert.Equal(t, fixed, snap.FetchedAt)
	assert.Len(t, snap.Rates, 3, "unparseable and link-less rows are skipped")
	assert.True(t, decimal.RequireFromString("1350.50").Equal(snap.Rates["USD"]))

	jpy, ok := snap.Rate("JPY")
	require.True(t, ok)
	assert.True(t, decimal.RequireFromString("9.052").Equal(jpy), "JPY is quoted per 100 units")

	krw, ok := snap.Rate("KRW")
	require.True(t, ok)
	assert.True(t, krw.Equal(decimal.NewFromInt(1)))

	_, ok = snap.Rate("TRY")
	assert.False(t, ok)
}

func TestKBTable_NoUSDRow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Replace(kbFixture, "'USD'", "'EUR'", 1)))
	}))
	defer srv.Close()

	_, err := NewKBTable(srv.URL, time.Second).Snapshot(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "USD")
}

func TestKBTable_LayoutChanged(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html><body><p>maintenance</p></body></html>`))
	}))
	defer srv.Close()

	_, err := NewKBTable(srv.URL, time.Second).Snapshot(context.Background())
	assert.Error(t, err)
}
