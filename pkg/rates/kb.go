package rates

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/shopspring/decimal"
)

var kst = time.FixedZone("KST", 9*60*60)

var currencyCodePattern = regexp.MustCompile(`'([^']+)'`)

// KBTable scrapes the KB Kookmin Bank notice table. Every rate is KRW per unit
// (JPY per 100 units). The HTML layout is the fragile part and stays in this file.
type KBTable struct {
	url        string
	httpClient *http.Client
	now        func() time.Time
}

func NewKBTable(tableURL string, timeout time.Duration) *KBTable {
	return &KBTable{
		url:        tableURL,
		httpClient: newHTTPClient(timeout),
		now:        time.Now,
	}
}

func (k *KBTable) form() url.Values {
	day := k.now().In(kst).Format("20060102")
	return url.Values{
		"조회년월일":       {day},
		"등록회차":        {"00000"},
		"monyCd":      {""},
		"selDate":     {day},
		"strFocusBtn": {""},
		"조회날짜기준":      {""},
		"고시회차기준":      {"1"},
		"통화선택기준":      {"1"},
		"btnClick":    {"Y"},
		"고시회차선택":      {"1"},
	}
}

// Snapshot fetches today's table.
func (k *KBTable) Snapshot(ctx context.Context) (*Snapshot, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, k.url, strings.NewReader(k.form().Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "text/html, */*; q=0.01")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=UTF-8")

	resp, err := k.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 200))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, string(body))
	}

	table, err := parseKBTable(resp.Body)
	if err != nil {
		return nil, err
	}
	if _, ok := table["USD"]; !ok {
		return nil, fmt.Errorf("fiat table has no USD row")
	}

	return &Snapshot{
		Source:    SourceFiat,
		Base:      "KRW",
		Rates:     table,
		FetchedAt: k.now(),
	}, nil
}

func parseKBTable(r io.Reader) (map[string]decimal.Decimal, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse fiat table: %w", err)
	}

	out := make(map[string]decimal.Decimal)
	doc.Find("div.u-table.vertical tbody tr").Each(func(_ int, row *goquery.Selection) {
		link := row.Find("td a.u-link")
		if link.Length() == 0 {
			return
		}
		onclick, _ := link.Attr("onclick")
		m := currencyCodePattern.FindStringSubmatch(onclick)
		if m == nil {
			return
		}
		text := strings.ReplaceAll(strings.TrimSpace(row.Find("td.right").First().Text()), ",", "")
		rate, err := decimal.NewFromString(text)
		if err != nil {
			return
		}
		out[m[1]] = rate
	})

	if len(out) == 0 {
		return nil, fmt.Errorf("fiat table is empty")
	}
	return out, nil
}
