package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"lumina/internal/domain/model"

	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// Nominatim互換APIのクライアント。
// 公開サーバーの利用規約に合わせて、1秒あたりのリクエスト数を制限する。
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
	breaker   *gobreaker.CircuitBreaker[[]byte]
	sfg       singleflight.Group
}

type Options struct {
	BaseURL   string
	UserAgent string
	RPS       float64
	Timeout   time.Duration
}

func NewClient(opts Options) *Client {
	return &Client{
		baseURL:   opts.BaseURL,
		userAgent: opts.UserAgent,
		http:      &http.Client{Timeout: opts.Timeout},
		limiter:   rate.NewLimiter(rate.Limit(opts.RPS), 1),
		breaker: gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
			Name:    "geocoder",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= 5
			},
		}),
	}
}

// Nominatimのレスポンス（必要な項目だけ）
type place struct {
	Lat         string       `json:"lat"`
	Lon         string       `json:"lon"`
	DisplayName string       `json:"display_name"`
	Address     placeAddress `json:"address"`
}

type placeAddress struct {
	Road        string `json:"road"`
	HouseNumber string `json:"house_number"`
	City        string `json:"city"`
	Town        string `json:"town"`
	Village     string `json:"village"`
	Postcode    string `json:"postcode"`
}

// Searchは自由入力の住所から候補を返す
func (c *Client) Search(ctx context.Context, query string) ([]model.Address, error) {
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("addressdetails", "1")
	q.Set("q", query)

	body, err := c.get(ctx, "/search", q)
	if err != nil {
		return nil, err
	}

	var places []place
	if err := json.Unmarshal(body, &places); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	out := make([]model.Address, 0, len(places))
	for _, p := range places {
		addr, err := p.toAddress()
		if err != nil {
			return nil, err
		}
		out = append(out, addr)
	}
	return out, nil
}

// Reverseは座標から住所を返す。
// 同じ座標への同時リクエストは1回にまとめる。
// まとめた呼び出しは呼び出し元のキャンセルとは切り離す（上限はhttp.ClientのTimeout）。
func (c *Client) Reverse(ctx context.Context, lat, lng float64) (model.Address, error) {
	key := fmt.Sprintf("%f,%f", lat, lng)
	shared := context.WithoutCancel(ctx)
	ch := c.sfg.DoChan(key, func() (interface{}, error) {
		q := url.Values{}
		q.Set("format", "jsonv2")
		q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
		q.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))

		body, err := c.get(shared, "/reverse", q)
		if err != nil {
			return nil, err
		}

		var p place
		if err := json.Unmarshal(body, &p); err != nil {
			return nil, fmt.Errorf("decode reverse response: %w", err)
		}
		if p.Lat == "" || p.Lon == "" {
			return nil, fmt.Errorf("reverse lookup: no result")
		}
		addr, err := p.toAddress()
		if err != nil {
			return nil, err
		}
		// 入力した座標をそのまま持たせる
		return addr.WithCoordinates(model.Coordinates{Lat: lat, Lng: lng}), nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return model.Address{}, res.Err
		}
		return res.Val.(model.Address), nil
	case <-ctx.Done():
		return model.Address{}, ctx.Err()
	}
}

func (c *Client) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	return c.breaker.Execute(func() ([]byte, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("User-Agent", c.userAgent)
		req.Header.Set("Accept", "application/json")

		resp, err := c.http.Do(req)
		if err != nil {
			return nil, fmt.Errorf("geocoder request failed: %w", err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("geocoder returned status %d", resp.StatusCode)
		}

		var raw json.RawMessage
		if err := json.NewDecoder(resp.Body).Decode(&raw); err != nil {
			return nil, fmt.Errorf("read geocoder response: %w", err)
		}
		return raw, nil
	})
}

func (p place) toAddress() (model.Address, error) {
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return model.Address{}, fmt.Errorf("parse lat %q: %w", p.Lat, err)
	}
	lng, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return model.Address{}, fmt.Errorf("parse lon %q: %w", p.Lon, err)
	}

	line1 := p.Address.Road
	if p.Address.HouseNumber != "" && line1 != "" {
		line1 = line1 + " " + p.Address.HouseNumber
	}
	//道路名が無いときは表示名
	if line1 == "" {
		line1 = p.DisplayName
	}

	city := p.Address.City
	if city == "" {
		city = p.Address.Town
	}
	if city == "" {
		city = p.Address.Village
	}

	return model.Address{
		Line1:      line1,
		City:       city,
		PostalCode: p.Address.Postcode,
	}.WithCoordinates(model.Coordinates{Lat: lat, Lng: lng}), nil
}
