package tencent

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"github.com/komsit37/fundwl/pkg/fw/dedupe"
	"github.com/komsit37/fundwl/pkg/fw/logging"
	"github.com/komsit37/fundwl/pkg/fw/names"
	"github.com/komsit37/fundwl/pkg/fw/transport"
	"github.com/komsit37/fundwl/pkg/fw/types"
)

// DefaultBaseURL is the quote feed endpoint.
const DefaultBaseURL = "https://qt.gtimg.cn"

// Client fetches index quotes in one batched request.
type Client struct {
	http     *resty.Client
	baseURL  string
	resolver *names.Resolver
}

// NewClient uses http for transport; an empty baseURL uses DefaultBaseURL.
func NewClient(http *resty.Client, baseURL string, r *names.Resolver) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if r == nil {
		r = names.NewResolver(nil)
	}
	return &Client{http: http, baseURL: strings.TrimRight(baseURL, "/"), resolver: r}
}

// FetchBatch returns the raw UTF-8 payload for codes such as "sh000001" and
// "hkHSI".
func (c *Client) FetchBatch(ctx context.Context, codes []string) (string, error) {
	if len(codes) == 0 {
		return "", nil
	}
	resp, err := c.http.R().SetContext(ctx).Get(c.baseURL + "/q=" + strings.Join(codes, ","))
	if err != nil {
		return "", fmt.Errorf("tencent batch: %w", err)
	}
	if !resp.IsSuccess() {
		return "", fmt.Errorf("tencent batch: %s", resp.Status())
	}
	return string(transport.DecodeGBK(resp.Body())), nil
}

// Quotes fetches codes and returns parsed quotes with display names, one per
// instrument.
func (c *Client) Quotes(ctx context.Context, codes []string) ([]types.Quote, error) {
	payload, err := c.FetchBatch(ctx, codes)
	if err != nil {
		return nil, err
	}
	qs := ParseBatch(payload)
	if len(qs) < len(codes) {
		logging.L().Debug("tencent batch short", zap.Int("want", len(codes)), zap.Int("got", len(qs)))
	}
	ResolveNames(qs, c.resolver)
	return dedupe.Quotes(qs), nil
}
