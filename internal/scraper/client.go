package scraper

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"racestats/internal/results"
	"racestats/lib/telemetry"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

var ErrUnexpectedStatus = errors.New("unexpected response status")

// maxPages bounds pagination in case a site links pages in a cycle.
const maxPages = 200

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

type ClientOptions struct {
	BaseUrl     string
	ResultsPath string

	CompetitionParam string
	RaceParam        string
	EventParam       string
	PageParam        string

	UserAgent         string
	Timeout           time.Duration
	RequestsPerSecond float64
	Retries           int
	CloudflareBypass  bool

	// HttpOutput receives a dump of every request/response, it may be nil.
	HttpOutput telemetry.MessageOutput
}

func (o *ClientOptions) setDefaults() {
	if o.CompetitionParam == "" {
		o.CompetitionParam = "comp"
	}
	if o.RaceParam == "" {
		o.RaceParam = "race"
	}
	if o.EventParam == "" {
		o.EventParam = "event"
	}
	if o.PageParam == "" {
		o.PageParam = "page"
	}
	if o.UserAgent == "" {
		o.UserAgent = defaultUserAgent
	}
	if o.Timeout <= 0 {
		o.Timeout = time.Second * 30
	}
	if o.RequestsPerSecond <= 0 {
		o.RequestsPerSecond = 2
	}
	if o.Retries < 0 {
		o.Retries = 0
	}
}

type Client struct {
	http    *resty.Client
	baseUrl *url.URL
	opts    ClientOptions
}

func NewClient(opts ClientOptions) (*Client, error) {
	opts.setDefaults()

	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if baseUrl.Scheme == "" || baseUrl.Host == "" {
		return nil, fmt.Errorf("base url %q must be absolute", opts.BaseUrl)
	}

	httpClient := resty.New()
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	httpClient.SetCookieJar(jar)
	if opts.CloudflareBypass {
		httpClient.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(httpClient.GetClient().Transport)
	}

	httpClient.SetHeader("user-agent", opts.UserAgent)
	httpClient.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	httpClient.SetTimeout(opts.Timeout)

	httpClient.SetRetryCount(opts.Retries)
	httpClient.SetRetryWaitTime(time.Second)
	httpClient.SetRetryMaxWaitTime(time.Second * 10)
	httpClient.AddRetryCondition(func(res *resty.Response, err error) bool {
		if err != nil {
			return true
		}
		code := res.StatusCode()
		return code == http.StatusTooManyRequests || code >= 500
	})

	// burst of 1 keeps requests evenly spaced
	rateLimiter := rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), 1)
	httpClient.OnBeforeRequest(func(_ *resty.Client, req *resty.Request) error {
		return rateLimiter.Wait(req.Context())
	})

	telemetry.InstrumentResty(httpClient, "racestats.internal.scraper.http", opts.HttpOutput)

	return &Client{
		http:    httpClient,
		baseUrl: baseUrl,
		opts:    opts,
	}, nil
}

// ResultsURL is the result page of a race, `page` 1 leaves out the page parameter.
func (c *Client) ResultsURL(key results.RaceKey, page int) string {
	link := *c.baseUrl
	if c.opts.ResultsPath != "" {
		link = *c.baseUrl.JoinPath(c.opts.ResultsPath)
	}

	query := link.Query()
	query.Set(c.opts.CompetitionParam, key.Competition)
	query.Set(c.opts.RaceParam, key.Race)
	query.Set(c.opts.EventParam, key.Event)
	if page > 1 {
		query.Set(c.opts.PageParam, strconv.Itoa(page))
	}
	link.RawQuery = query.Encode()
	return link.String()
}

func (c *Client) fetchPage(ctx context.Context, link string) (Page, error) {
	ctx, span := tracer.Start(ctx, "fetchPage", trace.WithAttributes(
		attribute.String("url", link),
	))
	defer span.End()

	res, err := c.http.R().
		SetContext(ctx).
		Get(link)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return Page{}, err
	}
	if res.IsError() {
		err := fmt.Errorf("%w: %s", ErrUnexpectedStatus, res.Status())
		span.SetStatus(codes.Error, err.Error())
		return Page{}, err
	}

	base, err := url.Parse(link)
	if err != nil {
		return Page{}, err
	}
	if res.RawResponse != nil && res.RawResponse.Request != nil {
		// the final url after redirects
		base = res.RawResponse.Request.URL
	}
	page, err := ParsePage(bytes.NewReader(res.Body()), ParseOptions{
		Base:      base,
		PageParam: c.opts.PageParam,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "parse failed")
		return Page{}, err
	}

	pagesFetched.Add(ctx, 1)
	resultsParsed.Add(ctx, int64(len(page.Results)))
	if len(page.Warnings) > 0 {
		parseWarnings.Add(ctx, int64(len(page.Warnings)), metric.WithAttributes(attribute.String("url", link)))
		for _, w := range page.Warnings {
			slog.WarnContext(ctx, "result page", "url", link, "warning", w)
		}
	}
	span.SetAttributes(attribute.Int("results", len(page.Results)))

	return page, nil
}

// FetchRace fetches every page of a race's results.
func (c *Client) FetchRace(ctx context.Context, key results.RaceKey) (results.Race, error) {
	ctx, span := tracer.Start(ctx, "FetchRace", trace.WithAttributes(
		attribute.String("race", key.String()),
	))
	defer span.End()

	first := c.ResultsURL(key, 1)
	race := results.Race{
		Key:       key,
		SourceURL: first,
		FetchedAt: time.Now(),
	}

	hasPlaces := false
	visited := map[string]struct{}{}
	link := first
	for n := 1; link != ""; n++ {
		if n > maxPages {
			slog.WarnContext(ctx, "stopped following result pages", "race", key.String(), "pages", maxPages)
			break
		}
		if _, ok := visited[link]; ok {
			break
		}
		visited[link] = struct{}{}

		page, err := c.fetchPage(ctx, link)
		if err != nil {
			span.SetStatus(codes.Error, "fetch page")
			return results.Race{}, fmt.Errorf("race %s page %d: %w", key, n, err)
		}

		if n == 1 {
			race.Name = page.Name
			race.Date = page.Date
			race.Category = page.Caption
		}
		hasPlaces = hasPlaces || page.HasPlaces
		race.Results = append(race.Results, page.Results...)

		link = ""
		if page.Next != nil {
			link = page.Next.String()
		}
	}

	finalize(&race, hasPlaces)
	slog.DebugContext(ctx, "fetched race", "race", key.String(), "results", len(race.Results))
	return race, nil
}

func finalize(race *results.Race, hasPlaces bool) {
	if !hasPlaces {
		results.AssignPlaces(race.Results)
	}
	results.Order(race.Results)
	for i := range race.Results {
		race.Results[i].Race = race.Key
		if race.Results[i].Category == "" {
			race.Results[i].Category = race.Category
		}
	}
}

// FetchRaces fetches several races with at most `concurrency` in flight.
// Races that could be fetched are returned sorted by key even when others
// fail, the failures are joined into the returned error.
func (c *Client) FetchRaces(ctx context.Context, keys []results.RaceKey, concurrency int) ([]results.Race, error) {
	if concurrency < 1 {
		concurrency = 1
	}

	var (
		lock    sync.Mutex
		races   []results.Race
		errList []error
	)

	var group errgroup.Group
	group.SetLimit(concurrency)
	for _, key := range keys {
		group.Go(func() error {
			race, err := c.FetchRace(ctx, key)

			lock.Lock()
			defer lock.Unlock()
			if err != nil {
				errList = append(errList, err)
				return nil
			}
			races = append(races, race)
			return nil
		})
	}
	group.Wait()

	slices.SortFunc(races, func(a, b results.Race) int {
		return strings.Compare(a.Key.String(), b.Key.String())
	})
	return races, errors.Join(errList...)
}
