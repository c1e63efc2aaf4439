package scraper

import (
	"racestats/lib/telemetry"

	"go.opentelemetry.io/otel/metric"
)

var tracer = telemetry.Tracer("racestats.internal.scraper")
var meter = telemetry.Meter("racestats.internal.scraper")

var pagesFetched, _ = meter.Int64Counter(
	"scraper.pages_fetched",
	metric.WithDescription("result pages fetched and parsed"),
)
var resultsParsed, _ = meter.Int64Counter(
	"scraper.results_parsed",
	metric.WithDescription("result rows parsed from result pages"),
)
var parseWarnings, _ = meter.Int64Counter(
	"scraper.parse_warnings",
	metric.WithDescription("cells that could not be interpreted"),
)
