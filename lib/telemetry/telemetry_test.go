package telemetry

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/stretchr/testify/require"
)

func TestSetupWithoutEndpointsIsDisabled(t *testing.T) {
	tel, err := Setup(context.Background(), "test:telemetry", Config{})
	require.NoError(t, err)
	require.False(t, tel.Enabled())
	require.NoError(t, tel.Shutdown(context.Background()))
}

func TestSetupRejectsUnknownProtocol(t *testing.T) {
	_, err := Setup(context.Background(), "test:telemetry", Config{
		Traces: Endpoint{Url: "http://localhost:4318", Protocol: "carrier-pigeon"},
	})
	require.ErrorContains(t, err, "carrier-pigeon")
}

func TestEndpointProtocol(t *testing.T) {
	for in, expect := range map[string]string{"": ProtocolHttp, "HTTP": ProtocolHttp, "grpc": ProtocolGrpc} {
		protocol, err := Endpoint{Protocol: in}.protocol()
		require.NoError(t, err, in)
		require.Equal(t, expect, protocol, in)
	}
	require.Equal(t, DefaultMetricInterval, Config{}.metricInterval())
	require.Equal(t, 10*time.Second, Config{MetricIntervalSeconds: 10}.metricInterval())
}

type memoryOutput map[string]string

func (m memoryOutput) Write(id, contents string) {
	m[id] = contents
}

func TestInstrumentRestyWritesMessages(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		w.Write([]byte("hello swimmers"))
	}))
	defer server.Close()

	out := memoryOutput{}
	client := resty.New()
	InstrumentResty(client, "test:telemetry", out)

	for i := 0; i < 2; i++ {
		res, err := client.R().SetContext(context.Background()).Get(server.URL + "/results")
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, res.StatusCode())
	}

	require.Len(t, out, 2)
	require.Contains(t, out["1"], "---- RESPONSE ----")
	require.Contains(t, out["2"], "hello swimmers")
}

func TestFilesystemOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "http")
	out, err := NewFilesystemOutput(dir)
	require.NoError(t, err)

	out.Write("7", "contents")
	written, err := os.ReadFile(filepath.Join(dir, "7"))
	require.NoError(t, err)
	require.Equal(t, "contents", string(written))
}

func TestFilesystemOutputKeepsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	kept := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(kept, []byte("keep me"), 0600))

	_, err := NewFilesystemOutput(dir)
	require.ErrorIs(t, err, ErrOutputNotEmpty)

	contents, err := os.ReadFile(kept)
	require.NoError(t, err)
	require.Equal(t, "keep me", string(contents))
}

func TestFormatRequestBodyWithoutBody(t *testing.T) {
	req, err := http.NewRequest(http.MethodGet, "http://example.com", nil)
	require.NoError(t, err)
	req.GetBody = func() (io.ReadCloser, error) { return nil, nil }
	require.Equal(t, "<NO BODY>", formatRequestBody(req))

	req, err = http.NewRequest(http.MethodPost, "http://example.com", strings.NewReader("name=bondi"))
	require.NoError(t, err)
	require.Equal(t, "name=bondi", formatRequestBody(req))
}
