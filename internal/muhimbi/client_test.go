package muhimbi

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RequiresAPIKey(t *testing.T) {
	for _, key := range []string{"", "   "} {
		_, err := New(key)
		assert.Error(t, err)
	}
}

func TestNew_Defaults(t *testing.T) {
	c, err := New(testAPIKey)
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, DefaultBaseURL, c.baseURL.String())
	assert.Equal(t, DefaultTimeout, c.httpClient.Timeout)
	assert.Equal(t, DefaultPollInterval, c.PollInterval())

	tlsCfg := c.transport.TLSClientConfig
	require.NotNil(t, tlsCfg)
	assert.Equal(t, uint16(tls.VersionTLS12), tlsCfg.MinVersion)
	assert.Equal(t, uint16(tls.VersionTLS13), tlsCfg.MaxVersion)
	assert.False(t, tlsCfg.InsecureSkipVerify)
}

func TestNew_Options(t *testing.T) {
	c, err := New(testAPIKey,
		WithBaseURL("https://ocr.example.test/api"),
		WithTimeout(30*time.Second),
		WithPollInterval(time.Second),
		WithInsecureSkipVerify(true),
	)
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, "https://ocr.example.test/api/", c.baseURL.String())
	assert.Equal(t, 30*time.Second, c.httpClient.Timeout)
	assert.Equal(t, time.Second, c.PollInterval())
	assert.True(t, c.transport.TLSClientConfig.InsecureSkipVerify)
}

func TestNew_WithHTTPClient(t *testing.T) {
	custom := &http.Client{Timeout: time.Second}
	c, err := New(testAPIKey, WithHTTPClient(custom))
	require.NoError(t, err)

	assert.Same(t, custom, c.httpClient)
	assert.Nil(t, c.transport)
	assert.NoError(t, c.Close())
}

func TestNew_IgnoresNonPositiveDurations(t *testing.T) {
	c, err := New(testAPIKey, WithTimeout(0), WithPollInterval(-time.Second))
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, DefaultTimeout, c.httpClient.Timeout)
	assert.Equal(t, DefaultPollInterval, c.PollInterval())
}

func TestClose_Idempotent(t *testing.T) {
	c, err := New(testAPIKey)
	require.NoError(t, err)

	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())

	_, err = c.OCR(context.Background(), []byte("scan"), "scan.pdf", DefaultOptions())
	assert.ErrorIs(t, err, ErrClientClosed)
}

func TestCauseChain_DepthIsCapped(t *testing.T) {
	err := errors.New("root cause")
	for i := 0; i < 15; i++ {
		err = fmt.Errorf("level %d: %w", i, err)
	}

	te := newTransportError(ocrPdfPath, err)
	assert.Len(t, te.Causes, maxCauseDepth)
	assert.Equal(t, "*fmt.wrapError", te.Causes[0].Kind)
	assert.ErrorIs(t, te, err)
}

func TestCauseChain_RecordsEveryLevel(t *testing.T) {
	root := errors.New("connection refused")
	err := fmt.Errorf("dial: %w", root)

	causes := causeChain(err)
	require.Len(t, causes, 2)
	assert.Equal(t, "dial: connection refused", causes[0].Message)
	assert.Equal(t, "*errors.errorString", causes[1].Kind)
	assert.Equal(t, "connection refused", causes[1].Message)
}

func TestSleepContext(t *testing.T) {
	assert.NoError(t, sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)

	ctx, cancel = context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	start := time.Now()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
	assert.Less(t, time.Since(start), time.Minute)
}

func TestErrorMessages(t *testing.T) {
	assert.Equal(t, "source file not found: a.pdf", (&NotFoundError{Path: "a.pdf"}).Error())
	assert.Equal(t,
		"v1/operations/ocr_pdf returned HTTP 500 Internal Server Error: server error",
		(&HTTPStatusError{Op: ocrPdfPath, StatusCode: 500, Reason: "Internal Server Error", Body: "server error"}).Error(),
	)
	assert.Equal(t,
		`ocr failed with result code "Fail": Invalid PDF`,
		(&ResultError{Code: "Fail", Details: "Invalid PDF"}).Error(),
	)
	assert.Equal(t,
		"ocr cancelled while polling task t-1 after 2 poll(s): context canceled",
		(&CancelledError{TaskID: "t-1", Polls: 2, Err: context.Canceled}).Error(),
	)
}
