package statsd

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitizePrefix(t *testing.T) {
	t.Parallel()

	for input, want := range map[string]string{
		"  jobdesk.api  ": "jobdesk.api",
		"..foo..":         "foo",
		".":               "",
		"":                "",
	} {
		assert.Equal(t, want, sanitizePrefix(input), "input %q", input)
	}
}

func TestNormalizeMetricName(t *testing.T) {
	t.Parallel()

	for input, want := range map[string]string{
		" ledger/scope ": "ledger_scope",
		"foo..bar":       "foo.bar",
		"multi  space":   "multi__space",
		"job|op:create":  "job_op_create",
		"   ":            "",
	} {
		assert.Equal(t, want, normalizeMetricName(input), "input %q", input)
	}
}

func TestFormatTags(t *testing.T) {
	t.Parallel()

	global := map[string]string{
		"env": "prod",
		//nolint:gocritic // whitespace is part of the test case
		" service ": " jobdesk ",
	}
	local := map[string]string{
		"result": " success ",
		"":       "ignored",
		"env":    "stage",
		"scope":  "technician:1,status|x",
	}

	assert.Equal(t,
		"|#env:stage,result:success,scope:technician:1_status_x,service:jobdesk",
		formatTags(global, local))
	assert.Empty(t, formatTags(nil, nil))
}

func TestCloneTagsReturnsCopy(t *testing.T) {
	t.Parallel()

	original := map[string]string{"env": "prod", "": "ignored"}
	cloned := cloneTags(original)
	cloned["env"] = "stage"

	assert.Equal(t, "prod", original["env"])
	assert.NotContains(t, cloned, "")
}

func TestClientEnabledAndClose(t *testing.T) {
	t.Parallel()

	clientConn, peerConn := net.Pipe()
	defer peerConn.Close()

	client := &Client{conn: clientConn}
	assert.True(t, client.Enabled())

	require.NoError(t, client.Close())
	assert.False(t, client.Enabled())
	require.NoError(t, client.Close(), "second Close is a no-op")

	// Dropped after close without blocking on the pipe.
	client.Count("job.operation", 1, nil)

	var nilClient *Client
	assert.False(t, nilClient.Enabled())
	require.NoError(t, nilClient.Close())
	nilClient.Gauge("ignored", 1, nil)
}

func TestNewClient(t *testing.T) {
	t.Parallel()

	t.Run("empty address stays disabled", func(t *testing.T) {
		client, err := NewClient(Config{Enabled: true, Address: "   "})
		require.NoError(t, err)
		assert.False(t, client.Enabled())
	})

	t.Run("disabled config does not dial", func(t *testing.T) {
		client, err := NewClient(Config{Enabled: false, Address: "bad address"})
		require.NoError(t, err)
		assert.False(t, client.Enabled())
	})

	t.Run("dial error", func(t *testing.T) {
		_, err := NewClient(Config{Enabled: true, Address: "bad address"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "statsd dial")
	})
}

func TestClientWritesPrefixedLine(t *testing.T) {
	t.Parallel()

	clientConn, peerConn := net.Pipe()
	defer peerConn.Close()

	client := &Client{
		conn:       clientConn,
		prefix:     "jobdesk",
		globalTags: map[string]string{"env": "test"},
	}
	defer client.Close()

	got := make(chan string, 1)
	go func() {
		buf := make([]byte, 256)
		n, _ := peerConn.Read(buf)
		got <- string(buf[:n])
	}()

	client.Count("job.operation", 1, map[string]string{"op": "create"})
	assert.Equal(t, "jobdesk.job.operation:1|c|#env:test,op:create", <-got)
}

func TestClientLine(t *testing.T) {
	t.Parallel()

	c := &Client{}
	assert.Equal(t, "ledger.audit.duration:1.5|ms", c.line("ledger.audit.duration", "1.5", "ms", nil))
	assert.Empty(t, c.line(" ", "1", "c", nil))
}

func TestRecorderCapturesMetrics(t *testing.T) {
	t.Parallel()

	var r Recorder
	r.Count("ledger.scope.drift", 1, nil)
	r.Gauge("ledger.scope.gaps", 2, map[string]string{"scope": "technician:1"})
	r.Timing("job.operation.duration", 1500*time.Microsecond, nil)

	require.Len(t, r.Metrics(), 3)

	gaps := r.Named("ledger.scope.gaps")
	require.Len(t, gaps, 1)
	assert.InDelta(t, 2.0, gaps[0].Value, 0)
	assert.Equal(t, "technician:1", gaps[0].Tags["scope"])

	timing := r.Named("job.operation.duration")
	require.Len(t, timing, 1)
	assert.InDelta(t, 1.5, timing[0].Value, 1e-9)
}
