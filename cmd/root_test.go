package cmd

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firestige.xyz/flowsniff/internal/config"
	"firestige.xyz/flowsniff/internal/core"
	"firestige.xyz/flowsniff/internal/core/coretest"
	"firestige.xyz/flowsniff/internal/report"
)

func writeTrace(t *testing.T, frames ...[]byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.pcap")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := pcapgo.NewWriter(f)
	require.NoError(t, w.WriteFileHeader(65535, layers.LinkTypeEthernet))
	for _, data := range frames {
		ci := gopacket.CaptureInfo{Timestamp: time.Now(), CaptureLength: len(data), Length: len(data)}
		require.NoError(t, w.WritePacket(ci, data))
	}
	return path
}

func execute(args ...string) (string, error) {
	var out bytes.Buffer
	root := NewRootCommand()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestReplayTextReport(t *testing.T) {
	tcp := coretest.TCP("10.0.0.1", 443, "10.0.0.2", 51000)
	path := writeTrace(t, tcp, tcp, coretest.ARP(), coretest.ICMP("10.0.0.2", "10.0.0.1"))

	out, err := execute("--pcap-file", path)
	require.NoError(t, err)

	assert.Contains(t, out, "Start sniffing packets on session.pcap")
	assert.Contains(t, out, "Source Port: 443")
	assert.Contains(t, out, "End of Session Statistics")
	assert.Contains(t, out, "10.0.0.1:443 <--> 10.0.0.2:51000 : 2\n")
	assert.Contains(t, out, "10.0.0.2 <--> 10.0.0.1 : 1\n")
	assert.Contains(t, out, "Total number of packets captured in the session: 3\n")
	assert.True(t, strings.HasSuffix(out, "Exiting....\n"))
	assert.NotContains(t, out, "capture started", "log records go to stderr, not the report stream")
}

func TestReplayJSONWithoutTrace(t *testing.T) {
	path := writeTrace(t, coretest.UDP("10.0.0.1", 5353, "10.0.0.2", 53))

	out, err := execute("--pcap-file", path, "--format", "json", "--trace=false")
	require.NoError(t, err)

	var r report.Report
	require.NoError(t, json.Unmarshal([]byte(out), &r))
	assert.True(t, r.Final)
	assert.NotEmpty(t, r.SessionID)
	assert.Equal(t, uint64(1), r.Total)
	require.Len(t, r.Flows, 1)
	assert.Equal(t, "10.0.0.1:5353 <--> 10.0.0.2:53", r.Flows[0].Flow)
}

func TestReplayWithBPF(t *testing.T) {
	path := writeTrace(t,
		coretest.UDP("10.0.0.1", 5353, "10.0.0.2", 53),
		coretest.TCP("10.0.0.1", 443, "10.0.0.2", 51000))

	out, err := execute("--pcap-file", path, "--bpf", "tcp", "--trace=false")
	require.NoError(t, err)
	assert.Contains(t, out, "10.0.0.1:443 <--> 10.0.0.2:51000 : 1\n")
	assert.NotContains(t, out, ":5353")
}

func TestMissingInterface(t *testing.T) {
	_, err := execute()
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrConfigInvalid))
}

func TestInvalidFormatFlag(t *testing.T) {
	_, err := execute("--format", "csv", "eth0")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrConfigInvalid))
}

func TestBindFailureIsReported(t *testing.T) {
	out, err := execute("flowsniff-missing0")
	require.Error(t, err)
	assert.True(t, errors.Is(err, core.ErrInterfaceUnavailable), "got %v", err)
	assert.NotContains(t, out, "End of Session Statistics")
}

func TestLoadConfigFlagOverrides(t *testing.T) {
	opts := &options{}
	root := newRootCommand(opts)
	require.NoError(t, root.ParseFlags([]string{"-i", "2s", "--trace=false", "--bpf", "udp"}))

	cfg, err := loadConfig(root, opts, []string{"eth3"})
	require.NoError(t, err)
	assert.Equal(t, "eth3", cfg.Capture.Interface)
	assert.Equal(t, config.SourceAFPacket, cfg.Capture.Source)
	assert.Equal(t, 2*time.Second, cfg.Report.Interval)
	assert.False(t, cfg.Report.Trace)
	assert.Equal(t, "udp", cfg.Capture.BPFFilter)
	assert.Equal(t, config.FormatText, cfg.Report.Format)
}

func TestLoadConfigPcapNamesInterface(t *testing.T) {
	opts := &options{}
	root := newRootCommand(opts)
	require.NoError(t, root.ParseFlags([]string{"--pcap-file", "/tmp/captures/edge.pcap"}))

	cfg, err := loadConfig(root, opts, nil)
	require.NoError(t, err)
	assert.Equal(t, config.SourcePcap, cfg.Capture.Source)
	assert.Equal(t, "edge.pcap", cfg.Capture.Interface)
}
