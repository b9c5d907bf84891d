package prometheus

import (
	"testing"
	"time"

	"github.com/marmos91/dittofd/pkg/errno"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestSyscallMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewSyscallMetricsWith(reg).(*syscallMetrics)

	m.RecordSyscall("read", time.Millisecond, nil)
	m.RecordSyscall("read", time.Millisecond, errno.EBADF)
	m.RecordSyscall("read", time.Millisecond, errno.Wrap(errno.EIO, assert.AnError))
	m.RecordSyscall("lseek", time.Millisecond, errno.ESPIPE)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.callsTotal.WithLabelValues("read", "OK")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.callsTotal.WithLabelValues("read", "EBADF")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.callsTotal.WithLabelValues("read", "EIO")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.callsTotal.WithLabelValues("lseek", "ESPIPE")))

	m.RecordBytes("write", 5)
	m.RecordBytes("write", 0)
	m.RecordBytes("write", 3)
	assert.Equal(t, 8.0, testutil.ToFloat64(m.bytesTransferred.WithLabelValues("write")))

	m.HandleOpened()
	m.HandleOpened()
	m.HandleClosed()
	assert.Equal(t, 1.0, testutil.ToFloat64(m.openHandles))
}

func TestNewSyscallMetrics_DisabledIsNoop(t *testing.T) {
	m := NewSyscallMetrics()
	_, isProm := m.(*syscallMetrics)
	assert.False(t, isProm)

	m.RecordSyscall("open", time.Millisecond, nil)
	m.HandleOpened()
}
