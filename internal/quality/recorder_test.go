package quality

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
)

func newTestRecorder() *Recorder {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return NewRecorder(log)
}

func TestRecorderAccumulates(t *testing.T) {
	r := newTestRecorder()
	r.Record("req-1", map[string]int{"XYZ": 2, "ABC": 1})
	r.Record("req-2", map[string]int{"XYZ": 3})
	r.Record("req-3", nil)

	counts := r.Flush()
	assert.Equal(t, map[string]int64{"XYZ": 5, "ABC": 1}, counts)
}

func TestRecorderFlushResets(t *testing.T) {
	r := newTestRecorder()
	r.Record("req-1", map[string]int{"XYZ": 1})
	r.Flush()
	assert.Empty(t, r.Flush())
}
