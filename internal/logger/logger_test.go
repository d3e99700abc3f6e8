package logger

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

type recorder struct {
	lines []string
}

func (r *recorder) record(level, message string, keyvals []any) {
	r.lines = append(r.lines, fmt.Sprintf("%s %s %v", level, message, keyvals))
}

func (r *recorder) Debug(m string, kv ...any) { r.record("DEBUG", m, kv) }
func (r *recorder) Info(m string, kv ...any)  { r.record("INFO", m, kv) }
func (r *recorder) Warn(m string, kv ...any)  { r.record("WARN", m, kv) }
func (r *recorder) Error(m string, kv ...any) { r.record("ERROR", m, kv) }

func TestDispatch_AllInstances(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	Init(a, b)
	defer Reset()

	Info("loaded source", "name", "gemma", "triples", 12)
	Warn("missing field", "field", "tail")

	want := []string{
		"INFO loaded source [name gemma triples 12]",
		"WARN missing field [field tail]",
	}
	assert.Equal(t, want, a.lines)
	assert.Equal(t, want, b.lines)
}

func TestDispatch_NoopBeforeInit(t *testing.T) {
	Reset()
	assert.NotPanics(t, func() {
		Debug("x")
		Info("x")
		Warn("x")
		Error("x")
	})
}
