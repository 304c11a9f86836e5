package notify

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestRecorder(t *testing.T) {
	var r Recorder
	r.Loading("working")
	r.Dismiss()
	r.Success("done")
	r.Error("boom")

	assert.Equal(t, []Entry{
		{KindLoading, "working"},
		{KindDismiss, ""},
		{KindSuccess, "done"},
		{KindError, "boom"},
	}, r.Entries())
	assert.Equal(t, []string{"boom"}, r.Messages(KindError))

	r.Reset()
	assert.Empty(t, r.Entries())
}

func TestLogNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(zerolog.New(&buf))

	n.Success("Project published")
	n.Error("Project not found")

	out := buf.String()
	assert.Contains(t, out, `"kind":"success"`)
	assert.Contains(t, out, `"message":"Project published"`)
	assert.Contains(t, out, `"level":"error"`)
}
