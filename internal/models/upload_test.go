package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindForContentType(t *testing.T) {
	kind, ok := KindForContentType("audio/mpeg")
	assert.True(t, ok)
	assert.Equal(t, KindAudio, kind)

	kind, ok = KindForContentType("video/mp4")
	assert.True(t, ok)
	assert.Equal(t, KindVideo, kind)

	_, ok = KindForContentType("application/pdf")
	assert.False(t, ok)

	_, ok = KindForContentType("")
	assert.False(t, ok)
}

func TestPartitionNames(t *testing.T) {
	assert.Equal(t, "audio_files", KindAudio.Partition())
	assert.Equal(t, "video_files", KindVideo.Partition())
}

func TestJobStateTerminal(t *testing.T) {
	assert.False(t, JobProcessing.Terminal())
	assert.True(t, JobSuccess.Terminal())
	assert.True(t, JobFailed.Terminal())
}
