package job

import (
	"testing"
	"time"

	"github.com/robfig/cron"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopoffCronSpecFiresAtTwo(t *testing.T) {
	sched, err := cron.Parse(TopoffCronSpec)
	require.NoError(t, err)

	next := sched.Next(time.Date(2026, 3, 5, 9, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2026, 3, 6, 2, 0, 0, 0, time.UTC), next)
}
