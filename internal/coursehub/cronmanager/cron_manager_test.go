package cronmanager

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadJobs(t *testing.T) {
	cm := NewCronManager(JobRegistry{
		"media_sweeper": {Func: func() {}, Schedule: "0 3 * * *"},
		"broken":        {Func: func() {}, Schedule: "every tuesday"},
	})

	err := cm.LoadJobs()
	assert.ErrorContains(t, err, "broken")
	assert.Equal(t, []string{"media_sweeper"}, cm.Jobs())

	assert.Error(t, cm.LoadJobs(), "reload keeps reporting the broken job")
	assert.Equal(t, []string{"media_sweeper"}, cm.Jobs(), "reload does not duplicate entries")
}

func TestStartStop(t *testing.T) {
	cm := NewCronManager(JobRegistry{"noop": {Func: func() {}, Schedule: "@daily"}})
	assert.NoError(t, cm.LoadJobs())
	cm.Start()
	cm.Stop()
}
