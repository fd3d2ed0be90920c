package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMergeQueueParamsExplicitWinsOverDefaults(t *testing.T) {
	explicit := map[string]string{"JOB_NAME": "myrun"}
	defaults := map[string]string{"JOB_NAME": "meridian", "JOB_TIME": "01:00:00"}

	merged := mergeQueueParams(explicit, defaults)

	assert.Equal(t, "myrun", merged["JOB_NAME"])
	assert.Equal(t, "01:00:00", merged["JOB_TIME"])
}

func TestMergeQueueParamsNilExplicitUsesDefaults(t *testing.T) {
	merged := mergeQueueParams(nil, map[string]string{"JOB_TIME": "02:00:00"})
	assert.Equal(t, "02:00:00", merged["JOB_TIME"])
}
