package exitcodes

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWorst(t *testing.T) {
	assert.Equal(t, Success, Worst())
	assert.Equal(t, Success, Worst(Success, Success))
	assert.Equal(t, TestFailure, Worst(Success, TestFailure))
	assert.Equal(t, BaselineErr, Worst(TestFailure, BaselineErr))
	assert.Equal(t, Drift, Worst(Drift, TestFailure, BaselineErr))
	assert.Equal(t, ConfigErr, Worst(Drift, ConfigErr, BaselineErr))
	assert.Equal(t, Interrupted, Worst(ConfigErr, Interrupted, TestFailure))
}
