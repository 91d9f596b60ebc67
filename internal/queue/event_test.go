package queue

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// The queue name is a wire contract with already-deployed brokers;
// renaming it would strand persisted messages.
func TestVerificationQueueName(t *testing.T) {
	assert.Equal(t, "email.verification", VerificationQueueName)
}
