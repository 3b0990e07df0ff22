package output

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPublisher_NilConnectionIsNoop(t *testing.T) {
	p := NewPublisher(nil, "", nil)
	assert.Equal(t, DefaultSubject, p.subject)

	err := p.PublishRun(context.Background(), sampleRun())
	assert.NoError(t, err)
}

func TestPublisher_NilReceiverIsNoop(t *testing.T) {
	var p *Publisher
	err := p.PublishRun(context.Background(), sampleRun())
	assert.NoError(t, err)
}

func TestFindingMessage_WireFormat(t *testing.T) {
	msg := FindingMessage{
		RunID:    "run-0001",
		Path:     "svc/user.go",
		RuleID:   "naming-clarity",
		Severity: "warning",
		Line:     3,
		Column:   7,
		Message:  `identifier "q" is shorter than 2 characters`,
	}

	data, err := json.Marshal(msg)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, "run-0001", decoded["run_id"])
	assert.Equal(t, "naming-clarity", decoded["rule_id"])
	assert.Equal(t, float64(3), decoded["line"])
}

func TestFindingMessage_OmitsEmptyRuleID(t *testing.T) {
	msg := FindingMessage{
		RunID:    "run-0002",
		Path:     "broken.py",
		Severity: "error",
		Message:  "parse broken.py: syntax error",
	}

	data, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "rule_id")
}
