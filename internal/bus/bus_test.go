package bus

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArticleMessage_RoundTrips(t *testing.T) {
	msg := articleMessage{ArticleID: "article-123"}

	data, err := json.Marshal(msg)
	require.NoError(t, err)

	var decoded articleMessage
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, msg, decoded)
}

func TestSignalMessage_CarriesSurgeFlag(t *testing.T) {
	msg := signalMessage{SignalID: "signal-1", IsSurge: true}

	data, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"is_surge":true`)
}

func TestStreamSubjects_AreDistinct(t *testing.T) {
	subjects := []string{subjectArticles, subjectEvents, subjectSignals, subjectArticlesDLQ, subjectEventsDLQ}
	seen := make(map[string]bool)
	for _, s := range subjects {
		assert.False(t, seen[s], "duplicate subject: %s", s)
		seen[s] = true
	}
}
