package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEventTypes(t *testing.T) {
	types := EventTypes()
	assert.Len(t, types, 11)
	assert.Contains(t, types, "ping")
	assert.Contains(t, types, "push")
	assert.Contains(t, types, "commit_comment")
}

func TestLookup(t *testing.T) {
	tests := []struct {
		name      string
		eventType string
		action    string
		found     bool
	}{
		{"single pattern ignores action", "ping", "", true},
		{"single pattern with stray action", "push", "whatever", true},
		{"action keyed hit", "star", "created", true},
		{"action keyed miss", "star", "labeled", false},
		{"action keyed empty action", "issues", "", false},
		{"unknown event type", "workflow_run", "completed", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pattern, found := Lookup(tt.eventType, tt.action)
			assert.Equal(t, tt.found, found)
			if found {
				assert.NotEmpty(t, pattern)
			}
		})
	}
}

func TestEveryEventTypeHasTemplate(t *testing.T) {
	for _, eventType := range EventTypes() {
		actions := Actions(eventType)
		if actions == nil {
			_, found := Lookup(eventType, "")
			assert.True(t, found, "event type %s has no pattern", eventType)
			continue
		}
		for _, action := range actions {
			_, found := Lookup(eventType, action)
			assert.True(t, found, "event %s action %s has no pattern", eventType, action)
		}
	}
}

func TestActionSubKeys(t *testing.T) {
	assert.ElementsMatch(t, []string{"created", "deleted"}, Actions("star"))
	assert.ElementsMatch(t, []string{"opened", "closed", "reopened"}, Actions("issues"))
	assert.ElementsMatch(t, []string{"created", "edited", "deleted"}, Actions("issue_comment"))
	assert.ElementsMatch(t, []string{"opened", "closed", "reopened", "merged"}, Actions("pull_request"))
	assert.ElementsMatch(t, []string{"published", "created"}, Actions("release"))
	assert.ElementsMatch(t, []string{"created"}, Actions("commit_comment"))
	assert.Nil(t, Actions("ping"))
	assert.Nil(t, Actions("push"))
}
