package render

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hookrelay/internal/logger"
)

func newTestRenderer() *Renderer {
	return New(DefaultOptions(), logger.NopLogger())
}

func basePayload() map[string]interface{} {
	return map[string]interface{}{
		"repository": map[string]interface{}{
			"full_name":        "octo/repo",
			"stargazers_count": float64(5),
			"forks_count":      float64(3),
		},
		"sender": map[string]interface{}{
			"login": "alice",
		},
	}
}

func TestRenderPing(t *testing.T) {
	r := newTestRenderer()

	message, ok := r.Render("ping", map[string]interface{}{})
	require.True(t, ok)
	assert.Equal(t, "🏓 Webhook connection test successful!", message)
}

func TestRenderUnknownEventType(t *testing.T) {
	r := newTestRenderer()

	_, ok := r.Render("workflow_run", basePayload())
	assert.False(t, ok)
}

func TestRenderUnknownAction(t *testing.T) {
	r := newTestRenderer()

	payload := basePayload()
	payload["action"] = "labeled"

	_, ok := r.Render("issues", payload)
	assert.False(t, ok)
}

func TestRenderMissingAction(t *testing.T) {
	r := newTestRenderer()

	// star is action-keyed; a payload without an action renders nothing.
	_, ok := r.Render("star", basePayload())
	assert.False(t, ok)
}

func TestRenderMissingField(t *testing.T) {
	r := newTestRenderer()

	payload := map[string]interface{}{
		"action": "created",
		"sender": map[string]interface{}{"login": "alice"},
	}

	_, ok := r.Render("star", payload)
	assert.False(t, ok)
}

func TestRenderStarCreated(t *testing.T) {
	r := newTestRenderer()

	payload := basePayload()
	payload["action"] = "created"

	message, ok := r.Render("star", payload)
	require.True(t, ok)
	assert.Contains(t, message, "octo/repo")
	assert.Contains(t, message, "alice")
	assert.Contains(t, message, "5")
	assert.Contains(t, message, "starred")
}

func TestRenderTemplateCoverage(t *testing.T) {
	r := newTestRenderer()

	tests := []struct {
		eventType string
		actions   []string
		payload   func() map[string]interface{}
		want      []string
	}{
		{
			eventType: "ping",
			payload:   func() map[string]interface{} { return map[string]interface{}{} },
			want:      []string{"Webhook connection test"},
		},
		{
			eventType: "push",
			payload: func() map[string]interface{} {
				p := basePayload()
				p["ref"] = "refs/heads/main"
				p["pusher"] = map[string]interface{}{"name": "alice"}
				p["commits"] = []interface{}{
					map[string]interface{}{"id": "0123456789abcdef", "message": "fix: things"},
				}
				return p
			},
			want: []string{"octo/repo", "alice", "refs/heads/main", "0123456", "fix: things"},
		},
		{
			eventType: "star",
			actions:   []string{"created", "deleted"},
			payload: func() map[string]interface{} {
				return basePayload()
			},
			want: []string{"octo/repo", "alice", "5"},
		},
		{
			eventType: "fork",
			payload:   basePayload,
			want:      []string{"octo/repo", "alice", "3"},
		},
		{
			eventType: "create",
			payload: func() map[string]interface{} {
				p := basePayload()
				p["ref"] = "v1.0.0"
				p["ref_type"] = "tag"
				return p
			},
			want: []string{"octo/repo", "alice", "tag", "v1.0.0"},
		},
		{
			eventType: "delete",
			payload: func() map[string]interface{} {
				p := basePayload()
				p["ref"] = "old-branch"
				p["ref_type"] = "branch"
				return p
			},
			want: []string{"octo/repo", "alice", "branch", "old-branch"},
		},
		{
			eventType: "issues",
			actions:   []string{"opened", "closed", "reopened"},
			payload: func() map[string]interface{} {
				p := basePayload()
				p["issue"] = map[string]interface{}{
					"number":   float64(42),
					"title":    "Something broke",
					"html_url": "https://example.com/i/42",
				}
				return p
			},
			want: []string{"octo/repo", "alice", "42", "Something broke"},
		},
		{
			eventType: "issue_comment",
			actions:   []string{"created", "edited", "deleted"},
			payload: func() map[string]interface{} {
				p := basePayload()
				p["issue"] = map[string]interface{}{"number": float64(42)}
				p["comment"] = map[string]interface{}{"body": "nice catch"}
				return p
			},
			want: []string{"octo/repo", "alice", "42"},
		},
		{
			eventType: "pull_request",
			actions:   []string{"opened", "closed", "reopened", "merged"},
			payload: func() map[string]interface{} {
				p := basePayload()
				p["pull_request"] = map[string]interface{}{
					"number":   float64(7),
					"title":    "Add feature",
					"html_url": "https://example.com/p/7",
				}
				return p
			},
			want: []string{"octo/repo", "alice", "7", "Add feature"},
		},
		{
			eventType: "release",
			actions:   []string{"published", "created"},
			payload: func() map[string]interface{} {
				p := basePayload()
				p["release"] = map[string]interface{}{
					"tag_name": "v2.0.0",
					"name":     "Big Release",
					"html_url": "https://example.com/r/v2",
				}
				return p
			},
			want: []string{"octo/repo", "v2.0.0", "Big Release"},
		},
		{
			eventType: "commit_comment",
			actions:   []string{"created"},
			payload: func() map[string]interface{} {
				p := basePayload()
				p["comment"] = map[string]interface{}{
					"body":      "looks good",
					"commit_id": "0123456789abcdef",
				}
				return p
			},
			want: []string{"octo/repo", "alice", "0123456"},
		},
	}

	for _, tt := range tests {
		actions := tt.actions
		if actions == nil {
			actions = []string{""}
		}
		for _, action := range actions {
			name := tt.eventType
			if action != "" {
				name = fmt.Sprintf("%s/%s", tt.eventType, action)
			}
			t.Run(name, func(t *testing.T) {
				payload := tt.payload()
				if action != "" {
					payload["action"] = action
				}

				message, ok := r.Render(tt.eventType, payload)
				require.True(t, ok)
				require.NotEmpty(t, message)

				for _, want := range tt.want {
					assert.Contains(t, message, want)
				}
			})
		}
	}
}

func TestRenderCommitTruncation(t *testing.T) {
	r := New(Options{MaxCommitDisplay: 5, TruncateComment: 100}, logger.NopLogger())

	commits := make([]interface{}, 0, 8)
	for i := 0; i < 8; i++ {
		commits = append(commits, map[string]interface{}{
			"id":      fmt.Sprintf("%08dabcdef", i),
			"message": fmt.Sprintf("commit %d\nbody line", i),
		})
	}

	payload := basePayload()
	payload["ref"] = "refs/heads/main"
	payload["pusher"] = map[string]interface{}{"name": "alice"}
	payload["commits"] = commits

	message, ok := r.Render("push", payload)
	require.True(t, ok)

	assert.Contains(t, message, "pushed 8 commit(s)")
	assert.Contains(t, message, "... and 3 more")
	assert.Contains(t, message, "commit 0")
	assert.Contains(t, message, "commit 4")
	assert.NotContains(t, message, "commit 5")
	assert.NotContains(t, message, "body line")

	// Exactly five commit lines rendered.
	assert.Equal(t, 5, strings.Count(message, "  ["))
}

func TestRenderCommentTruncation(t *testing.T) {
	r := New(Options{MaxCommitDisplay: 5, TruncateComment: 100}, logger.NopLogger())

	long := strings.Repeat("x", 150)
	short := strings.Repeat("y", 50)

	payload := basePayload()
	payload["action"] = "created"
	payload["issue"] = map[string]interface{}{"number": float64(1)}
	payload["comment"] = map[string]interface{}{"body": long}

	message, ok := r.Render("issue_comment", payload)
	require.True(t, ok)
	assert.Contains(t, message, strings.Repeat("x", 100)+"...")
	assert.NotContains(t, message, strings.Repeat("x", 101))

	payload["comment"] = map[string]interface{}{"body": short}
	message, ok = r.Render("issue_comment", payload)
	require.True(t, ok)
	assert.Contains(t, message, short)
	assert.NotContains(t, message, short+"...")
}

func TestResolvePath(t *testing.T) {
	data := map[string]interface{}{
		"repository": map[string]interface{}{
			"owner": map[string]interface{}{"login": "alice"},
		},
		"count": float64(3),
	}

	tests := []struct {
		path  string
		want  interface{}
		found bool
	}{
		{"repository.owner.login", "alice", true},
		{"count", float64(3), true},
		{"repository.missing", nil, false},
		{"repository.owner.login.deeper", nil, false},
		{"absent", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			value, found := resolvePath(data, tt.path)
			assert.Equal(t, tt.found, found)
			if tt.found {
				assert.Equal(t, tt.want, value)
			}
		})
	}
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "5", formatValue(float64(5)))
	assert.Equal(t, "5.5", formatValue(float64(5.5)))
	assert.Equal(t, "text", formatValue("text"))
	assert.Equal(t, "true", formatValue(true))
}
