package catalog

// Template describes how one webhook event type is rendered. An event type
// either has a single pattern or a set of per-action patterns, never both.
type Template struct {
	Pattern string
	Actions map[string]string
}

// Patterns interpolate `{dotted.path}` placeholders against the event
// payload plus the derived fields computed by the renderer (`pushes`,
// `commits_count`, `comment_text`, `comment_short_id`).
var templates = map[string]Template{
	"ping": {Pattern: "🏓 Webhook connection test successful!"},
	"push": {Pattern: "📮 [{repository.full_name}] {pusher.name} pushed {commits_count} commit(s) to {ref}:\n{pushes}"},
	"star": {Actions: map[string]string{
		"created": "💗 [{repository.full_name}] {sender.login} starred the repository! Total: {repository.stargazers_count}⭐",
		"deleted": "💔 [{repository.full_name}] {sender.login} unstarred the repository. Total: {repository.stargazers_count}⭐",
	}},
	"fork":   {Pattern: "🍴 [{repository.full_name}] {sender.login} forked the repository! Total: {repository.forks_count}🍴"},
	"create": {Pattern: "🆕 [{repository.full_name}] {sender.login} created {ref_type}: {ref}"},
	"delete": {Pattern: "🗑️ [{repository.full_name}] {sender.login} deleted {ref_type}: {ref}"},
	"issues": {Actions: map[string]string{
		"opened":   "📝 [{repository.full_name}] {sender.login} opened issue #{issue.number}: {issue.title}\n🔗 {issue.html_url}",
		"closed":   "✅ [{repository.full_name}] {sender.login} closed issue #{issue.number}: {issue.title}",
		"reopened": "🔄 [{repository.full_name}] {sender.login} reopened issue #{issue.number}: {issue.title}",
	}},
	"issue_comment": {Actions: map[string]string{
		"created": "💬 [{repository.full_name}] {sender.login} commented on issue #{issue.number}:\n{comment_text}",
		"edited":  "✏️ [{repository.full_name}] {sender.login} edited comment on issue #{issue.number}",
		"deleted": "🗑️ [{repository.full_name}] {sender.login} deleted comment on issue #{issue.number}",
	}},
	"pull_request": {Actions: map[string]string{
		"opened":   "🔀 [{repository.full_name}] {sender.login} opened PR #{pull_request.number}: {pull_request.title}\n🔗 {pull_request.html_url}",
		"closed":   "✅ [{repository.full_name}] {sender.login} closed PR #{pull_request.number}: {pull_request.title}",
		"reopened": "🔄 [{repository.full_name}] {sender.login} reopened PR #{pull_request.number}: {pull_request.title}",
		"merged":   "🎉 [{repository.full_name}] {sender.login} merged PR #{pull_request.number}: {pull_request.title}",
	}},
	"release": {Actions: map[string]string{
		"published": "🚀 [{repository.full_name}] Released {release.tag_name}: {release.name}\n🔗 {release.html_url}",
		"created":   "📦 [{repository.full_name}] Created release {release.tag_name}: {release.name}",
	}},
	"commit_comment": {Actions: map[string]string{
		"created": "💭 [{repository.full_name}] {sender.login} commented on commit {comment_short_id}",
	}},
}

// EventTypes returns the list of known event types in a stable order. It is
// also the default enabled-event set for a fresh registration store.
func EventTypes() []string {
	return []string{
		"push", "star", "fork", "issues", "issue_comment",
		"pull_request", "release", "create", "delete",
		"commit_comment", "ping",
	}
}

// Lookup resolves the pattern for an event type and action. An action-keyed
// template with an unknown or empty action resolves to nothing; the event is
// silently dropped by the renderer.
func Lookup(eventType, action string) (string, bool) {
	tmpl, ok := templates[eventType]
	if !ok {
		return "", false
	}

	if tmpl.Actions == nil {
		return tmpl.Pattern, true
	}

	pattern, ok := tmpl.Actions[action]
	return pattern, ok
}

// Actions returns the action sub-keys for an event type, nil for
// single-pattern types.
func Actions(eventType string) []string {
	tmpl, ok := templates[eventType]
	if !ok || tmpl.Actions == nil {
		return nil
	}
	actions := make([]string, 0, len(tmpl.Actions))
	for action := range tmpl.Actions {
		actions = append(actions, action)
	}
	return actions
}
