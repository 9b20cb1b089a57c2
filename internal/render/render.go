package render

import (
	"fmt"
	"regexp"
	"strings"

	"hookrelay/internal/catalog"
	"hookrelay/internal/constants"
	"hookrelay/internal/logger"
)

var placeholderRegex = regexp.MustCompile(`\{([a-zA-Z0-9_.]+)\}`)

// Options controls payload preprocessing before substitution.
type Options struct {
	MaxCommitDisplay int
	TruncateComment  int
}

func DefaultOptions() Options {
	return Options{
		MaxCommitDisplay: constants.DefaultMaxCommitDisplay,
		TruncateComment:  constants.DefaultTruncateComment,
	}
}

// Renderer turns a raw webhook payload into the final chat message. A
// failed render is never an error: the event is dropped and the cause
// logged.
type Renderer struct {
	opts   Options
	logger logger.Logger
}

func New(opts Options, log logger.Logger) *Renderer {
	if opts.MaxCommitDisplay <= 0 {
		opts.MaxCommitDisplay = constants.DefaultMaxCommitDisplay
	}
	if opts.TruncateComment <= 0 {
		opts.TruncateComment = constants.DefaultTruncateComment
	}
	return &Renderer{opts: opts, logger: log}
}

// Render resolves the catalog pattern for the event and substitutes its
// placeholders against the preprocessed payload. The second return value is
// false when the event has no template, the action is unknown, or a
// placeholder cannot be resolved.
func (r *Renderer) Render(eventType string, payload map[string]interface{}) (string, bool) {
	action, _ := payload["action"].(string)

	pattern, ok := catalog.Lookup(eventType, action)
	if !ok {
		return "", false
	}

	processed := r.preprocess(eventType, payload)

	message, err := substitute(pattern, processed)
	if err != nil {
		r.logger.Warnw("Failed to render event",
			"event_type", eventType,
			"action", action,
			"error", err,
		)
		return "", false
	}

	return message, true
}

// preprocess derives the synthetic fields the catalog patterns reference
// without mutating the caller's payload.
func (r *Renderer) preprocess(eventType string, payload map[string]interface{}) map[string]interface{} {
	processed := make(map[string]interface{}, len(payload)+4)
	for k, v := range payload {
		processed[k] = v
	}

	if eventType == "push" {
		if commits, ok := payload["commits"].([]interface{}); ok {
			processed["pushes"] = r.formatCommits(commits)
			processed["commits_count"] = len(commits)
		}
	}

	if comment, ok := payload["comment"].(map[string]interface{}); ok {
		if body, ok := comment["body"].(string); ok {
			processed["comment_text"] = r.truncateComment(body)
		}
		if commitID, ok := comment["commit_id"].(string); ok {
			processed["comment_short_id"] = shortSHA(commitID)
		}
	}

	return processed
}

func (r *Renderer) formatCommits(commits []interface{}) string {
	display := commits
	if len(display) > r.opts.MaxCommitDisplay {
		display = display[:r.opts.MaxCommitDisplay]
	}

	lines := make([]string, 0, len(display))
	for _, c := range display {
		commit, ok := c.(map[string]interface{})
		if !ok {
			continue
		}
		id, _ := commit["id"].(string)
		message, _ := commit["message"].(string)
		lines = append(lines, fmt.Sprintf("  [%s] %s", shortSHA(id), firstLine(message)))
	}

	text := strings.Join(lines, "\n")
	if len(commits) > r.opts.MaxCommitDisplay {
		text += fmt.Sprintf("\n  ... and %d more", len(commits)-r.opts.MaxCommitDisplay)
	}
	return text
}

func (r *Renderer) truncateComment(body string) string {
	runes := []rune(body)
	if len(runes) <= r.opts.TruncateComment {
		return body
	}
	return string(runes[:r.opts.TruncateComment]) + "..."
}

func shortSHA(id string) string {
	if len(id) > 7 {
		return id[:7]
	}
	return id
}

func firstLine(message string) string {
	if idx := strings.IndexByte(message, '\n'); idx >= 0 {
		return message[:idx]
	}
	return message
}

// substitute replaces every `{dotted.path}` placeholder with the value found
// at that path in the data tree. The first unresolvable path aborts the
// whole substitution.
func substitute(pattern string, data map[string]interface{}) (string, error) {
	var missing string

	result := placeholderRegex.ReplaceAllStringFunc(pattern, func(match string) string {
		if missing != "" {
			return match
		}
		path := match[1 : len(match)-1]
		value, ok := resolvePath(data, path)
		if !ok {
			missing = path
			return match
		}
		return formatValue(value)
	})

	if missing != "" {
		return "", fmt.Errorf("field not found: %s", missing)
	}
	return result, nil
}

func resolvePath(data map[string]interface{}, path string) (interface{}, bool) {
	parts := strings.Split(path, ".")

	var current interface{} = data
	for _, part := range parts {
		node, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		current, ok = node[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

func formatValue(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		// JSON numbers decode as float64; render integral values without
		// a trailing fraction.
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprint(v)
	default:
		return fmt.Sprint(v)
	}
}
