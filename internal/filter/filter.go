package filter

import (
	"context"
	"fmt"

	"github.com/google/cel-go/cel"

	"hookrelay/internal/config"
	"hookrelay/internal/constants"
	"hookrelay/internal/logger"
	"hookrelay/pkg/metrics"
)

type rule struct {
	expression string
	program    cel.Program
}

// Engine evaluates configured CEL expressions against inbound events. An
// event matching any rule is dropped before rendering. Expressions see
// `event_type`, `action` and the raw `payload` map and must produce a bool.
type Engine struct {
	rules   []rule
	onError string
	logger  logger.Logger
}

func NewEngine(cfg config.FilterConfig, log logger.Logger) (*Engine, error) {
	env, err := cel.NewEnv(
		cel.Variable("event_type", cel.StringType),
		cel.Variable("action", cel.StringType),
		cel.Variable("payload", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}

	rules := make([]rule, 0, len(cfg.Rules))
	for _, expression := range cfg.Rules {
		ast, issues := env.Compile(expression)
		if issues != nil && issues.Err() != nil {
			return nil, fmt.Errorf("failed to compile filter rule %q: %w", expression, issues.Err())
		}
		if ast.OutputType() != cel.BoolType {
			return nil, fmt.Errorf("filter rule %q must return bool, got %v", expression, ast.OutputType())
		}

		program, err := env.Program(ast)
		if err != nil {
			return nil, fmt.Errorf("failed to create CEL program for %q: %w", expression, err)
		}
		rules = append(rules, rule{expression: expression, program: program})
	}

	onError := cfg.OnError
	if onError == "" {
		onError = constants.FallbackAllow
	}

	return &Engine{
		rules:   rules,
		onError: onError,
		logger:  log,
	}, nil
}

// Matches reports whether any rule drops the event. An evaluation error
// falls back per the configured on_error policy.
func (e *Engine) Matches(ctx context.Context, eventType, action string, payload map[string]interface{}) bool {
	if len(e.rules) == 0 {
		return false
	}

	vars := map[string]interface{}{
		"event_type": eventType,
		"action":     action,
		"payload":    payload,
	}

	for _, r := range e.rules {
		result, _, err := r.program.ContextEval(ctx, vars)
		if err != nil {
			if e.handleEvaluationError(ctx, r, err) {
				return true
			}
			continue
		}

		matched, ok := result.Value().(bool)
		if !ok {
			if e.handleEvaluationError(ctx, r, fmt.Errorf("rule did not return bool, got %T", result.Value())) {
				return true
			}
			continue
		}

		if matched {
			e.logger.DebugwCtx(ctx, "Filter rule matched event",
				"rule", r.expression,
				"event_type", eventType,
			)
			return true
		}
	}

	return false
}

// handleEvaluationError returns true when the fallback policy drops the
// event.
func (e *Engine) handleEvaluationError(ctx context.Context, r rule, err error) bool {
	e.logger.ErrorwCtx(ctx, "Filter rule evaluation error",
		"rule", r.expression,
		"error", err,
	)

	if e.onError == constants.FallbackDeny {
		metrics.FallbackUsageTotal.WithLabelValues("filter", "deny_on_error", "evaluation_error").Inc()
		return true
	}

	metrics.FallbackUsageTotal.WithLabelValues("filter", "allow_on_error", "evaluation_error").Inc()
	return false
}

func (e *Engine) RuleCount() int {
	return len(e.rules)
}
