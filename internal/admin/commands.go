package admin

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"hookrelay/internal/relay"
)

// Commands is the administrative surface a chat front-end drives. Every
// method maps onto one registration-store or listener operation and returns
// a human-readable confirmation or error string.
type Commands struct {
	server *relay.Server
}

func NewCommands(server *relay.Server) *Commands {
	return &Commands{server: server}
}

func (c *Commands) Start(ctx context.Context) string {
	if c.server.IsRunning() {
		// Still record the intent: the listener can be considered running
		// from a busy-port start while the stored flag says disabled, and
		// auto-start after a restart depends on the flag.
		c.server.Store().SetEnabled(true)
		return "✅ Server is already running"
	}

	if err := c.server.Start(ctx); err != nil {
		return "❌ Failed to start server: " + err.Error()
	}
	c.server.Store().SetEnabled(true)

	stats := c.server.Stats()
	return fmt.Sprintf("✅ Server started on %s\nTarget groups: %s\nRegistered subscribers: %d",
		c.server.Addr(), formatDestinations(c.server.Store().Destinations()), stats.RegisteredSubscribers)
}

func (c *Commands) Stop() string {
	if !c.server.IsRunning() {
		return "Server is not running"
	}

	if err := c.server.Stop(); err != nil {
		return "❌ Failed to stop server: " + err.Error()
	}
	c.server.Store().SetEnabled(false)
	return "✅ Server stopped"
}

func (c *Commands) Status() string {
	if !c.server.IsRunning() {
		return "Status: 🔴 Stopped"
	}

	stats := c.server.Stats()
	var b strings.Builder
	b.WriteString("Status: 🟢 Running\n")
	fmt.Fprintf(&b, "Address: %s\n", c.server.Addr())
	fmt.Fprintf(&b, "Groups: %s\n", formatDestinations(c.server.Store().Destinations()))
	fmt.Fprintf(&b, "Registered subscribers: %d\n", stats.RegisteredSubscribers)
	fmt.Fprintf(&b, "Requests: %d", stats.TotalRequests)
	return b.String()
}

func (c *Commands) Stats() string {
	stats := c.server.Stats()

	var b strings.Builder
	b.WriteString("📊 Statistics:\n")
	fmt.Fprintf(&b, "Total requests: %d\n", stats.TotalRequests)
	fmt.Fprintf(&b, "✅ Successful: %d\n", stats.SuccessfulRequests)
	fmt.Fprintf(&b, "❌ Failed: %d\n\n", stats.FailedRequests)
	b.WriteString("Events received:")

	type eventCount struct {
		eventType string
		count     int64
	}
	events := make([]eventCount, 0, len(stats.EventsByType))
	for eventType, count := range stats.EventsByType {
		events = append(events, eventCount{eventType, count})
	}
	sort.Slice(events, func(i, j int) bool {
		if events[i].count != events[j].count {
			return events[i].count > events[j].count
		}
		return events[i].eventType < events[j].eventType
	})
	for _, e := range events {
		fmt.Fprintf(&b, "\n  %s: %d", e.eventType, e.count)
	}

	return b.String()
}

func (c *Commands) AddDestination(id int64) string {
	if !c.server.Store().AddDestination(id) {
		return fmt.Sprintf("Group %d is already a destination", id)
	}
	return fmt.Sprintf("✅ Added destination group %d", id)
}

func (c *Commands) RemoveDestination(id int64) string {
	if !c.server.Store().RemoveDestination(id) {
		return fmt.Sprintf("Group %d is not a destination", id)
	}
	return fmt.Sprintf("✅ Removed destination group %d", id)
}

func (c *Commands) ListDestinations() string {
	destinations := c.server.Store().Destinations()
	if len(destinations) == 0 {
		return "No destination groups configured"
	}
	return "Destination groups: " + formatDestinations(destinations)
}

func (c *Commands) AddEvent(eventType string) string {
	if !c.server.Store().AddEvent(eventType) {
		return fmt.Sprintf("Event %q is already enabled", eventType)
	}
	return fmt.Sprintf("✅ Enabled event %q", eventType)
}

func (c *Commands) RemoveEvent(eventType string) string {
	if !c.server.Store().RemoveEvent(eventType) {
		return fmt.Sprintf("Event %q is not enabled", eventType)
	}
	return fmt.Sprintf("✅ Disabled event %q", eventType)
}

func (c *Commands) ListEvents() string {
	events := c.server.Store().Events()
	if len(events) == 0 {
		return "No events enabled"
	}
	return "Enabled events: " + strings.Join(events, ", ")
}

func (c *Commands) Help() string {
	return strings.TrimSpace(`
🤖 Webhook Relay Commands:

start - Start webhook listener
stop - Stop webhook listener
status - Show server status
stats - Show statistics
add-destination <id> - Add a destination group
remove-destination <id> - Remove a destination group
list-destinations - List destination groups
add-event <type> - Enable an event type
remove-event <type> - Disable an event type
list-events - List enabled event types
help - Show this help
`)
}

func formatDestinations(destinations []int64) string {
	if len(destinations) == 0 {
		return "(none)"
	}
	parts := make([]string, len(destinations))
	for i, id := range destinations {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return strings.Join(parts, ", ")
}
