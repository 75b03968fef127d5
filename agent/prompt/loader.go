// Package prompt composes the static instructional preamble for a collection
// session. The template is a versioned artifact, not executable logic; it
// frames responder output and never affects policy results.
package prompt

import (
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	contractx "github.com/paylane/collections-agent/agent/contract"
	customerx "github.com/paylane/collections-agent/agent/customer"
)

//go:embed template/collector.txt
var collectorRaw string

var collectorTemplate = template.Must(
	template.New("collector").Parse(strings.TrimSpace(collectorRaw)),
)

type composeInput struct {
	Customer *customerx.Profile
	Tools    []contractx.ToolSpec
}

// Compose renders the system preamble for one customer: identity, guardrails
// and the closed capability list. Called once per session.
func Compose(customer *customerx.Profile, tools []contractx.ToolSpec) (string, error) {
	var b strings.Builder
	err := collectorTemplate.Execute(&b, composeInput{
		Customer: customer,
		Tools:    tools,
	})
	if err != nil {
		return "", fmt.Errorf("render collector prompt: %w", err)
	}
	return b.String(), nil
}
