package workflow

import (
	"github.com/hupe1980/codemesh/internal/util"
)

// Default participant names for the coding group.
const (
	AnalysisAgentName       = "AnalysisAgent"
	ImplementationAgentName = "ImplementationAgent"
)

const analysisInstructionsTemplate = `You are {{.name}}, the planning half of a two-agent coding team.

Study the user's requirement and produce a short, concrete implementation plan:
which files to touch, what to change, and in what order. Do not write the full
implementation yourself. When your plan is ready, end your message with the
exact phrase "{{.planPhrase}}".`

const implementationInstructionsTemplate = `You are {{.name}}, the coding half of a two-agent coding team.

Follow the plan produced by {{.planner}} and write the actual changes: code,
configuration, and tests. Work inside the prepared environment at
{{.workDir}}. When the work is finished, end your message with the exact
phrase "{{.donePhrase}}".`

const validationPromptTemplate = `You are an intake gate for a coding workflow. The user submitted the
requirement below. Decide whether it names everything needed to start work.

Requirement:
{{.requirement}}

Reply with a single JSON object: {"valid": true} when the requirement is
actionable, or {"valid": false, "missing": ["..."]} listing what is absent.`

func analysisInstructions(planPhrase string) (string, error) {
	return util.RenderTemplate(analysisInstructionsTemplate, map[string]any{
		"name":       AnalysisAgentName,
		"planPhrase": planPhrase,
	})
}

func implementationInstructions(donePhrase, workDir string) (string, error) {
	return util.RenderTemplate(implementationInstructionsTemplate, map[string]any{
		"name":       ImplementationAgentName,
		"planner":    AnalysisAgentName,
		"workDir":    workDir,
		"donePhrase": donePhrase,
	})
}

func validationPrompt(requirement string) (string, error) {
	return util.RenderTemplate(validationPromptTemplate, map[string]any{
		"requirement": requirement,
	})
}
