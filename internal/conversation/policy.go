package conversation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/atendeai/assistant/internal/clinic"
)

// PolicyBranch names which rule produced the final reply. Exposed for
// metrics and the transcript log.
type PolicyBranch string

const (
	BranchOutOfHours  PolicyBranch = "out_of_hours"
	BranchGreeting    PolicyBranch = "greeting"
	BranchFarewell    PolicyBranch = "farewell"
	BranchPassthrough PolicyBranch = "passthrough"
)

// PolicyInput carries the booleans and draft reply the policy composes.
type PolicyInput struct {
	Draft        string
	Open         bool
	FirstContact bool
	Farewell     bool
	CallerName   string
}

// PolicyResult is the composed outbound reply.
type PolicyResult struct {
	Text   string
	Branch PolicyBranch
	// TemplateErr reports malformed template placeholders. The reply is still
	// usable (placeholders are stripped); the caller should log it.
	TemplateErr error
}

// TemplateError reports unknown placeholders found while rendering a
// clinic template.
type TemplateError struct {
	Placeholders []string
}

func (e *TemplateError) Error() string {
	return fmt.Sprintf("conversation: unknown template placeholders %v", e.Placeholders)
}

// ApplyPolicy decides the final reply from the clinic templates and the
// draft LLM output. Precedence is fixed and only one branch applies:
//
//  1. Out of hours → the out-of-hours template replaces the draft entirely.
//  2. First contact of the day → greeting prefixed onto the draft.
//  3. Farewell detected → farewell appended after the draft.
//  4. Otherwise → the draft unchanged.
func ApplyPolicy(in PolicyInput, cfg *clinic.ClinicConfig) PolicyResult {
	switch {
	case !in.Open:
		text, err := RenderTemplate(cfg.OutOfHoursTemplate, in.CallerName)
		return PolicyResult{Text: text, Branch: BranchOutOfHours, TemplateErr: err}

	case in.FirstContact:
		greeting, err := RenderTemplate(cfg.GreetingTemplate, in.CallerName)
		text := greeting
		if in.Draft != "" {
			text = greeting + "\n\n" + in.Draft
		}
		return PolicyResult{Text: text, Branch: BranchGreeting, TemplateErr: err}

	case in.Farewell:
		farewell, err := RenderTemplate(cfg.FarewellTemplate, in.CallerName)
		text := farewell
		if in.Draft != "" {
			text = in.Draft + "\n\n" + farewell
		}
		return PolicyResult{Text: text, Branch: BranchFarewell, TemplateErr: err}

	default:
		return PolicyResult{Text: in.Draft, Branch: BranchPassthrough}
	}
}

var (
	nameBeforeRe   = regexp.MustCompile(`[,;]\s*\{name\}`)
	nameAfterRe    = regexp.MustCompile(`\{name\}[,;]\s*`)
	nameBareRe     = regexp.MustCompile(`\s*\{name\}`)
	placeholderRe  = regexp.MustCompile(`\{[^{}\s]*\}`)
	doubleSpaceRe  = regexp.MustCompile(`[ \t]{2,}`)
	spaceBeforePct = regexp.MustCompile(`[ \t]+([!?.,;:])`)
)

// RenderTemplate substitutes the {name} placeholder. When the caller name is
// unknown, the token collapses together with adjacent connector punctuation
// (", {name}") so no dangling comma or literal placeholder leaks into the
// reply. Any other {placeholder} token is stripped and reported through a
// TemplateError; rendering never fails the turn.
func RenderTemplate(template, callerName string) (string, error) {
	out := template

	if callerName != "" {
		out = strings.ReplaceAll(out, "{name}", callerName)
	} else {
		out = nameBeforeRe.ReplaceAllString(out, "")
		out = nameAfterRe.ReplaceAllString(out, "")
		out = nameBareRe.ReplaceAllString(out, "")
	}

	var err error
	if leftovers := placeholderRe.FindAllString(out, -1); len(leftovers) > 0 {
		err = &TemplateError{Placeholders: leftovers}
		out = placeholderRe.ReplaceAllString(out, "")
	}

	out = doubleSpaceRe.ReplaceAllString(out, " ")
	out = spaceBeforePct.ReplaceAllString(out, "$1")
	return strings.TrimSpace(out), err
}
