package workflow

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"
)

// Minimum brief lengths, in characters after trimming.
const (
	MinTopicLength    = 3
	MinProblemLength  = 20
	MinSolutionLength = 50
)

// Validate checks the brief lengths and the scrape links. maxLinks of zero
// or less disables the link count check. Every failure is reported, joined
// under ErrInvalidInput.
func (in Inputs) Validate(maxLinks int) error {
	var errs []error

	check := func(name, value string, minLen int) {
		if n := utf8.RuneCountInString(strings.TrimSpace(value)); n < minLen {
			errs = append(errs, fmt.Errorf("%s must be at least %d characters", name, minLen))
		}
	}

	check(KeyTopic, in.Topic, MinTopicLength)
	check(KeyProblem, in.Problem, MinProblemLength)
	check(KeySolution, in.Solution, MinSolutionLength)

	if maxLinks > 0 && len(in.WebScrapingLinks) > maxLinks {
		errs = append(errs, fmt.Errorf("at most %d web scraping links are allowed", maxLinks))
	}

	for _, link := range in.WebScrapingLinks {
		if err := validateLink(link); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidInput, errors.Join(errs...))
	}
	return nil
}

// Validate checks the embedded inputs plus the current document and the
// feedback message.
func (in ModifyInputs) Validate(maxLinks int) error {
	var errs []error

	if err := in.Inputs.Validate(maxLinks); err != nil {
		errs = append(errs, err)
	}
	if strings.TrimSpace(in.CurrentPRFAQ) == "" {
		errs = append(errs, fmt.Errorf("%w: %s is required", ErrInvalidInput, KeyCurrentPRFAQ))
	}
	if len(in.ChatHistory) == 0 || strings.TrimSpace(in.ChatHistory[len(in.ChatHistory)-1]) == "" {
		errs = append(errs, fmt.Errorf("%w: feedback message is required", ErrInvalidInput))
	}

	return errors.Join(errs...)
}

func validateLink(link string) error {
	u, err := url.Parse(link)
	if err != nil || !u.IsAbs() || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("invalid web scraping link %q", link)
	}
	return nil
}
