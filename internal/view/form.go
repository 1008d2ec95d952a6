package view

import (
	"context"
	"errors"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/truthscan-ai/truthscan/internal/analysis"
	"github.com/truthscan-ai/truthscan/internal/detection"
)

// Phase is the position of a Form in its request cycle.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseLoading
	PhaseSuccess
	PhaseFailure
)

func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseLoading:
		return "loading"
	case PhaseSuccess:
		return "success"
	case PhaseFailure:
		return "failure"
	default:
		return "unknown"
	}
}

var (
	// ErrEmptyInput is returned for blank submissions. No transition happens.
	ErrEmptyInput = errors.New("input is empty")
	// ErrInFlight is returned while a previous submission is still loading.
	ErrInFlight = errors.New("analysis already in progress")
)

// Analyzer is what a Form submits to.
type Analyzer interface {
	Analyze(ctx context.Context, text string) (*detection.DetectionResult, error)
}

// State is an immutable snapshot of a Form.
type State struct {
	Phase  Phase
	Input  string
	Result *detection.DetectionResult
	Error  string
}

// Loading reports whether a submission is in flight.
func (s State) Loading() bool { return s.Phase == PhaseLoading }

// CanSubmit mirrors the submit button: disabled while loading or when the input is blank.
func (s State) CanSubmit() bool {
	return s.Phase != PhaseLoading && strings.TrimSpace(s.Input) != ""
}

// CharCount is the number of characters in the input.
func (s State) CharCount() int { return utf8.RuneCountInString(s.Input) }

// Form holds the single-slot request state of one page.
// At most one submission is in flight at a time.
type Form struct {
	analyzer Analyzer

	mu     sync.Mutex
	phase  Phase
	input  string
	result *detection.DetectionResult
	errMsg string
}

// NewForm returns an idle form that submits to a.
func NewForm(a Analyzer) *Form {
	return &Form{analyzer: a}
}

// SetInput replaces the current input text.
func (f *Form) SetInput(text string) {
	f.mu.Lock()
	f.input = text
	f.mu.Unlock()
}

// Input returns the current input text.
func (f *Form) Input() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.input
}

// Snapshot returns the current state.
func (f *Form) Snapshot() State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshotLocked()
}

func (f *Form) snapshotLocked() State {
	return State{
		Phase:  f.phase,
		Input:  f.input,
		Result: f.result,
		Error:  f.errMsg,
	}
}

// Submit stores text as the input and, unless it is blank or a request is
// already in flight, runs one analysis. It blocks until the analysis completes.
// The returned error is ErrEmptyInput, ErrInFlight, or the analysis error.
func (f *Form) Submit(ctx context.Context, text string) error {
	f.mu.Lock()
	if f.phase == PhaseLoading {
		f.mu.Unlock()
		return ErrInFlight
	}
	f.input = text
	if strings.TrimSpace(text) == "" {
		f.mu.Unlock()
		return ErrEmptyInput
	}
	f.phase = PhaseLoading
	f.result = nil
	f.errMsg = ""
	f.mu.Unlock()

	res, err := f.analyzer.Analyze(ctx, text)

	f.mu.Lock()
	defer f.mu.Unlock()
	if err != nil {
		f.phase = PhaseFailure
		f.errMsg = analysis.UserMessage(err)
		return err
	}
	if res == nil {
		f.phase = PhaseFailure
		f.errMsg = analysis.GenericMessage
		return errors.New("analyzer returned no result")
	}
	f.phase = PhaseSuccess
	f.result = res
	return nil
}
