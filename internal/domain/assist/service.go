package assist

import (
	"context"
	"fmt"
	"strings"

	"github.com/clinnote/clinnote/internal/platform/ai"
)

// ClinicalContext is the visit context a completion is grounded on.
type ClinicalContext struct {
	Identifier   string            `json:"identifier,omitempty"`
	Name         string            `json:"name,omitempty"`
	History      string            `json:"history,omitempty"`
	Background   string            `json:"background,omitempty"`
	Allergies    string            `json:"allergies,omitempty"`
	PhysicalExam string            `json:"physical_exam,omitempty"`
	Vitals       map[string]string `json:"vitals,omitempty"`
}

// Every preamble states that the clinician makes the final call; completions
// are drafts, not decisions.
const (
	diagnosisPrompt = "You are a clinical assistant for primary care. " +
		"List 3-5 initial diagnostic hypotheses with a brief rationale for each. " +
		"The final decision rests with the physician."

	prescriptionPrompt = "Suggest 2-3 prescription alternatives using generic names, " +
		"one per line, format: 'SUBSTANCE - DOSE - FREQUENCY - DURATION - NOTES'. " +
		"Do not diagnose. The final decision rests with the physician."

	reportPrompt = "Write an objective clinical report for primary care with sections: " +
		"Identification; Findings/Context; Conclusion; Recommendations."

	examPrompt = "Interpret the exam result for primary care: " +
		"Summary; Interpretation; Management; Alerts; Initial therapeutic plan."
)

type Service struct {
	completer ai.Completer
}

func NewService(completer ai.Completer) *Service {
	return &Service{completer: completer}
}

func (s *Service) Diagnosis(ctx context.Context, cc ClinicalContext) (string, error) {
	return s.completer.Complete(ctx, diagnosisPrompt, renderContext(cc))
}

func (s *Service) Prescription(ctx context.Context, cc ClinicalContext) (string, error) {
	return s.completer.Complete(ctx, prescriptionPrompt, renderContext(cc))
}

func (s *Service) Report(ctx context.Context, cc ClinicalContext, ask string) (string, error) {
	return s.completer.Complete(ctx, reportPrompt, renderContext(cc)+"\nRequest: "+ask)
}

func (s *Service) InterpretExam(ctx context.Context, cc ClinicalContext, exam string) (string, error) {
	return s.completer.Complete(ctx, examPrompt, renderContext(cc)+"\nExam: "+exam)
}

// renderContext flattens the clinical context into the prompt body.
func renderContext(cc ClinicalContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Patient: %s (%s)\n", cc.Name, cc.Identifier)
	fmt.Fprintf(&b, "History: %s\n", cc.History)
	fmt.Fprintf(&b, "Background: %s\n", cc.Background)
	fmt.Fprintf(&b, "Allergies: %s\n", cc.Allergies)
	fmt.Fprintf(&b, "Physical exam: %s\n", cc.PhysicalExam)
	if len(cc.Vitals) > 0 {
		b.WriteString("Vitals:")
		for _, key := range []string{"bp", "hr", "rr", "temp", "spo2", "weight", "height", "bmi"} {
			if val, ok := cc.Vitals[key]; ok && val != "" {
				fmt.Fprintf(&b, " %s=%s", key, val)
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}
