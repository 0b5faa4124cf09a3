package answer

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/lexrag/internal/domain"
)

// Built-in prompt texts. Each can be overridden through Prompts.
const (
	DefaultSystemPrompt = "أنت مساعد قانوني متخصص في الأنظمة السعودية."

	DefaultInstruction = "أجب بالعربية الفصحى باختصار ودقة. اعتمد فقط على المقتطفات التالية من الأنظمة السعودية،\n" +
		"واذكر أرقام المراجع بهذا الشكل [1][2] داخل الجواب حيث يلزم."

	DefaultFallback = "المقتطفات المتاحة لا تكفي لإجابة دقيقة"

	// UnknownLawName labels a passage without a law_name in the context block.
	UnknownLawName = "غير محدد"

	// DefaultTemperature keeps answers close to the excerpts.
	DefaultTemperature float32 = 0.2
)

// Prompts holds the prompt texts; empty fields fall back to the built-in defaults.
type Prompts struct {
	System      string
	Instruction string
	Fallback    string
	Temperature float32
}

func (p Prompts) withDefaults() Prompts {
	if p.System == "" {
		p.System = DefaultSystemPrompt
	}
	if p.Instruction == "" {
		p.Instruction = DefaultInstruction
	}
	if p.Fallback == "" {
		p.Fallback = DefaultFallback
	}
	if p.Temperature == 0 {
		p.Temperature = DefaultTemperature
	}
	return p
}

// BuildContext renders citations as numbered lines "[i] (law_name) text",
// 1-based in the given order, separated by blank lines.
func BuildContext(citations []domain.Citation) string {
	lines := make([]string, 0, len(citations))
	for i, c := range citations {
		law := UnknownLawName
		if c.LawName != nil && *c.LawName != "" {
			law = *c.LawName
		}
		lines = append(lines, fmt.Sprintf("[%d] (%s) %s", i+1, law, c.Text))
	}
	return strings.Join(lines, "\n\n")
}

// BuildPrompt assembles the user message: instruction, question, excerpts, fallback rule.
func BuildPrompt(question string, citations []domain.Citation, p Prompts) string {
	p = p.withDefaults()

	var b strings.Builder
	b.WriteString(p.Instruction)
	b.WriteString("\n\nالسؤال:\n")
	b.WriteString(question)
	b.WriteString("\n\nالمقتطفات:\n")
	b.WriteString(BuildContext(citations))
	b.WriteString("\n\nإن لم تجد إجابة صريحة، قل: \"")
	b.WriteString(p.Fallback)
	b.WriteString("\" واقترح ما يجب البحث عنه.")

	return strings.TrimSpace(b.String())
}
