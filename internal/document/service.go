package document

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"enact/internal/gemini"

	"go.uber.org/zap"
)

// Type identifies a supported legal document template.
type Type string

const (
	TypeFIR         Type = "fir"
	TypeLegalNotice Type = "legal_notice"
	TypeRTI         Type = "rti"
)

var ErrUnknownType = errors.New("unknown document type")

// ParseType validates a document type received from a client.
func ParseType(s string) (Type, error) {
	switch Type(strings.ToLower(s)) {
	case TypeFIR:
		return TypeFIR, nil
	case TypeLegalNotice:
		return TypeLegalNotice, nil
	case TypeRTI:
		return TypeRTI, nil
	default:
		return "", ErrUnknownType
	}
}

const firPrompt = `Generate a complete First Information Report (FIR) based on the following details:
%s

Format the FIR professionally with all required sections:
1. Police Station Details
2. Complainant Information
3. Date, Time, and Place of Occurrence
4. Nature of Information (offense details)
5. Description of Accused (if known)
6. Brief Facts of Case
7. Action Taken
8. Relevant IPC/BNS Sections

Make it formal, legally sound, and ready to file.`

const legalNoticePrompt = `Generate a professional Legal Notice based on these details:
%s

Include:
1. Header (Notice issuer details)
2. Date
3. To: (Recipient details)
4. Subject Line
5. Facts of the Case (chronologically)
6. Legal Grounds (relevant sections)
7. Demands/Relief Sought
8. Consequences of Non-Compliance
9. Timeline to Respond
10. Signature block

Use formal legal language and proper notice format.`

const rtiPrompt = `Generate a Right to Information (RTI) application based on:
%s

Format according to RTI Act 2005:
1. To: (Public Information Officer details)
2. Subject Line
3. Applicant Details
4. Information Sought (specific questions)
5. Mode of Information Delivery Preferred
6. Declaration Statement
7. Payment Details Reference
8. Date and Signature

Make questions specific, clear, and within RTI scope.`

var prompts = map[Type]string{
	TypeFIR:         firPrompt,
	TypeLegalNotice: legalNoticePrompt,
	TypeRTI:         rtiPrompt,
}

// Generator produces a single completion for a drafting prompt.
type Generator interface {
	Generate(ctx context.Context, contents []gemini.Content, genCfg *gemini.GenerationConfig) (string, error)
}

type Service struct {
	generator Generator
	logger    *zap.Logger
}

func NewService(generator Generator, logger *zap.Logger) *Service {
	return &Service{generator: generator, logger: logger}
}

// Generate drafts a legal document of the given type from caller-supplied
// details. Drafting uses a low temperature so repeated requests with the
// same details stay close to the template.
func (s *Service) Generate(ctx context.Context, docType Type, details map[string]any) (string, error) {
	tmpl, ok := prompts[docType]
	if !ok {
		return "", ErrUnknownType
	}

	encoded, err := json.MarshalIndent(details, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode details: %w", err)
	}

	s.logger.Info("generating document", zap.String("type", string(docType)))

	prompt := fmt.Sprintf(tmpl, encoded)
	text, err := s.generator.Generate(ctx, []gemini.Content{gemini.NewUserContent(prompt)}, &gemini.GenerationConfig{
		Temperature:     0.2,
		MaxOutputTokens: 2048,
	})
	if err != nil {
		s.logger.Error("document generation failed", zap.String("type", string(docType)), zap.Error(err))
		return "", err
	}
	return text, nil
}
