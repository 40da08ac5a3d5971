package inquiry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/tomo-edu/inquiry/internal/llm"
	"github.com/tomo-edu/inquiry/internal/missions"
	"github.com/tomo-edu/inquiry/internal/profile"
	"github.com/tomo-edu/inquiry/internal/prompts"
)

// ErrNoSeed is returned when StartInquiry has neither an image nor a
// keyword to work from.
var ErrNoSeed = errors.New("image or keyword is required")

// Service drives one learning session against the LLM. It owns the
// conversation transcript: screens call the methods in order (start,
// continue, story, quizzes) and the service threads the history
// through each call.
type Service struct {
	provider llm.Provider
	renderer *prompts.Renderer
	cfg      Config

	grade string
	level string

	history []llm.Message
	story   string
}

// NewService creates an inquiry service.
func NewService(provider llm.Provider, renderer *prompts.Renderer, cfg Config) *Service {
	if cfg.QuizCount <= 0 {
		cfg.QuizCount = DefaultConfig().QuizCount
	}
	if cfg.MaxLabels <= 0 {
		cfg.MaxLabels = DefaultConfig().MaxLabels
	}
	return &Service{provider: provider, renderer: renderer, cfg: cfg}
}

// SetLearner sets the grade and CEFR level used in every prompt.
func (s *Service) SetLearner(grade, level string) {
	s.grade = grade
	s.level = level
}

// Reset clears the conversation state for a new theme.
func (s *Service) Reset() {
	s.history = nil
	s.story = ""
}

// Story returns the raw story text (with translation) of the current
// session, or "" when none was generated yet.
func (s *Service) Story() string {
	return s.story
}

// SetStory restores the story context, e.g. when reviewing a saved
// session.
func (s *Service) SetStory(story string) {
	s.story = story
}

// DetectLabels asks the vision-capable model for short English labels
// describing the photo.
func (s *Service) DetectLabels(ctx context.Context, image []byte, mime string) ([]string, error) {
	ctx = llm.WithPurpose(ctx, "label-detection")

	req := llm.Request{
		System: "You label photos for a children's English learning app.",
		Messages: []llm.Message{{
			Role:      llm.RoleUser,
			Content:   fmt.Sprintf("List up to %d short English labels for the main objects in this photo.", s.cfg.MaxLabels),
			Image:     image,
			ImageMIME: mime,
		}},
		Schema:    LabelsSchema,
		MaxTokens: s.cfg.MaxTokens,
	}

	resp, err := s.provider.Generate(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("label detection: %w", err)
	}

	var out struct {
		Labels []string `json:"labels"`
	}
	if err := json.Unmarshal(resp.Content, &out); err != nil {
		return nil, fmt.Errorf("parse labels: %w", err)
	}
	if len(out.Labels) > s.cfg.MaxLabels {
		out.Labels = out.Labels[:s.cfg.MaxLabels]
	}
	return out.Labels, nil
}

// StartInquiry opens a fresh conversation seeded by the photo and
// keyword, returning the model's opening question (raw text with
// CHOICES and [TRANSLATION] markers).
func (s *Service) StartInquiry(ctx context.Context, input StartInput) (string, error) {
	if len(input.Image) == 0 && input.Keyword == "" {
		return "", ErrNoSeed
	}
	ctx = llm.WithPurpose(ctx, "conversation")

	initialContext := "Keyword: (none)"
	if input.Keyword != "" {
		initialContext = "Keyword: " + input.Keyword
	}
	visionContext := "Vision labels: (none)"
	if len(input.Labels) > 0 {
		visionContext = "Vision labels: " + strings.Join(input.Labels, ", ")
	}

	prompt := s.renderer.BuildPrompt(masterPromptFile,
		masterFallback(s.grade, s.level, input.Keyword),
		map[string]string{
			"grade":           s.grade,
			"guide_level":     s.level,
			"initial_context": initialContext,
			"vision_context":  visionContext,
		})

	s.history = nil
	msg := llm.Message{
		Role:      llm.RoleUser,
		Content:   prompt,
		Image:     input.Image,
		ImageMIME: input.ImageMIME,
	}
	return s.send(ctx, msg)
}

// Continue advances the conversation with the learner's reply.
func (s *Service) Continue(ctx context.Context, reply string) (string, error) {
	ctx = llm.WithPurpose(ctx, "conversation")

	msg := llm.Message{
		Role:    llm.RoleUser,
		Content: continueFallback(s.grade, s.level, reply),
	}
	return s.send(ctx, msg)
}

// GenerateStory turns the conversation so far into a short English
// story with a Japanese translation, constrained by the CEFR level
// rules. The story joins the transcript so quiz generation sees it.
func (s *Service) GenerateStory(ctx context.Context) (string, error) {
	ctx = llm.WithPurpose(ctx, "story")

	prompt := s.renderer.BuildPrompt(contentPromptFile,
		storyFallback(s.level),
		map[string]string{
			"grade":              s.grade,
			"guide_level":        s.level,
			"english_for_prompt": "(use chat history)",
		})

	text, err := s.send(ctx, llm.Message{Role: llm.RoleUser, Content: prompt})
	if err != nil {
		return "", err
	}
	s.story = text
	return text, nil
}

// GenerateQuizzes asks for exactly cfg.QuizCount quizzes about the
// story, as a JSON payload over the chat transcript. Fenced or
// prose-wrapped output is salvaged by brace slicing before schema
// validation. A quiz whose answer matches none of its choices is
// dropped before counting. Quizzes repeating a question from previous
// are the model's responsibility to avoid; short or long sets are an
// error.
func (s *Service) GenerateQuizzes(ctx context.Context, previous []string) ([]profile.Quiz, error) {
	ctx = llm.WithPurpose(ctx, "quiz-gen")

	story := s.story
	if story == "" {
		story = "(no story)"
	}
	prompt := s.renderer.BuildPrompt(quizPromptFile,
		quizFallback(s.level, s.cfg.QuizCount, previous),
		map[string]string{
			"grade":              s.grade,
			"english_for_prompt": story,
		})

	raw, err := s.send(ctx, llm.Message{Role: llm.RoleUser, Content: prompt})
	if err != nil {
		return nil, err
	}

	payload, ok := salvageJSON(raw)
	if !ok {
		return nil, fmt.Errorf("quiz response carries no JSON object")
	}
	if err := validateQuizPayload(payload); err != nil {
		return nil, err
	}

	var parsed struct {
		Quizzes []struct {
			Type     string   `json:"type"`
			Question string   `json:"question"`
			Choices  []string `json:"choices"`
			Answer   string   `json:"answer"`
		} `json:"quizzes"`
	}
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return nil, fmt.Errorf("parse quiz JSON: %w", err)
	}

	var quizzes []profile.Quiz
	for _, item := range parsed.Quizzes {
		q := profile.Quiz{
			Type:     strings.TrimSpace(item.Type),
			Question: strings.TrimSpace(item.Question),
			Choices:  item.Choices,
			Answer:   strings.TrimSpace(item.Answer),
		}
		if q.Type == "" || q.Question == "" || len(q.Choices) == 0 || q.Answer == "" {
			continue
		}
		if !answerInChoices(q.Answer, q.Choices) {
			continue
		}
		quizzes = append(quizzes, q)
	}
	if len(quizzes) != s.cfg.QuizCount {
		return nil, fmt.Errorf("expected %d quizzes but got %d", s.cfg.QuizCount, len(quizzes))
	}
	return quizzes, nil
}

// GenerateTagChoices asks for a question plus 3-5 keyword choices
// drawn from the story. Runs outside the conversation transcript.
func (s *Service) GenerateTagChoices(ctx context.Context) (string, error) {
	ctx = llm.WithPurpose(ctx, "tag-choices")

	prompt := s.renderer.BuildPrompt(tagPromptFile,
		tagFallback(s.story),
		map[string]string{
			"grade":              s.grade,
			"guide_level":        s.level,
			"english_for_prompt": s.story,
		})
	return s.oneShot(ctx, prompt)
}

// GenerateMissionChoices asks which story keyword to photograph next.
// The return-home choice is always part of the instruction so parsing
// it out downstream is safe.
func (s *Service) GenerateMissionChoices(ctx context.Context) (string, error) {
	ctx = llm.WithPurpose(ctx, "mission-choices")

	prompt := s.renderer.BuildPrompt(missionPromptFile,
		missionFallback(s.story, missions.ReturnHome),
		map[string]string{
			"grade":              s.grade,
			"guide_level":        s.level,
			"english_for_prompt": s.story,
		})
	return s.oneShot(ctx, prompt)
}

// SummaryGuidance writes a short Japanese coaching message for the
// summary card, grounded in the session's story and quizzes.
func (s *Service) SummaryGuidance(ctx context.Context, session *profile.Session) (string, error) {
	ctx = llm.WithPurpose(ctx, "summary-guidance")

	story := "No story."
	if session != nil && session.Story != "" {
		story = session.Story
	}
	var quizLines []string
	if session != nil {
		for _, q := range session.Quizzes {
			quizLines = append(quizLines, fmt.Sprintf("- %s (Answer: %s)", q.Question, q.Answer))
		}
	}

	prompt := guidanceFallback(s.grade, story, strings.Join(quizLines, "\n"))
	return s.oneShot(ctx, prompt)
}

// answerInChoices reports whether answer equals one of choices,
// ignoring case and surrounding whitespace.
func answerInChoices(answer string, choices []string) bool {
	for _, c := range choices {
		if strings.EqualFold(strings.TrimSpace(c), answer) {
			return true
		}
	}
	return false
}

// send appends msg to the transcript, calls the model with the full
// history, and records the assistant turn.
func (s *Service) send(ctx context.Context, msg llm.Message) (string, error) {
	history := append(append([]llm.Message{}, s.history...), msg)

	resp, err := s.provider.Generate(ctx, llm.Request{
		Messages:    history,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return "", err
	}

	text := resp.Text()
	s.history = append(history, llm.Message{Role: llm.RoleAssistant, Content: text})
	return text, nil
}

// oneShot calls the model without touching the conversation transcript.
func (s *Service) oneShot(ctx context.Context, prompt string) (string, error) {
	resp, err := s.provider.Generate(ctx, llm.Request{
		Messages:    []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	})
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}
