package inquiry

import (
	"fmt"
	"strings"
)

// Prompt template file names. When a file exists in the prompt
// directory its rendered text is prepended to the built-in fallback;
// otherwise the fallback alone is used.
const (
	masterPromptFile  = "prompt_master.txt"
	quizPromptFile    = "prompt_quiz.txt"
	tagPromptFile     = "prompt_tag.txt"
	missionPromptFile = "prompt_mission.txt"
	contentPromptFile = "prompt_content.txt"
)

// levelRules constrain story generation per CEFR level.
var levelRules = map[string]string{
	"CEFR Pre-A1": "Write 3-4 sentences, 4-7 words each. Use only very simple words (dog, tree, book, happy, play). No conjunctions. One idea per sentence.",
	"CEFR A1":     "Write 5-6 sentences, 6-10 words each. Use simple present/past and allow 'and' or 'but'. Keep vocabulary at A1.",
	"CEFR A2":     "Write 6-8 sentences, 8-12 words each. Include at least one sentence with 'because' or 'so', and one comparative adjective (bigger/stronger/healthier). A2-level vocabulary only.",
}

// choicesRule returns the choice instruction for the learner's grade.
func choicesRule(grade string, fresh bool) string {
	if !GradeNeedsChoices(grade) {
		return "Do not provide choices."
	}
	if fresh {
		return "You MUST provide 3 new choices for this question, like this: CHOICES: [[Choice 1],[Choice 2],[Choice 3]]"
	}
	return "You MUST provide 3 choices, like this: CHOICES: [[Choice 1],[Choice 2],[Choice 3]]"
}

// masterFallback builds the opening prompt for a keyword-seeded inquiry.
func masterFallback(grade, level, keyword string) string {
	if keyword == "" {
		return fmt.Sprintf("You are a helpful assistant. Please talk in simple English. (Grade: %s) (Level: %s) (No keyword provided)", grade, level)
	}
	choice := choicesRule(grade, false)
	return fmt.Sprintf(`You are an AI guide for inquiry-based English learning.
The student's grade is: %s.
The student's estimated English level is: %s.

Your task is to ask **one single, open-ended question** to start a conversation based on the keyword: '%s'.
The question MUST be appropriate for the student's level (%s).

**CRITICAL RULES:**
- **Use simple English**, appropriate for the student's level.
- The question MUST connect the keyword to a wider topic, such as **environmental problems, social studies (how society works), or interesting trivia**.
- **Example 1 (Keyword 'grass'):** Ask "How do plants like grass help our planet?" (Environmental)
- **Example 2 (Keyword 'car'):** Ask "How do cars change the way people live in a city?" (Social Studies)

%s

After your English response, you MUST provide a Japanese translation.
Format it EXACTLY like this (with the [TRANSLATION] tag):

(Your English question...)
%s

[TRANSLATION]
(ここに日本語訳...)
`, grade, level, keyword, level, choice, choice)
}

// continueFallback builds the follow-up prompt for a learner reply.
func continueFallback(grade, level, reply string) string {
	choice := choicesRule(grade, true)
	return fmt.Sprintf(`The user's last reply was: "%s"
The student's level is: %s.

Continue the inquiry-based conversation.
1. Briefly acknowledge their reply.
2. Ask **one new, open-ended, inquiry-based question** to deepen their thinking (about **environment, social studies, or trivia**).
3. Keep the conversation flowing and use **simple English, appropriate for %s**.
- **Example (Social):** User: "Cars are fast." AI: "That's true! But what happens to a town when many cars are used?"
- **Example (Env):** User: "I like trees." AI: "Trees are great! How do trees help keep the air clean?"

%s

CRITICAL: After your English response, you MUST provide a Japanese translation.
Format it EXACTLY like this (with the [TRANSLATION] tag):

(Your English response...)
%s

[TRANSLATION]
(ここに日本語訳...)
`, reply, level, level, choice, choice)
}

// storyFallback builds the story generation prompt.
func storyFallback(level string) string {
	return fmt.Sprintf(`[CEFR rule] %s

Based on the **ideas and themes** from our conversation (e.g., environment, social studies), create an educational **5 to 6 sentence** English story.
The story must be written at a %s level.
The story should be creative but **provide a learning point**.

**CRITICAL RULE:** After the English story, you MUST provide a Japanese translation.
Format it EXACTLY like this (with the [TRANSLATION] tag):

(English Story...)

[TRANSLATION]
(ここに日本語訳...)
`, levelRules[level], level)
}

// quizFallback builds the bulk quiz generation prompt.
func quizFallback(level string, count int, previous []string) string {
	prev := "(none)"
	if len(previous) > 0 {
		prev = strings.Join(previous, "; ")
	}
	return fmt.Sprintf(`You are creating exactly %d short quizzes about the story in our chat history.
Rules:
- Allowed types: "True/False" or "Fill-in-the-blank".
- Avoid duplicate or near-duplicate questions. Do NOT repeat these questions: %s
- Difficulty must match a %s student.
- True/False: choices must be ["True","False"], answer is "True" or "False".
- Fill-in-the-blank: include a blank like "___" and 3-4 concise choices; answer must exactly match one choice.
- Return JSON ONLY (no prose/markdown/code fences).
- JSON schema (exact keys):
{"quizzes":[{"type":"True/False","question":"...","choices":["True","False"],"answer":"True"},{"type":"Fill-in-the-blank","question":"... ___ ...","choices":["choice1","choice2","choice3"],"answer":"choice1"}]}
- quizzes list length must be exactly %d.
`, count, prev, level, count)
}

// tagFallback asks for keyword choices drawn from the story.
func tagFallback(story string) string {
	return fmt.Sprintf(`Based on the story below, create a single question and 3-5 keyword choices.
QUESTION: ...
CHOICES: [Choice1],[Choice2],[Choice3]

STORY:
%s
`, story)
}

// missionFallback asks which keyword to photograph next.
func missionFallback(story, returnHome string) string {
	return fmt.Sprintf(`Based on the story below, ask which keyword the student wants to photograph next.
Use keywords from the story and include [%s].
QUESTION: ...
CHOICES: [Choice1],[Choice2],[%s]

STORY:
%s
`, returnHome, returnHome, story)
}

// guidanceFallback coaches the learner through the summary card fields,
// in simple Japanese.
func guidanceFallback(grade, story, quizText string) string {
	return fmt.Sprintf(`You are an AI assistant helping a student fill out their summary card.
The student's grade is %s.
Your task is to write a short, friendly message (in **simple Japanese**) to the student.
Guide them by asking **one thinking question for each of the first 3 fields**.

Here is the data from their learning session:
---
**STORY:**
%s

**QUIZZES THEY TOOK:**
%s
---

**Example Output (Must be in Japanese):**
"このトピックの学習、おつかれさま！
カードを埋めるために、こんなことを考えてみよう：

1.  **事実:** どんな「こと」（事実）を学んだかな？（ストーリーやクイズに出てきたことなど）
2.  **気持ち/解決策:** この話でどんな「きもち」になったかな？ 私たちにできる小さな「かいけつさく」はあるかな？
3.  **新しい視点:** この勉強で、なにか「あたらしいかんがえ」は生まれた？
4.  **参考:** ばっちりだね！ ほかにも、どこでこれについて学べるかな？（としょかん、はくぶつかんなど）"
`, grade, story, quizText)
}
