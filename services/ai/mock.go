package aisvc

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Abra313/socrease-lesson-note-management/core"
	"github.com/Abra313/socrease-lesson-note-management/core/ai"
)

const (
	improvedSuffix = "\n\n[AI-improved version would appear here in production]"

	evaluationReply = "AI Evaluation Score: 85%\n\n" +
		"Strengths: Clear objectives, well-structured development, good evaluation questions.\n\n" +
		"Suggestions: Consider adding more real-world examples in the development section. " +
		"The introduction could be more engaging."

	chatReply = "This is a demo response. In production, this would connect to an AI provider to provide " +
		"intelligent assistance with lesson planning, content generation, and teaching tips."
)

// MockCompleter answers every prompt with canned text after a fixed delay.
type MockCompleter struct {
	delay time.Duration
}

var _ ai.Completer = (*MockCompleter)(nil)

func NewMockCompleter(conf *core.Config) *MockCompleter {
	return &MockCompleter{delay: conf.AI.MockDelay}
}

func (m *MockCompleter) Complete(ctx context.Context, prompt string) (ai.Sections, error) {
	if m.delay > 0 {
		timer := time.NewTimer(m.delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	switch {
	case strings.HasPrefix(prompt, ai.GeneratePrefix):
		return lessonSections(ai.TopicOf(prompt)), nil
	case strings.HasPrefix(prompt, ai.ImprovePrefix):
		return ai.Sections{ai.KeyText: ai.ImprovedTextOf(prompt) + improvedSuffix}, nil
	case strings.HasPrefix(prompt, ai.EvaluatePrefix):
		return ai.Sections{ai.KeyText: evaluationReply}, nil
	default:
		return ai.Sections{ai.KeyText: chatReply}, nil
	}
}

func lessonSections(topic string) ai.Sections {
	return ai.Sections{
		ai.KeyObjectives: fmt.Sprintf(`1. Students will be able to identify and explain the key concepts of %s
2. Students will demonstrate understanding through practical examples
3. Students will apply learned concepts to solve related problems
4. Students will work collaboratively in group activities
5. Students will develop critical thinking skills related to the topic`, topic),

		ai.KeyMaterials: `1. Textbooks and reference materials
2. Whiteboard and markers
3. Charts and diagrams
4. Worksheets and handouts
5. Multimedia resources (projector, laptop)
6. Real-life examples and models`,

		ai.KeyIntroduction: fmt.Sprintf("Begin the lesson by asking students what they already know about %s. "+
			"Use a brief story or real-life example to capture their interest and connect the topic to their daily experiences. "+
			"This will help activate prior knowledge and set the context for new learning.", topic),

		ai.KeyDevelopment: `Step 1: Present the main concept using clear explanations and visual aids. Write key terms on the board and ensure students understand the basic definitions.

Step 2: Demonstrate practical examples related to the topic. Use charts, diagrams, or real objects to make the concept concrete and relatable.

Step 3: Engage students in a guided practice activity. Ask questions and encourage participation to check for understanding.

Step 4: Organize students into small groups for collaborative learning. Assign tasks that require them to apply the concepts learned.

Step 5: Have groups present their findings or solutions. Provide constructive feedback and clarify any misconceptions.

Step 6: Summarize the key points and connect them back to the learning objectives. Ensure all students have grasped the essential concepts.`,

		ai.KeyEvaluation: fmt.Sprintf(`1. What is %s? Explain in your own words.
2. Give three examples of how this concept applies in real life.
3. What are the main characteristics or features discussed in today's lesson?
4. How would you solve this problem using what you learned today?
5. Compare and contrast the different aspects we covered.
6. Why is this topic important? How can you use this knowledge?
7. Create your own example demonstrating understanding of the concept.`, topic),

		ai.KeyConclusion: "Review the main points covered in the lesson and ask students to share one thing they learned. " +
			"Assign homework that reinforces the concepts and preview the next lesson topic. " +
			"Thank students for their participation and encourage them to practice what they've learned.",
	}
}
