package service

import (
	"strings"
	"study_buddy_backend/internal/model"
)

// 预置题库。AI 配额耗尽或过载时按主题关键词就近取题，
// 数学关键词优先于科学关键词匹配
var (
	mathKeywords    = []string{"math", "algebra", "geometry", "calculus", "arithmetic", "equation", "number"}
	scienceKeywords = []string{"science", "physics", "chemistry", "biology", "astronomy"}

	mathQuestionBank = []model.Question{
		{
			Question:    "What is 15% of 200?",
			Options:     []string{"25", "30", "35", "40"},
			Correct:     1,
			Explanation: "15% of 200 = 0.15 × 200 = 30.",
		},
		{
			Question:    "What is the value of x in the equation 2x + 6 = 14?",
			Options:     []string{"2", "3", "4", "5"},
			Correct:     2,
			Explanation: "Subtract 6 from both sides to get 2x = 8, so x = 4.",
		},
		{
			Question:    "What is the area of a rectangle with length 8 and width 5?",
			Options:     []string{"13", "26", "40", "45"},
			Correct:     2,
			Explanation: "Area of a rectangle is length × width = 8 × 5 = 40.",
		},
		{
			Question:    "Which of these numbers is prime?",
			Options:     []string{"15", "21", "17", "27"},
			Correct:     2,
			Explanation: "17 has no divisors other than 1 and itself.",
		},
		{
			Question:    "What is the sum of the interior angles of a triangle?",
			Options:     []string{"90 degrees", "180 degrees", "270 degrees", "360 degrees"},
			Correct:     1,
			Explanation: "The interior angles of any triangle always sum to 180 degrees.",
		},
	}

	scienceQuestionBank = []model.Question{
		{
			Question:    "What is the chemical symbol for water?",
			Options:     []string{"H2O", "CO2", "O2", "NaCl"},
			Correct:     0,
			Explanation: "Water is composed of two hydrogen atoms and one oxygen atom, written as H2O.",
		},
		{
			Question:    "Which planet is closest to the Sun?",
			Options:     []string{"Venus", "Earth", "Mercury", "Mars"},
			Correct:     2,
			Explanation: "Mercury orbits closest to the Sun of all the planets.",
		},
		{
			Question:    "What part of the cell contains genetic material?",
			Options:     []string{"Mitochondria", "Nucleus", "Ribosome", "Cell membrane"},
			Correct:     1,
			Explanation: "The nucleus stores the cell's DNA.",
		},
		{
			Question:    "What force pulls objects toward the center of the Earth?",
			Options:     []string{"Magnetism", "Friction", "Gravity", "Inertia"},
			Correct:     2,
			Explanation: "Gravity attracts objects with mass toward one another.",
		},
		{
			Question:    "What gas do plants absorb from the atmosphere during photosynthesis?",
			Options:     []string{"Oxygen", "Nitrogen", "Carbon dioxide", "Hydrogen"},
			Correct:     2,
			Explanation: "Plants take in carbon dioxide and release oxygen during photosynthesis.",
		},
	}

	generalQuestionBank = []model.Question{
		{
			Question:    "Which continent has the largest land area?",
			Options:     []string{"Africa", "Asia", "Europe", "North America"},
			Correct:     1,
			Explanation: "Asia is the largest continent by land area.",
		},
		{
			Question:    "How many days are there in a leap year?",
			Options:     []string{"364", "365", "366", "367"},
			Correct:     2,
			Explanation: "A leap year adds one extra day in February for a total of 366.",
		},
		{
			Question:    "What is the capital of France?",
			Options:     []string{"London", "Berlin", "Madrid", "Paris"},
			Correct:     3,
			Explanation: "Paris is the capital and largest city of France.",
		},
		{
			Question:    "Which ocean is the largest?",
			Options:     []string{"Atlantic", "Indian", "Pacific", "Arctic"},
			Correct:     2,
			Explanation: "The Pacific Ocean covers more area than any other ocean.",
		},
		{
			Question:    "How many sides does a hexagon have?",
			Options:     []string{"5", "6", "7", "8"},
			Correct:     1,
			Explanation: "A hexagon has six sides.",
		},
	}
)

// fallbackQuestionBank 按主题挑选题库
func fallbackQuestionBank(topic string) []model.Question {
	lower := strings.ToLower(topic)
	for _, kw := range mathKeywords {
		if strings.Contains(lower, kw) {
			return mathQuestionBank
		}
	}
	for _, kw := range scienceKeywords {
		if strings.Contains(lower, kw) {
			return scienceQuestionBank
		}
	}
	return generalQuestionBank
}

// buildFallbackQuestions 从题库取 n 道题，先不重复取完再循环补足
func buildFallbackQuestions(topic string, n int) []model.Question {
	bank := fallbackQuestionBank(topic)
	questions := make([]model.Question, 0, n)
	for i := 0; i < n; i++ {
		questions = append(questions, bank[i%len(bank)])
	}
	return questions
}
