package quiz

// Answers maps a question index to the chosen option index.
type Answers map[int]int

// Result is the outcome of grading one attempt.
type Result struct {
	Correct  int
	Total    int
	Answered int
}

// Grade counts correct answers. Unanswered questions count as wrong.
func Grade(t Test, answers Answers) Result {
	res := Result{Total: len(t.Questions)}
	for i, q := range t.Questions {
		choice, ok := answers[i]
		if !ok {
			continue
		}
		res.Answered++
		if choice == q.CorrectIndex {
			res.Correct++
		}
	}
	return res
}

// Complete reports whether every question has an answer.
func (r Result) Complete() bool { return r.Answered == r.Total }
